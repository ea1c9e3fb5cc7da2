// Package testutil provides common utility functions for testing.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/iwvelando/loan-wizard/internal/analytics"
)

// Collector is an analytics endpoint that records the leads posted to it.
type Collector struct {
	Server *httptest.Server

	mu     sync.Mutex
	leads  []analytics.Lead
	status int
}

// NewCollector starts a Collector that answers 204 until SetStatus is called.
// The server is closed when the test ends.
func NewCollector(t testing.TB) *Collector {
	t.Helper()

	c := &Collector{status: http.StatusNoContent}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Server.Close)
	return c
}

func (c *Collector) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status < 200 || c.status > 299 {
		w.WriteHeader(c.status)
		return
	}

	var lead analytics.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c.leads = append(c.leads, lead)
	w.WriteHeader(c.status)
}

// URL returns the endpoint to configure an HTTP sink with.
func (c *Collector) URL() string {
	return c.Server.URL
}

// SetStatus changes the status code returned for later requests.
func (c *Collector) SetStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// Leads returns a copy of the leads received so far.
func (c *Collector) Leads() []analytics.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]analytics.Lead(nil), c.leads...)
}
