// Package analytics delivers submitted leads to the analytics sink.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/loan-wizard/pkg/constants"
	"go.uber.org/zap"
)

// Lead is the payload reported when a visitor submits the wizard.
type Lead struct {
	VisitorID      string  `json:"visitor_id,omitempty"`
	LoanSum        string  `json:"sum_cred"`
	Term           int     `json:"srok_kredita"`
	MonthlyPayment string  `json:"platezh_mes"`
	ChosenOption   string  `json:"chosen_option"`
	DesiredPayment float64 `json:"desired_payment,omitempty"`
}

// NewLead formats the monetary fields with two decimals.
func NewLead(visitorID string, amount float64, termYears int, monthlyPayment float64, chosenOption string) Lead {
	return Lead{
		VisitorID:      visitorID,
		LoanSum:        fmt.Sprintf("%.2f", amount),
		Term:           termYears,
		MonthlyPayment: fmt.Sprintf("%.2f", monthlyPayment),
		ChosenOption:   chosenOption,
	}
}

// Sink accepts leads. A nil error means the submission succeeded.
type Sink interface {
	Send(ctx context.Context, lead Lead) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, lead Lead) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, lead Lead) error {
	return f(ctx, lead)
}

// Discard accepts every lead and does nothing with it.
var Discard Sink = SinkFunc(func(context.Context, Lead) error { return nil })

// LogSink writes leads to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the lead at info level.
func (s *LogSink) Send(_ context.Context, lead Lead) error {
	s.logger.Info("lead submitted",
		zap.String("op", "analytics.LogSink.Send"),
		zap.String("visitor", lead.VisitorID),
		zap.String("sum_cred", lead.LoanSum),
		zap.Int("srok_kredita", lead.Term),
		zap.String("platezh_mes", lead.MonthlyPayment),
		zap.String("chosen_option", lead.ChosenOption),
	)
	return nil
}

// ErrUnexpectedStatus is returned when the collector answers outside 2xx.
var ErrUnexpectedStatus = errors.New("unexpected analytics response status")

// HTTPSink posts leads as JSON to a collector endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPSink creates an HTTPSink. A zero timeout leaves the client without one.
func NewHTTPSink(logger *zap.Logger, endpoint string, timeout time.Duration) (*HTTPSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("analytics endpoint is required for the http sink")
	}
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

// Send posts the lead and waits for the collector to answer.
func (s *HTTPSink) Send(ctx context.Context, lead Lead) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver lead: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	s.logger.Debug("lead delivered",
		zap.String("op", "analytics.HTTPSink.Send"),
		zap.String("visitor", lead.VisitorID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// NewSink builds the sink named by kind.
func NewSink(logger *zap.Logger, kind, endpoint string, timeout time.Duration) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", constants.AnalyticsSinkLog:
		return NewLogSink(logger), nil
	case constants.AnalyticsSinkHTTP:
		return NewHTTPSink(logger, endpoint, timeout)
	case constants.AnalyticsSinkDiscard:
		return Discard, nil
	default:
		return nil, fmt.Errorf("unsupported analytics sink %q", kind)
	}
}
