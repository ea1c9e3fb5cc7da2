package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/internal/session"
	"github.com/iwvelando/loan-wizard/internal/wizard"
	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/iwvelando/loan-wizard/pkg/mathutil"
	"go.uber.org/zap"
)

const visitorCookieMaxAge = 365 * 24 * time.Hour

type handler struct {
	logger      *zap.Logger
	sessions    *session.Manager
	catalog     offer.Catalog
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the calculator and wizard API.
func NewHandler(logger *zap.Logger, sessions *session.Manager, catalog offer.Catalog, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		sessions:    sessions,
		catalog:     catalog,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()

	// Version endpoint for UI metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	// Stateless calculator
	mux.HandleFunc("POST /api/quote", h.handleQuote)

	// Wizard sessions
	mux.HandleFunc("POST /api/sessions", h.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/actions", h.handleAction)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.handleDeleteSession)

	return mux
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type quoteRequest struct {
	Amount    *float64     `json:"amount"`
	TermYears *int         `json:"termYears"`
	Assets    offer.Assets `json:"assets"`
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if status, err := h.decodeJSON(w, r, &req); err != nil {
		h.respondErrorWithOp(w, status, err.Error(), "server.handleQuote")
		return
	}

	bounds := h.catalog.BoundsFor(req.Assets)
	amount := bounds.MaxAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	term := bounds.MaxTerm
	if req.TermYears != nil {
		term = *req.TermYears
	}

	h.writeJSON(w, http.StatusOK, h.catalog.Offers(req.Assets, amount, term))
}

type sessionResponse struct {
	ID    string      `json:"id"`
	State wizard.View `json:"state"`
}

func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	visitorID := h.visitorID(w, r)

	id, wz, err := h.sessions.Create(r.Context(), visitorID)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleCreateSession")
		return
	}

	h.logger.Info("wizard session started",
		zap.String("op", "server.handleCreateSession"),
		zap.String("session", id),
		zap.String("visitor", visitorID),
	)
	h.writeJSON(w, http.StatusCreated, sessionResponse{ID: id, State: wz.Snapshot()})
}

// visitorID returns the visitor cookie, issuing a new one when absent.
func (h *handler) visitorID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(constants.VisitorCookieName); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return id
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.VisitorCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wz, err := h.sessions.Get(id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleGetSession")
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: wz.Snapshot()})
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleDeleteSession")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	Action     string   `json:"action"`
	Value      *float64 `json:"value,omitempty"`
	Auto       *bool    `json:"auto,omitempty"`
	Property   *bool    `json:"property,omitempty"`
	Collateral string   `json:"collateral,omitempty"`
}

type actionResponse struct {
	ID      string              `json:"id"`
	State   wizard.View         `json:"state"`
	Request *wizard.LoanRequest `json:"request,omitempty"`
}

func (h *handler) handleAction(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAction"

	id := r.PathValue("id")
	wz, err := h.sessions.Get(id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	var req actionRequest
	if status, err := h.decodeJSON(w, r, &req); err != nil {
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	resp := actionResponse{ID: id}
	if err := h.apply(r, wz, req, &resp); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	resp.State = wz.Snapshot()
	h.writeJSON(w, http.StatusOK, resp)
}

var errBadAction = errors.New("invalid action")

func (h *handler) apply(r *http.Request, wz *wizard.Wizard, req actionRequest, resp *actionResponse) error {
	var err error
	switch req.Action {
	case "next":
		err = wz.Next()
	case "back":
		err = wz.Back()
	case "restart":
		err = wz.Restart()
	case "setDesiredPayment":
		if req.Value == nil {
			return fmt.Errorf("%w: %s requires value", errBadAction, req.Action)
		}
		_, err = wz.SetDesiredPayment(*req.Value)
	case "setAssets":
		var assets offer.Assets
		if req.Auto != nil {
			assets.Auto = *req.Auto
		}
		if req.Property != nil {
			assets.Property = *req.Property
		}
		err = wz.SetAssets(assets)
	case "toggleAuto":
		err = wz.ToggleAuto()
	case "toggleProperty":
		err = wz.ToggleProperty()
	case "setAmount":
		if req.Value == nil {
			return fmt.Errorf("%w: %s requires value", errBadAction, req.Action)
		}
		_, err = wz.SetAmount(*req.Value)
	case "setTerm":
		if req.Value == nil {
			return fmt.Errorf("%w: %s requires value", errBadAction, req.Action)
		}
		// Bound before converting so huge values keep their sign.
		years := mathutil.Clamp(math.Round(*req.Value), math.MinInt32, math.MaxInt32)
		_, err = wz.SetTerm(int(years))
	case "chooseOffer":
		collateral, parseErr := offer.ParseCollateral(req.Collateral)
		if parseErr != nil {
			return fmt.Errorf("%w: %v", errBadAction, parseErr)
		}
		err = wz.ChooseOffer(collateral)
	case "submit":
		loanRequest, submitErr := wz.Submit(r.Context())
		if submitErr != nil {
			return submitError{submitErr}
		}
		resp.Request = &loanRequest
	default:
		return fmt.Errorf("%w: unknown action %q", errBadAction, req.Action)
	}
	return err
}

// submitError marks a Submit failure so that a sink outage maps to 502.
type submitError struct{ err error }

func (e submitError) Error() string { return e.err.Error() }
func (e submitError) Unwrap() error { return e.err }

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrLimitReached):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadAction), errors.Is(err, wizard.ErrUnknownOffer):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrFirstStep),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrOfferNotChosen),
		errors.Is(err, wizard.ErrSubmissionInFlight),
		errors.Is(err, wizard.ErrSubmitted):
		return http.StatusConflict
	}
	var se submitError
	if errors.As(err, &se) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a size-limited JSON body into dst and returns the status to
// respond with on failure.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds limit of %d bytes", h.maxBodySize)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err)
	}
	return http.StatusOK, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		level := zap.WarnLevel
		if status >= http.StatusInternalServerError {
			level = zap.ErrorLevel
		}
		h.logger.Check(level, "wizard request failed").Write(
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
