package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iwvelando/loan-wizard/internal/analytics"
	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/internal/store"
	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/iwvelando/loan-wizard/pkg/format"
	"go.uber.org/zap"
)

var (
	ErrWrongStep          = errors.New("action is not available at the current step")
	ErrFirstStep          = errors.New("already at the first step")
	ErrLastStep           = errors.New("already at the last step")
	ErrOfferNotChosen     = errors.New("no offer has been chosen")
	ErrUnknownOffer       = errors.New("unknown offer")
	ErrSubmissionInFlight = errors.New("submission is in progress")
	ErrSubmitted          = errors.New("wizard has already been submitted")
)

// LoanRequest is the confirmed offer handed to the analytics sink.
type LoanRequest struct {
	Amount     float64          `json:"amount"`
	TermYears  int              `json:"termYears"`
	Collateral offer.Collateral `json:"collateral"`
}

// Options configures a Wizard. Zero values select the default catalog, a
// discarding sink and an in-memory flag store.
type Options struct {
	VisitorID string
	Catalog   *offer.Catalog
	Sink      analytics.Sink
	Flags     store.FlagStore
	Logger    *zap.Logger
}

// Wizard is the state of one visitor walking through the form. It is safe
// for concurrent use.
type Wizard struct {
	visitorID string
	catalog   offer.Catalog
	sink      analytics.Sink
	flags     store.FlagStore
	logger    *zap.Logger

	mu             sync.Mutex
	step           Step
	desiredPayment float64
	assets         offer.Assets
	amount         float64
	term           int
	chosen         offer.Collateral
	hasChoice      bool
	submitting     bool
	submitted      bool
}

// New starts a wizard for opts.VisitorID. A visitor already marked completed
// in the flag store starts in the submitted state. An empty VisitorID is an
// anonymous visitor whose completion is not persisted.
func New(ctx context.Context, opts Options) (*Wizard, error) {
	catalog := offer.DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	w := &Wizard{
		visitorID: strings.TrimSpace(opts.VisitorID),
		catalog:   catalog,
		sink:      opts.Sink,
		flags:     opts.Flags,
		logger:    opts.Logger,
	}
	if w.sink == nil {
		w.sink = analytics.Discard
	}
	if w.flags == nil {
		w.flags = store.NewMemoryStore()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.logger = w.logger.With(zap.String("visitor", w.visitorID))

	bounds := catalog.BoundsFor(offer.Assets{})
	w.step = FirstStep
	w.desiredPayment = catalog.ClampDesiredPayment(constants.DefaultDesiredPayment)
	w.amount = bounds.MaxAmount
	w.term = bounds.MaxTerm

	if w.visitorID != "" {
		done, err := w.flags.Completed(ctx, w.visitorID)
		if err != nil {
			return nil, fmt.Errorf("failed to read completion flag: %w", err)
		}
		w.submitted = done
	}

	return w, nil
}

// VisitorID returns the visitor the wizard belongs to.
func (w *Wizard) VisitorID() string {
	return w.visitorID
}

// mutable reports why the state cannot change, if it cannot. Callers hold mu.
func (w *Wizard) mutable() error {
	if w.submitted {
		return ErrSubmitted
	}
	if w.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (w *Wizard) requireStep(step Step) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if w.step != step {
		return fmt.Errorf("%w: %s requires %s", ErrWrongStep, w.step, step)
	}
	return nil
}

// Next advances one step. The offers step advances only once an offer has
// been chosen; the review step has no successor.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	switch w.step {
	case LastStep:
		return ErrLastStep
	case StepOffers:
		if !w.hasChoice {
			return ErrOfferNotChosen
		}
	}
	w.step++
	return nil
}

// Back returns to the previous step.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	if w.step == FirstStep {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// Restart returns from review to the first step keeping every entered value.
func (w *Wizard) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepReview); err != nil {
		return err
	}
	w.step = FirstStep
	return nil
}

// SetDesiredPayment sets the target monthly payment and returns the clamped value.
func (w *Wizard) SetDesiredPayment(amount float64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepDesiredPayment); err != nil {
		return w.desiredPayment, err
	}
	w.desiredPayment = w.catalog.ClampDesiredPayment(amount)
	return w.desiredPayment, nil
}

// SetAssets declares the visitor's collateral. A change recomputes the
// bounds, moves amount and term to the new maxima and forgets any chosen offer.
func (w *Wizard) SetAssets(assets offer.Assets) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepCollateral); err != nil {
		return err
	}
	w.setAssets(assets)
	return nil
}

// ToggleAuto flips the declared car ownership.
func (w *Wizard) ToggleAuto() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepCollateral); err != nil {
		return err
	}
	next := w.assets
	next.Auto = !next.Auto
	w.setAssets(next)
	return nil
}

// ToggleProperty flips the declared real estate ownership.
func (w *Wizard) ToggleProperty() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepCollateral); err != nil {
		return err
	}
	next := w.assets
	next.Property = !next.Property
	w.setAssets(next)
	return nil
}

func (w *Wizard) setAssets(assets offer.Assets) {
	if assets == w.assets {
		return
	}
	w.assets = assets
	bounds := w.catalog.BoundsFor(assets)
	w.amount = bounds.MaxAmount
	w.term = bounds.MaxTerm
	w.hasChoice = false

	w.logger.Debug("collateral changed",
		zap.String("op", "wizard.SetAssets"),
		zap.Bool("auto", assets.Auto),
		zap.Bool("property", assets.Property),
		zap.Float64("maxAmount", bounds.MaxAmount),
		zap.Int("maxTerm", bounds.MaxTerm),
	)
}

// SetAmount sets the loan amount and returns the clamped value.
func (w *Wizard) SetAmount(amount float64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepAmount); err != nil {
		return w.amount, err
	}
	w.amount = w.catalog.BoundsFor(w.assets).ClampAmount(amount)
	return w.amount, nil
}

// SetTerm sets the term in years and returns the clamped value.
func (w *Wizard) SetTerm(years int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepTerm); err != nil {
		return w.term, err
	}
	w.term = w.catalog.BoundsFor(w.assets).ClampTerm(years)
	return w.term, nil
}

// ChooseOffer picks the offer for collateral and moves to review. Offers from
// the "may suit" section can be chosen too.
func (w *Wizard) ChooseOffer(collateral offer.Collateral) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepOffers); err != nil {
		return err
	}
	if !collateral.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownOffer, int(collateral))
	}
	w.chosen = collateral
	w.hasChoice = true
	w.step = StepReview
	return nil
}

// Submit sends the chosen offer to the analytics sink. While the sink call is
// in flight every other mutation, including a second Submit, fails with
// ErrSubmissionInFlight. A sink failure keeps the wizard at review so Submit
// can be retried; success enters the submitted state and persists it.
func (w *Wizard) Submit(ctx context.Context) (LoanRequest, error) {
	w.mu.Lock()
	if err := w.requireStep(StepReview); err != nil {
		w.mu.Unlock()
		return LoanRequest{}, err
	}
	if !w.hasChoice {
		w.mu.Unlock()
		return LoanRequest{}, ErrOfferNotChosen
	}
	req := LoanRequest{Amount: w.amount, TermYears: w.term, Collateral: w.chosen}
	quote := w.catalog.Quote(req.Collateral, req.Amount, req.TermYears)
	lead := analytics.NewLead(w.visitorID, req.Amount, req.TermYears, quote.MonthlyPayment, req.Collateral.AnalyticsOption())
	lead.DesiredPayment = w.desiredPayment
	w.submitting = true
	w.mu.Unlock()

	if err := w.sink.Send(ctx, lead); err != nil {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()

		w.logger.Warn("lead submission failed",
			zap.String("op", "wizard.Submit"),
			zap.Error(err),
		)
		return LoanRequest{}, fmt.Errorf("failed to submit lead: %w", err)
	}

	if w.visitorID != "" {
		if err := w.flags.MarkCompleted(ctx, w.visitorID); err != nil {
			// The lead was accepted; a returning visitor will see the form again.
			w.logger.Warn("failed to persist completion flag",
				zap.String("op", "wizard.Submit"),
				zap.Error(err),
			)
		}
	}

	w.mu.Lock()
	w.submitting = false
	w.submitted = true
	w.mu.Unlock()

	w.logger.Info("lead submitted",
		zap.String("op", "wizard.Submit"),
		zap.Float64("amount", req.Amount),
		zap.Int("termYears", req.TermYears),
		zap.String("collateral", req.Collateral.String()),
	)
	return req, nil
}

// View is an immutable snapshot of a Wizard.
type View struct {
	VisitorID      string         `json:"visitorId,omitempty"`
	Step           Step           `json:"step"`
	StepConfig     StepConfig     `json:"stepConfig"`
	DesiredPayment float64        `json:"desiredPayment"`
	Assets         offer.Assets   `json:"assets"`
	Amount         float64        `json:"amount"`
	AmountLabel    string         `json:"amountLabel"`
	TermYears      int            `json:"termYears"`
	TermLabel      string         `json:"termLabel"`
	Bounds         offer.Bounds   `json:"bounds"`
	Offers         offer.OfferSet `json:"offers"`
	Chosen         *offer.Offer   `json:"chosen,omitempty"`
	Submitting     bool           `json:"submitting"`
	Submitted      bool           `json:"submitted"`
}

// Snapshot returns the current state.
func (w *Wizard) Snapshot() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	offers := w.catalog.Offers(w.assets, w.amount, w.term)
	view := View{
		VisitorID:      w.visitorID,
		Step:           w.step,
		StepConfig:     w.step.Config(),
		DesiredPayment: w.desiredPayment,
		Assets:         w.assets,
		Amount:         w.amount,
		AmountLabel:    format.Rubles(w.amount),
		TermYears:      w.term,
		TermLabel:      format.TermLabel(w.term),
		Bounds:         offers.Bounds,
		Offers:         offers,
		Submitting:     w.submitting,
		Submitted:      w.submitted,
	}
	if w.hasChoice {
		if chosen, ok := offers.Find(w.chosen); ok {
			view.Chosen = &chosen
		}
	}
	return view
}
