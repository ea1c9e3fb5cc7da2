package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iwvelando/loan-wizard/internal/analytics"
	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingSink keeps every lead it receives and fails while err is set.
type recordingSink struct {
	mu    sync.Mutex
	leads []analytics.Lead
	err   error
}

func (s *recordingSink) Send(_ context.Context, lead analytics.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.leads = append(s.leads, lead)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

func newWizard(t *testing.T, visitor string, sink analytics.Sink, flags store.FlagStore) *Wizard {
	t.Helper()
	w, err := New(context.Background(), Options{VisitorID: visitor, Sink: sink, Flags: flags})
	require.NoError(t, err)
	return w
}

// walkToOffers advances a fresh wizard to the offers step with the given inputs.
func walkToOffers(t *testing.T, w *Wizard, assets offer.Assets, amount float64, term int) {
	t.Helper()
	require.NoError(t, w.Next())
	require.NoError(t, w.SetAssets(assets))
	require.NoError(t, w.Next())
	_, err := w.SetAmount(amount)
	require.NoError(t, err)
	require.NoError(t, w.Next())
	_, err = w.SetTerm(term)
	require.NoError(t, err)
	require.NoError(t, w.Next())
	require.Equal(t, StepOffers, w.Snapshot().Step)
}

func TestNewDefaults(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	view := w.Snapshot()

	assert.Equal(t, StepDesiredPayment, view.Step)
	assert.Equal(t, "desiredPayment", view.StepConfig.Name)
	assert.Equal(t, 16_000.0, view.DesiredPayment)
	assert.Equal(t, 7_500_000.0, view.Amount)
	assert.Equal(t, 5, view.TermYears)
	assert.Equal(t, "7 500 000 ₽", view.AmountLabel)
	assert.Equal(t, "На 5 лет", view.TermLabel)
	assert.False(t, view.Submitted)
	assert.Nil(t, view.Chosen)
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	catalog := offer.DefaultCatalog()
	catalog.BaseMaxTerm = 0

	_, err := New(context.Background(), Options{Catalog: &catalog})
	assert.Error(t, err)
}

func TestStepsStayInRange(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)

	assert.ErrorIs(t, w.Back(), ErrFirstStep)
	assert.Equal(t, FirstStep, w.Snapshot().Step)

	for i := 0; i < int(StepOffers); i++ {
		require.NoError(t, w.Next())
	}
	assert.ErrorIs(t, w.Next(), ErrOfferNotChosen)
	assert.Equal(t, StepOffers, w.Snapshot().Step)

	require.NoError(t, w.ChooseOffer(offer.CollateralNone))
	assert.Equal(t, LastStep, w.Snapshot().Step)
	assert.ErrorIs(t, w.Next(), ErrLastStep)
	assert.Equal(t, LastStep, w.Snapshot().Step)

	for i := 0; i < int(LastStep); i++ {
		require.NoError(t, w.Back())
		assert.True(t, w.Snapshot().Step.Valid())
	}
	assert.ErrorIs(t, w.Back(), ErrFirstStep)
}

func TestNextFromOffersAfterChoice(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	walkToOffers(t, w, offer.Assets{}, 1_000_000, 3)

	require.NoError(t, w.ChooseOffer(offer.CollateralAuto))
	require.NoError(t, w.Back())
	require.NoError(t, w.Next(), "a previous choice lets the offers step advance")
	assert.Equal(t, StepReview, w.Snapshot().Step)
}

func TestSettersRequireTheirStep(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)

	_, err := w.SetAmount(100_000)
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = w.SetTerm(3)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.ErrorIs(t, w.ToggleAuto(), ErrWrongStep)
	assert.ErrorIs(t, w.ChooseOffer(offer.CollateralNone), ErrWrongStep)
	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)

	require.NoError(t, w.Next())
	_, err = w.SetDesiredPayment(20_000)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestInputsAreClamped(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)

	got, err := w.SetDesiredPayment(1_000)
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, got)
	got, err = w.SetDesiredPayment(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 250_000.0, got)
	got, err = w.SetDesiredPayment(42_000)
	require.NoError(t, err)
	assert.Equal(t, 42_000.0, got)

	require.NoError(t, w.Next())
	require.NoError(t, w.Next())

	amount, err := w.SetAmount(50_000_000)
	require.NoError(t, err)
	assert.Equal(t, 7_500_000.0, amount)
	amount, err = w.SetAmount(-5)
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, amount)

	require.NoError(t, w.Next())
	term, err := w.SetTerm(0)
	require.NoError(t, err)
	assert.Equal(t, 1, term)
	term, err = w.SetTerm(40)
	require.NoError(t, err)
	assert.Equal(t, 5, term)
}

func TestCollateralRecomputesBounds(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	require.NoError(t, w.Next())

	require.NoError(t, w.ToggleProperty())
	view := w.Snapshot()
	assert.Equal(t, offer.Assets{Property: true}, view.Assets)
	assert.Equal(t, 30_000_000.0, view.Bounds.MaxAmount)
	assert.Equal(t, 15, view.Bounds.MaxTerm)
	assert.Equal(t, 30_000_000.0, view.Amount)
	assert.Equal(t, 15, view.TermYears)

	require.NoError(t, w.ToggleAuto())
	view = w.Snapshot()
	assert.Equal(t, 30_000_000.0, view.Amount, "auto alongside property keeps the property bounds")

	require.NoError(t, w.ToggleProperty())
	view = w.Snapshot()
	assert.Equal(t, offer.Assets{Auto: true}, view.Assets)
	assert.Equal(t, 7_500_000.0, view.Amount)
	assert.Equal(t, 5, view.TermYears)
	assert.True(t, view.Bounds.Contains(view.Amount, view.TermYears))
}

func TestCollateralChangeForgetsChoice(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	walkToOffers(t, w, offer.Assets{Property: true}, 20_000_000, 10)
	require.NoError(t, w.ChooseOffer(offer.CollateralProperty))

	for w.Snapshot().Step != StepCollateral {
		require.NoError(t, w.Back())
	}
	require.NoError(t, w.SetAssets(offer.Assets{}))
	assert.Nil(t, w.Snapshot().Chosen)

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Next())
	}
	assert.ErrorIs(t, w.Next(), ErrOfferNotChosen)
}

func TestSnapshotOffers(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	walkToOffers(t, w, offer.Assets{Auto: true}, 7_500_000, 5)

	view := w.Snapshot()
	require.Len(t, view.Offers.Eligible, 2)
	require.Len(t, view.Offers.Suggested, 1)
	assert.Equal(t, offer.CollateralNone, view.Offers.Eligible[0].Collateral)
	assert.Equal(t, offer.CollateralAuto, view.Offers.Eligible[1].Collateral)
	assert.Equal(t, offer.CollateralProperty, view.Offers.Suggested[0].Collateral)

	require.NoError(t, w.ChooseOffer(offer.CollateralAuto))
	view = w.Snapshot()
	require.NotNil(t, view.Chosen)
	assert.Equal(t, offer.CollateralAuto, view.Chosen.Collateral)
	assert.InDelta(t, 229014.96, view.Chosen.MonthlyPayment, 0.01)
}

func TestChooseUnknownOffer(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	walkToOffers(t, w, offer.Assets{}, 100_000, 2)

	assert.ErrorIs(t, w.ChooseOffer(offer.Collateral(9)), ErrUnknownOffer)
	assert.Equal(t, StepOffers, w.Snapshot().Step)
}

func TestSubmitOnceAndPersist(t *testing.T) {
	sink := &recordingSink{}
	flags := store.NewMemoryStore()
	w := newWizard(t, "visitor-42", sink, flags)

	_, err := w.SetDesiredPayment(30_000)
	require.NoError(t, err)
	walkToOffers(t, w, offer.Assets{}, 7_500_000, 5)
	require.NoError(t, w.ChooseOffer(offer.CollateralNone))

	req, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoanRequest{Amount: 7_500_000, TermYears: 5, Collateral: offer.CollateralNone}, req)
	assert.True(t, w.Snapshot().Submitted)

	require.Equal(t, 1, sink.count())
	lead := sink.leads[0]
	assert.Equal(t, "visitor-42", lead.VisitorID)
	assert.Equal(t, "7500000.00", lead.LoanSum)
	assert.Equal(t, 5, lead.Term)
	assert.Equal(t, "260918.55", lead.MonthlyPayment)
	assert.Equal(t, "nothing", lead.ChosenOption)
	assert.Equal(t, 30_000.0, lead.DesiredPayment)

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitted)
	assert.ErrorIs(t, w.Back(), ErrSubmitted)
	assert.ErrorIs(t, w.Restart(), ErrSubmitted)
	assert.Equal(t, 1, sink.count())

	done, err := flags.Completed(context.Background(), "visitor-42")
	require.NoError(t, err)
	assert.True(t, done)

	reloaded := newWizard(t, "visitor-42", sink, flags)
	assert.True(t, reloaded.Snapshot().Submitted, "a returning visitor skips the wizard")
	assert.ErrorIs(t, reloaded.Next(), ErrSubmitted)

	stranger := newWizard(t, "visitor-43", sink, flags)
	assert.False(t, stranger.Snapshot().Submitted)
}

func TestSubmitFailureKeepsReview(t *testing.T) {
	sink := &recordingSink{err: errors.New("collector unavailable")}
	flags := store.NewMemoryStore()
	w := newWizard(t, "visitor-7", sink, flags)
	walkToOffers(t, w, offer.Assets{Property: true}, 30_000_000, 15)
	require.NoError(t, w.ChooseOffer(offer.CollateralProperty))

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector unavailable")

	view := w.Snapshot()
	assert.Equal(t, StepReview, view.Step)
	assert.False(t, view.Submitted)
	assert.False(t, view.Submitting)
	done, err := flags.Completed(context.Background(), "visitor-7")
	require.NoError(t, err)
	assert.False(t, done)

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	req, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, offer.CollateralProperty, req.Collateral)
	assert.Equal(t, "property", sink.leads[0].ChosenOption)
	assert.Equal(t, "712853.57", sink.leads[0].MonthlyPayment)
}

func TestSubmitInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	sink := analytics.SinkFunc(func(context.Context, analytics.Lead) error {
		close(entered)
		<-release
		return nil
	})

	w := newWizard(t, "visitor-9", sink, nil)
	walkToOffers(t, w, offer.Assets{}, 500_000, 2)
	require.NoError(t, w.ChooseOffer(offer.CollateralNone))

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		errCh <- err
	}()
	<-entered

	assert.True(t, w.Snapshot().Submitting)
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, w.Restart(), ErrSubmissionInFlight)
	assert.ErrorIs(t, w.Back(), ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-errCh)

	view := w.Snapshot()
	assert.False(t, view.Submitting)
	assert.True(t, view.Submitted)
}

// failingFlags accepts reads and fails every write.
type failingFlags struct {
	*store.MemoryStore
}

func (f *failingFlags) MarkCompleted(context.Context, string) error {
	return errors.New("disk full")
}

func TestSubmitSurvivesFlagWriteFailure(t *testing.T) {
	sink := &recordingSink{}
	w := newWizard(t, "visitor-5", sink, &failingFlags{MemoryStore: store.NewMemoryStore()})
	walkToOffers(t, w, offer.Assets{}, 100_000, 1)
	require.NoError(t, w.ChooseOffer(offer.CollateralNone))

	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Snapshot().Submitted)
	assert.Equal(t, 1, sink.count())
}

func TestAnonymousVisitorIsNotPersisted(t *testing.T) {
	flags := store.NewMemoryStore()
	w := newWizard(t, "", nil, flags)
	walkToOffers(t, w, offer.Assets{}, 100_000, 1)
	require.NoError(t, w.ChooseOffer(offer.CollateralNone))

	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Snapshot().Submitted)
	assert.Empty(t, w.VisitorID())
}

func TestRestartKeepsValues(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	walkToOffers(t, w, offer.Assets{Auto: true}, 2_000_000, 4)
	require.NoError(t, w.ChooseOffer(offer.CollateralAuto))

	require.NoError(t, w.Restart())
	view := w.Snapshot()
	assert.Equal(t, FirstStep, view.Step)
	assert.Equal(t, 2_000_000.0, view.Amount)
	assert.Equal(t, 4, view.TermYears)
	assert.Equal(t, offer.Assets{Auto: true}, view.Assets)
}

func TestRestartOnlyFromReview(t *testing.T) {
	w := newWizard(t, "v1", nil, nil)
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.Equal(t, StepAmount, w.Snapshot().Step)

	assert.ErrorIs(t, w.Restart(), ErrWrongStep)
	assert.Equal(t, StepAmount, w.Snapshot().Step, "restart must not skip steps")

	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	assert.ErrorIs(t, w.Restart(), ErrWrongStep, "offers step cannot restart either")
}

func TestWhitespaceVisitorIsAnonymous(t *testing.T) {
	sink := &recordingSink{}
	flags := store.NewMemoryStore()
	w := newWizard(t, "   ", sink, flags)
	assert.Empty(t, w.VisitorID())

	walkToOffers(t, w, offer.Assets{}, 100_000, 1)
	require.NoError(t, w.ChooseOffer(offer.CollateralNone))
	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Snapshot().Submitted)
	assert.Equal(t, 1, sink.count())
}

func TestStepConfig(t *testing.T) {
	names := []string{"desiredPayment", "collateral", "amount", "term", "offers", "review"}
	for i, name := range names {
		step := Step(i)
		assert.True(t, step.Valid())
		assert.Equal(t, name, step.String())
		assert.Equal(t, step, step.Config().Step)
		assert.NotEmpty(t, step.Config().Title)
	}
	assert.False(t, Step(6).Valid())
	assert.False(t, Step(-1).Valid())
	assert.Equal(t, "step(6)", Step(6).String())
}
