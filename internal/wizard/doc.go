// Package wizard implements the loan calculator wizard: six ordered steps
// (desired payment, collateral, amount, term, offers, review) followed by a
// terminal submitted state.
//
// Every numeric input is clamped into the bounds active for the declared
// collateral when it is set, so the amount and term held by a Wizard are
// always within range. Changing the collateral resets the amount and term to
// the new maxima.
//
// Submission sends a lead to an analytics.Sink and, once the sink accepts it,
// records the visitor in a store.FlagStore so that a returning visitor starts
// directly in the submitted state.
package wizard
