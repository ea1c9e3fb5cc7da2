package main

import (
	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/iwvelando/loan-wizard/pkg/output"
	"github.com/iwvelando/loan-wizard/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type quoteOptions struct {
	amount       float64
	termYears    int
	auto         bool
	property     bool
	outputFormat string
}

func newQuoteCmd(a *app) *cobra.Command {
	opts := &quoteOptions{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the offers for an amount and term",
		Long: `Prices every collateral tier for the requested amount and term.

Values outside the limits of the declared collateral are clamped. Without
--amount and --term the maximum amount and term are quoted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, a, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.amount, "amount", 0, "loan amount in roubles")
	cmd.Flags().IntVar(&opts.termYears, "term", 0, "loan term in years")
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "the borrower owns a car")
	cmd.Flags().BoolVar(&opts.property, "property", false, "the borrower owns real estate")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv")
	return cmd
}

func runQuote(cmd *cobra.Command, a *app, opts *quoteOptions) error {
	// Determine output format (CLI override takes precedence over config)
	outputFormat := a.conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	catalog := a.conf.Catalog()
	assets := offer.Assets{Auto: opts.auto, Property: opts.property}
	bounds := catalog.BoundsFor(assets)

	amount := bounds.MaxAmount
	if cmd.Flags().Changed("amount") {
		amount = opts.amount
	}
	term := bounds.MaxTerm
	if cmd.Flags().Changed("term") {
		term = opts.termYears
	}
	if err := validation.ValidateLoanInput(amount, term); err != nil {
		return err
	}

	limits := validation.LoanRange{
		MinAmount: bounds.MinAmount,
		MaxAmount: bounds.MaxAmount,
		MinTerm:   bounds.MinTerm,
		MaxTerm:   bounds.MaxTerm,
	}
	for _, warning := range validation.ClampWarnings(limits, amount, term) {
		a.logger.Warn(warning,
			zap.String("op", "main.runQuote"),
		)
	}

	set := catalog.Offers(assets, amount, term)
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(cmd.OutOrStdout(), set)
	case constants.OutputFormatCSV:
		output.CsvFormat(cmd.OutOrStdout(), set)
	}
	return nil
}
