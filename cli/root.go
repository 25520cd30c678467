// Package cli wires the loader together behind a single root command.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"billogram/invoiceloader/appcontext"
	"billogram/invoiceloader/billogram"
	"billogram/invoiceloader/config"
	invoicecsv "billogram/invoiceloader/csv"
	"billogram/invoiceloader/ingest"
	"billogram/invoiceloader/synthetic"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var invoicesFile string
	var sampleRows int
	var sampleDir string

	cmd := &cobra.Command{
		Use:     "invoice-loader",
		Short:   "Create Billogram billing objects from an invoices CSV file",
		Long:    "invoice-loader reads invoice rows from a CSV file and creates one billogram per row via the Billogram API. It exits non-zero if any row fails.",
		Version: fmt.Sprintf("%s (%s)", version, commit),

		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), invoicesFile, sampleRows, sampleDir)
		},
	}
	cmd.Flags().StringVar(&invoicesFile, "file", "", "Path to the invoices CSV file (overrides INVOICES_FILE)")
	cmd.Flags().IntVar(&sampleRows, "sample-rows", 0, "Write a sample invoices.csv with this many rows and exit")
	cmd.Flags().StringVar(&sampleDir, "sample-dir", "testdata", "Directory to write the sample file to")

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func run(ctx context.Context, invoicesFile string, sampleRows int, sampleDir string) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx = appcontext.WithLogger(ctx, logger)

	cfg := config.LoadConfig(ctx, logger)
	if invoicesFile != "" {
		cfg.InvoicesFile = invoicesFile
	}

	if sampleRows > 0 {
		path, err := synthetic.GenerateSampleInvoices(sampleRows, sampleDir)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to generate sample invoices", "error", err)
			return fmt.Errorf("failed to generate sample invoices: %w", err)
		}
		logger.InfoContext(ctx, "Sample invoices written", "file", path, "rows", sampleRows)
		return nil
	}

	if cfg.APIUser == "" || cfg.APIPassword == "" {
		err := billogram.AuthenticationError("API_USER and API_PASSWORD must be set")
		logger.ErrorContext(ctx, "Missing API credentials", "error", err)
		return err
	}

	client, err := billogram.NewAPIClient(
		&http.Client{Timeout: cfg.RequestTimeout},
		cfg.BaseURL,
		cfg.APIUser,
		cfg.APIPassword,
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create API client", "error", err)
		return err
	}

	sink := ingest.NewSink(ingest.SinkDependencies{
		Config: cfg,
		Parser: invoicecsv.NewInvoiceParser(),
		Mapper: billogram.NewMapper(cfg.VATRate),
		Client: client,
	})

	stats, err := sink.Run(ctx)
	if stats != nil {
		stats.Log(logger)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Billing run aborted", "error", err)
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed", stats.Failed, stats.TotalRows)
	}

	logger.InfoContext(ctx, "Billing run completed successfully")
	return nil
}
