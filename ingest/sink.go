// Package ingest orchestrates one billing run: load the invoices file, map
// each row, and create the remote objects through the API client.
package ingest

import (
	"context"
	"fmt"

	"billogram/invoiceloader/appcontext"
	"billogram/invoiceloader/billogram"
	"billogram/invoiceloader/config"
	invoicecsv "billogram/invoiceloader/csv"
)

// Mapper converts a parsed invoice row into API payloads.
type Mapper interface {
	Map(inv invoicecsv.Invoice) (*billogram.Request, error)
}

// Invoker defines the API operations one billing run needs.
type Invoker interface {
	VerifyCredentials(ctx context.Context) error
	GetCustomer(ctx context.Context, customerNo string) (*billogram.CreatedCustomer, error)
	CreateCustomer(ctx context.Context, customer billogram.Customer) (*billogram.CreatedCustomer, error)
	CreateBillogram(ctx context.Context, bg billogram.Billogram) (*billogram.CreatedBillogram, error)
}

// SinkDependencies holds all the dependencies for the Sink.
type SinkDependencies struct {
	Config *config.Config
	Parser invoicecsv.Parser
	Mapper Mapper
	Client Invoker
}

// Sink runs the billing process over the configured invoices file. Rows are
// processed one at a time, in file order; a failed row is recorded and the
// run continues with the next row. Only a file-level failure or rejected
// credentials abort the run.
type Sink struct {
	deps         SinkDependencies
	InvoicesFile string
}

// NewSink creates a new Sink instance.
func NewSink(deps SinkDependencies) *Sink {
	return &Sink{
		deps:         deps,
		InvoicesFile: deps.Config.InvoicesFile,
	}
}

// Run handles the main billing process. The returned Stats describe every
// row's outcome; err is non-nil only when the run aborted.
func (s *Sink) Run(ctx context.Context) (*Stats, error) {
	logger := appcontext.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "Starting billing run", "file", s.InvoicesFile)

	// A bad credential pair fails every row the same way, so check once
	// before touching the file.
	if err := s.deps.Client.VerifyCredentials(ctx); err != nil {
		logger.ErrorContext(ctx, "Credential check failed", "error", err)
		return nil, fmt.Errorf("credential check failed: %w", err)
	}
	logger.InfoContext(ctx, "Credentials verified against the Billogram API")

	invoices, rowErrors, err := s.deps.Parser.Parse(ctx, s.InvoicesFile)
	if err != nil {
		logger.ErrorContext(ctx, "Error reading invoices file", "error", err)
		return nil, fmt.Errorf("reading invoices file failed: %w", err)
	}

	stats := NewStats()
	stats.TotalRows = len(invoices) + len(rowErrors)
	logger.InfoContext(ctx, "Parsed invoices file", "runID", stats.RunID, "rows", stats.TotalRows)

	for _, rowErr := range rowErrors {
		stats.AddFailure(rowErr.Line, "", rowErr.Err)
		logger.WarnContext(ctx, "Row was not processed", "line", rowErr.Line, "reason", rowErr.Err)
	}

	for _, inv := range invoices {
		created, err := s.processInvoice(ctx, inv)
		if err != nil {
			// Rejected credentials mid-run mean no further row can
			// succeed, so stop instead of failing every remaining row.
			if billogram.IsAuthentication(err) {
				stats.AddFailure(inv.Line, inv.InvoiceNumber, err)
				logger.ErrorContext(ctx, "Aborting run, credentials rejected", "line", inv.Line, "error", err)
				return stats, fmt.Errorf("credentials rejected during run: %w", err)
			}
			stats.AddFailure(inv.Line, inv.InvoiceNumber, err)
			logger.ErrorContext(ctx, "Failed to process invoice", "line", inv.Line, "invoice", inv.InvoiceNumber, "error", err)
			continue
		}
		stats.AddSuccess(inv.Line, inv.InvoiceNumber, created.ID)
		logger.InfoContext(ctx, "Billogram created and sent", "line", inv.Line, "invoice", inv.InvoiceNumber, "id", created.ID)
	}

	return stats, nil
}

// processInvoice maps one row, ensures its customer exists remotely, and
// creates the billogram.
func (s *Sink) processInvoice(ctx context.Context, inv invoicecsv.Invoice) (*billogram.CreatedBillogram, error) {
	logger := appcontext.LoggerFromContext(ctx)

	req, err := s.deps.Mapper.Map(inv)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCustomer(ctx, req.Customer); err != nil {
		return nil, err
	}

	created, err := s.deps.Client.CreateBillogram(ctx, req.Billogram)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Created billogram", "id", created.ID, "invoice", req.Billogram.InvoiceNo)
	return created, nil
}

// ensureCustomer looks the customer up by number and creates it when missing.
// Existing customers are left untouched.
func (s *Sink) ensureCustomer(ctx context.Context, customer billogram.Customer) error {
	logger := appcontext.LoggerFromContext(ctx)

	found, err := s.deps.Client.GetCustomer(ctx, customer.CustomerNo)
	if err == nil {
		logger.InfoContext(ctx, "Found customer", "customerNo", found.CustomerNo)
		return nil
	}
	if !billogram.IsCustomerNotFound(err) {
		return err
	}

	created, err := s.deps.Client.CreateCustomer(ctx, customer)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Created customer", "customerNo", created.CustomerNo)

	return nil
}
