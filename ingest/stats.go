package ingest

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// InvocationResult is the outcome of one invoice row: either the id of the
// created billogram or the error that stopped the row.
type InvocationResult struct {
	Line          int
	InvoiceNumber string
	BillogramID   string
	Err           error
}

// Stats holds the per-row results of one billing run.
type Stats struct {
	RunID     string
	TotalRows int
	Succeeded int
	Failed    int
	Results   []InvocationResult
}

// NewStats creates and initializes a new Stats object with a fresh run id.
func NewStats() *Stats {
	return &Stats{
		RunID: uuid.NewString(),
	}
}

// AddSuccess records a row whose billogram was created.
func (s *Stats) AddSuccess(line int, invoiceNumber, billogramID string) {
	s.Succeeded++
	s.Results = append(s.Results, InvocationResult{
		Line:          line,
		InvoiceNumber: invoiceNumber,
		BillogramID:   billogramID,
	})
}

// AddFailure records a row that could not be billed and why.
func (s *Stats) AddFailure(line int, invoiceNumber string, err error) {
	s.Failed++
	s.Results = append(s.Results, InvocationResult{
		Line:          line,
		InvoiceNumber: invoiceNumber,
		Err:           err,
	})
}

// Log prints the final statistics to the provided logger.
func (s *Stats) Log(logger *slog.Logger) {
	logger.Info("--- Billing Run Stats ---")
	logger.Info(fmt.Sprintf("Run id: %s", s.RunID))
	logger.Info(fmt.Sprintf("Total rows found: %d", s.TotalRows))
	logger.Info(fmt.Sprintf("Billograms created: %d", s.Succeeded))
	logger.Info(fmt.Sprintf("Rows failed/skipped: %d", s.Failed))
	if s.Failed > 0 {
		logger.Info("Failed rows:")
		for _, result := range s.Results {
			if result.Err != nil {
				logger.Info(fmt.Sprintf("- line %d (%s): %s", result.Line, result.InvoiceNumber, result.Err))
			}
		}
	}
	logger.Info("-------------------------")
}
