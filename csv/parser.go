package csv

import "context"

// Parser defines the interface for parsing invoice CSV data.
type Parser interface {
	Parse(ctx context.Context, filePath string) ([]Invoice, []RowError, error)
}

// InvoiceParser implements Parser on top of ParseInvoices.
type InvoiceParser struct{}

// NewInvoiceParser creates a new InvoiceParser.
func NewInvoiceParser() *InvoiceParser {
	return &InvoiceParser{}
}

// Parse reads the invoices CSV file at filePath.
func (p *InvoiceParser) Parse(ctx context.Context, filePath string) ([]Invoice, []RowError, error) {
	return ParseInvoices(ctx, filePath)
}
