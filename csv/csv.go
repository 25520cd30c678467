package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"billogram/invoiceloader/appcontext"
)

// Invoice represents a single row from the invoices CSV file.
// Field values are kept raw; typed validation happens in the mapper.
type Invoice struct {
	// Line is the 1-based line number in the file, header included.
	Line           int
	InvoiceNumber  string
	CustomerNumber string
	Name           string
	Email          string
	PhoneNumber    string
	StreetAddress  string
	PostalCode     string
	City           string
	ArticleName    string
	ArticlePrice   string
}

// RowError records a row that could not be parsed, with its line number.
type RowError struct {
	Line int
	Err  error
}

// requiredColumns is the column contract agreed with the upstream data source.
var requiredColumns = []string{
	"invoice_number",
	"customer_number",
	"name",
	"email",
	"phone_number",
	"street_address",
	"postal_code",
	"city",
	"article_name",
	"article_price",
}

var errFileAccess = errors.New("cannot access invoices file")
var errParse = errors.New("row does not match the expected column layout")
var errMissingColumn = errors.New("required column missing from header")

// FileAccessError wraps errFileAccess with the failing path.
func FileAccessError(path string, baseErr error) error {
	return fmt.Errorf("%w %s: %w", errFileAccess, path, baseErr)
}

// ParseError wraps errParse with a reason.
func ParseError(reason string) error {
	return fmt.Errorf("%w: %s", errParse, reason)
}

// MissingColumnError wraps errMissingColumn with the column name.
func MissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", errMissingColumn, column)
}

// IsFileAccess reports whether err means the file could not be opened or read.
func IsFileAccess(err error) bool {
	return errors.Is(err, errFileAccess)
}

// IsParse reports whether err is a row-level parse failure.
func IsParse(err error) bool {
	return errors.Is(err, errParse)
}

// ParseInvoices reads the invoices CSV file at filePath and returns one
// Invoice per well-formed row. Rows that do not match the column layout are
// returned as RowErrors so the caller can report them; they do not stop the
// parse. A missing file or a header that violates the column contract is a
// file-level error.
func ParseInvoices(ctx context.Context, filePath string) ([]Invoice, []RowError, error) {
	logger := appcontext.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "Parsing invoices from csv", "filePath", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, FileAccessError(filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.Comma = ','

	// Read header and create column index map.
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil // Handle empty file gracefully
		}
		return nil, nil, FileAccessError(filePath, err)
	}
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, nil, MissingColumnError(col)
		}
	}

	var invoices []Invoice
	var rowErrors []RowError
	line := 1 // header

	for {
		record, readErr := reader.Read()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			line++
			rowErrors = append(rowErrors, RowError{Line: line, Err: ParseError(readErr.Error())})
			logger.WarnContext(ctx, "Skipping unreadable record", "line", line, "error", readErr)
			continue
		}
		line++

		if len(record) < len(header) {
			rowErrors = append(rowErrors, RowError{Line: line, Err: ParseError("not enough columns")})
			logger.WarnContext(ctx, "Skipping invalid record", "reason", "not enough columns", "line", line)
			continue
		}

		invoices = append(invoices, Invoice{
			Line:           line,
			InvoiceNumber:  safeGet(record, colIndex["invoice_number"]),
			CustomerNumber: safeGet(record, colIndex["customer_number"]),
			Name:           safeGet(record, colIndex["name"]),
			Email:          safeGet(record, colIndex["email"]),
			PhoneNumber:    safeGet(record, colIndex["phone_number"]),
			StreetAddress:  safeGet(record, colIndex["street_address"]),
			PostalCode:     safeGet(record, colIndex["postal_code"]),
			City:           safeGet(record, colIndex["city"]),
			ArticleName:    safeGet(record, colIndex["article_name"]),
			ArticlePrice:   safeGet(record, colIndex["article_price"]),
		})
	}

	return invoices, rowErrors, nil
}

// safeGet retrieves slice[index] safely.
func safeGet(slice []string, index int) string {
	if index < len(slice) {
		return strings.TrimSpace(slice[index])
	}

	return ""
}
