package ingest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billogram/invoiceloader/appcontext"
	"billogram/invoiceloader/billogram"
	"billogram/invoiceloader/config"
	invoicecsv "billogram/invoiceloader/csv"
	"billogram/invoiceloader/ingest"
)

// --- Mocks for dependencies ---

type mockParser struct {
	parseCalled bool
	invoices    []invoicecsv.Invoice
	rowErrors   []invoicecsv.RowError
	err         error
}

func (m *mockParser) Parse(ctx context.Context, filePath string) ([]invoicecsv.Invoice, []invoicecsv.RowError, error) {
	m.parseCalled = true
	return m.invoices, m.rowErrors, m.err
}

type mockClient struct {
	verifyErr         error
	verifyCalled      bool
	existingCustomers map[string]bool
	createCustomerErr error
	customersCreated  []string
	billogramErrs     map[string]error
	billogramCalls    []string
}

func (m *mockClient) VerifyCredentials(ctx context.Context) error {
	m.verifyCalled = true
	return m.verifyErr
}

func (m *mockClient) GetCustomer(ctx context.Context, customerNo string) (*billogram.CreatedCustomer, error) {
	if m.existingCustomers[customerNo] {
		return &billogram.CreatedCustomer{CustomerNo: json.Number(customerNo)}, nil
	}
	return nil, fmt.Errorf("%w, %s", billogram.ErrCustomerNotFound, customerNo)
}

func (m *mockClient) CreateCustomer(ctx context.Context, customer billogram.Customer) (*billogram.CreatedCustomer, error) {
	if m.createCustomerErr != nil {
		return nil, m.createCustomerErr
	}
	m.customersCreated = append(m.customersCreated, customer.CustomerNo)
	return &billogram.CreatedCustomer{CustomerNo: json.Number(customer.CustomerNo)}, nil
}

func (m *mockClient) CreateBillogram(ctx context.Context, bg billogram.Billogram) (*billogram.CreatedBillogram, error) {
	m.billogramCalls = append(m.billogramCalls, bg.InvoiceNo)
	if err := m.billogramErrs[bg.InvoiceNo]; err != nil {
		return nil, err
	}
	return &billogram.CreatedBillogram{ID: "bg-" + bg.InvoiceNo, State: "Sending"}, nil
}

// --- Helpers ---

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return appcontext.WithLogger(context.Background(), logger)
}

func validInvoice(line int, n int) invoicecsv.Invoice {
	return invoicecsv.Invoice{
		Line:           line,
		InvoiceNumber:  fmt.Sprintf("INV-%04d", n),
		CustomerNumber: fmt.Sprintf("%d", 1000+n),
		Name:           "Anna Andersson",
		Email:          "anna@example.com",
		PhoneNumber:    "0721459613",
		StreetAddress:  "Storgatan 1",
		PostalCode:     "11122",
		City:           "Stockholm",
		ArticleName:    "Subscription",
		ArticlePrice:   "125.00",
	}
}

func newTestSink(parser invoicecsv.Parser, client ingest.Invoker) *ingest.Sink {
	return ingest.NewSink(ingest.SinkDependencies{
		Config: &config.Config{InvoicesFile: "invoices.csv"},
		Parser: parser,
		Mapper: billogram.NewMapper(25),
		Client: client,
	})
}

// --- Tests for Sink ---

func TestSink_Run_SingleValidRow(t *testing.T) {
	parser := &mockParser{invoices: []invoicecsv.Invoice{validInvoice(2, 1)}}
	client := &mockClient{}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 1, stats.TotalRows)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)

	// Exactly one billogram call, with a non-empty created id.
	require.Len(t, client.billogramCalls, 1)
	require.Len(t, stats.Results, 1)
	assert.NotEmpty(t, stats.Results[0].BillogramID)

	// The customer was missing remotely, so it was created first.
	assert.Equal(t, []string{"1001"}, client.customersCreated)
}

func TestSink_Run_ExistingCustomerIsNotRecreated(t *testing.T) {
	parser := &mockParser{invoices: []invoicecsv.Invoice{validInvoice(2, 1)}}
	client := &mockClient{existingCustomers: map[string]bool{"1001": true}}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Empty(t, client.customersCreated)
}

func TestSink_Run_InvalidCredentialsAbortBeforeAnyRow(t *testing.T) {
	parser := &mockParser{invoices: []invoicecsv.Invoice{validInvoice(2, 1)}}
	client := &mockClient{verifyErr: billogram.AuthenticationError("invalid credentials")}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.Error(t, err)
	assert.True(t, billogram.IsAuthentication(err))
	assert.Nil(t, stats)
	assert.True(t, client.verifyCalled)
	assert.False(t, parser.parseCalled)
	assert.Empty(t, client.billogramCalls)
}

func TestSink_Run_FileAccessFailureAborts(t *testing.T) {
	parser := &mockParser{err: invoicecsv.FileAccessError("invoices.csv", fmt.Errorf("permission denied"))}
	client := &mockClient{}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.Error(t, err)
	assert.True(t, invoicecsv.IsFileAccess(err))
	assert.Nil(t, stats)
}

func TestSink_Run_MalformedRowReportedAlongsideSuccesses(t *testing.T) {
	parser := &mockParser{
		invoices: []invoicecsv.Invoice{
			validInvoice(2, 1),
			validInvoice(3, 2),
			validInvoice(5, 3),
		},
		rowErrors: []invoicecsv.RowError{
			{Line: 4, Err: invoicecsv.ParseError("not enough columns")},
		},
	}
	client := &mockClient{}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRows)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	var failed []ingest.InvocationResult
	for _, result := range stats.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 4, failed[0].Line)
	assert.True(t, invoicecsv.IsParse(failed[0].Err))
}

func TestSink_Run_ValidationFailureSkipsInvoker(t *testing.T) {
	bad := validInvoice(3, 2)
	bad.ArticlePrice = "not-a-number"
	parser := &mockParser{invoices: []invoicecsv.Invoice{validInvoice(2, 1), bad}}
	client := &mockClient{}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	// The invalid row never reaches the API.
	assert.Equal(t, []string{"INV-0001"}, client.billogramCalls)

	for _, result := range stats.Results {
		if result.Err != nil {
			assert.True(t, billogram.IsValidation(result.Err))
		}
	}
}

func TestSink_Run_TransportFailureIsIsolatedPerRow(t *testing.T) {
	parser := &mockParser{invoices: []invoicecsv.Invoice{
		validInvoice(2, 1),
		validInvoice(3, 2),
		validInvoice(4, 3),
	}}
	client := &mockClient{
		billogramErrs: map[string]error{
			"INV-0002": billogram.TransportError(fmt.Errorf("connection reset")),
		},
	}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.NoError(t, err)

	// Rows 1 and 3 are still attempted and succeed.
	assert.Equal(t, []string{"INV-0001", "INV-0002", "INV-0003"}, client.billogramCalls)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	for _, result := range stats.Results {
		if result.Err != nil {
			assert.Equal(t, "INV-0002", result.InvoiceNumber)
			assert.True(t, billogram.IsTransport(result.Err))
		}
	}
}

func TestSink_Run_RejectedCredentialsMidRunAbort(t *testing.T) {
	parser := &mockParser{invoices: []invoicecsv.Invoice{
		validInvoice(2, 1),
		validInvoice(3, 2),
	}}
	client := &mockClient{
		billogramErrs: map[string]error{
			"INV-0001": billogram.AuthenticationError("token revoked"),
		},
	}
	sink := newTestSink(parser, client)

	stats, err := sink.Run(testContext())
	require.Error(t, err)
	assert.True(t, billogram.IsAuthentication(err))
	require.NotNil(t, stats)

	// The second row is never attempted.
	assert.Equal(t, []string{"INV-0001"}, client.billogramCalls)
	assert.Equal(t, 1, stats.Failed)
}

func TestStats_AddFailureAndLog(t *testing.T) {
	stats := ingest.NewStats()
	stats.TotalRows = 2
	stats.AddSuccess(2, "INV-0001", "bg-1")
	stats.AddFailure(3, "INV-0002", billogram.ValidationError("article_price", "is required"))

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Results, 2)

	// Log must not panic with a discard logger.
	stats.Log(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
