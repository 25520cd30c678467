package billogram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var errAuthentication = errors.New("billogram api rejected the credentials")
var errRemoteValidation = errors.New("billogram api rejected the payload")
var errTransport = errors.New("transport failure calling billogram api")
var errHTTPUnexpectedStatusCode = errors.New("unexpected http status code")
var errHTTPBaseURLFormatting = errors.New("error formatting HTTP base url")
var errHTTPBodyUnmarshall = errors.New("error unmarshalling HTTP response body")

// ErrCustomerNotFound is returned by GetCustomer when no customer exists
// under the given customer number.
var ErrCustomerNotFound = errors.New("customer not found")

// AuthenticationError wraps errAuthentication with a detail message.
func AuthenticationError(detail string) error {
	return fmt.Errorf("%w, %s", errAuthentication, detail)
}

// RemoteValidationError wraps errRemoteValidation with the API's message.
func RemoteValidationError(message string) error {
	return fmt.Errorf("%w, %s", errRemoteValidation, message)
}

// TransportError wraps errTransport with the underlying network error.
func TransportError(baseErr error) error {
	return fmt.Errorf("%w, %w", errTransport, baseErr)
}

// HTTPUnexpectedStatusCodeError wraps errHTTPUnexpectedStatusCode.
func HTTPUnexpectedStatusCodeError(statusCode int) error {
	return fmt.Errorf("%w, %d", errHTTPUnexpectedStatusCode, statusCode)
}

// HTTPBaseURLFormattingError wraps errHTTPBaseURLFormatting.
func HTTPBaseURLFormattingError(baseURL string) error {
	return fmt.Errorf("%w, %s", errHTTPBaseURLFormatting, baseURL)
}

// HTTPBodyUnmarshallError wraps errHTTPBodyUnmarshall.
func HTTPBodyUnmarshallError(baseErr error) error {
	return fmt.Errorf("%w, %w", errHTTPBodyUnmarshall, baseErr)
}

// IsAuthentication reports whether err means the credentials were rejected.
func IsAuthentication(err error) bool {
	return errors.Is(err, errAuthentication)
}

// IsRemoteValidation reports whether err means the API rejected the payload.
func IsRemoteValidation(err error) bool {
	return errors.Is(err, errRemoteValidation)
}

// IsTransport reports whether err is a network or timeout failure.
func IsTransport(err error) bool {
	return errors.Is(err, errTransport)
}

// IsCustomerNotFound reports whether err means the customer does not exist.
func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

// APIClient manages the Billogram API endpoints the loader uses. Requests
// authenticate with HTTP basic auth. One call creates at most one remote
// object; there is no retry and no idempotency key, so calling twice creates
// two objects.
type APIClient struct {
	// a pointer to the http client to use.
	HTTPClient *http.Client
	// the url to be used as a base url for all requests.
	BaseURL *url.URL

	apiUser     string
	apiPassword string
}

// NewAPIClient creates a new APIClient.
func NewAPIClient(httpClient *http.Client, baseURL, apiUser, apiPassword string) (*APIClient, error) {
	// Use a default http client if none is provided.
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, HTTPBaseURLFormattingError(baseURL)
	}

	return &APIClient{
		HTTPClient:  httpClient,
		BaseURL:     parsedURL,
		apiUser:     apiUser,
		apiPassword: apiPassword,
	}, nil
}

// VerifyCredentials performs one cheap authenticated GET so a bad credential
// pair aborts a run before any invoice row is attempted.
func (c *APIClient) VerifyCredentials(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/customer?page_size=1", nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthenticationError(apiMessage(body))
	default:
		return HTTPUnexpectedStatusCodeError(status)
	}
}

// GetCustomer sends a GET request to the /customer/{customer_no} endpoint.
// It returns ErrCustomerNotFound when the customer does not exist yet.
func (c *APIClient) GetCustomer(ctx context.Context, customerNo string) (*CreatedCustomer, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/customer/"+url.PathEscape(customerNo), nil)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		var result customerResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, HTTPBodyUnmarshallError(err)
		}
		return &result.Data, nil
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w, %s", ErrCustomerNotFound, customerNo)
	default:
		return nil, statusError(status, body)
	}
}

// CreateCustomer sends a POST request to the /customer endpoint.
func (c *APIClient) CreateCustomer(ctx context.Context, customer Customer) (*CreatedCustomer, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/customer", customer)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, statusError(status, body)
	}

	var result customerResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, HTTPBodyUnmarshallError(err)
	}

	return &result.Data, nil
}

// CreateBillogram sends a POST request to the /billogram endpoint. A
// successful call creates and sends one billogram and returns its id.
func (c *APIClient) CreateBillogram(ctx context.Context, bg Billogram) (*CreatedBillogram, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/billogram", bg)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, statusError(status, body)
	}

	var result billogramResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, HTTPBodyUnmarshallError(err)
	}

	return &result.Data, nil
}

// do sends one request and returns the status code and raw body. Network
// failures, including a per-call timeout expiry, come back as TransportErrors.
func (c *APIClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	// Construct the full URL by combining the base url with the endpoint path.
	localVarPath := c.BaseURL.String() + path

	req, err := http.NewRequestWithContext(ctx, method, localVarPath, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.SetBasicAuth(c.apiUser, c.apiPassword)
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, TransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, TransportError(err)
	}

	return resp.StatusCode, body, nil
}

// statusError classifies a non-success status code into the error taxonomy.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthenticationError(apiMessage(body))
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return RemoteValidationError(apiMessage(body))
	case status >= http.StatusInternalServerError:
		return TransportError(HTTPUnexpectedStatusCodeError(status))
	default:
		return HTTPUnexpectedStatusCodeError(status)
	}
}

// apiMessage pulls the human readable message out of an API error envelope.
func apiMessage(body []byte) string {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data.Message == "" {
		return string(body)
	}

	return envelope.Data.Message
}
