// Package billogram maps invoice rows to Billogram API payloads and provides
// methods to send HTTP requests to the Billogram service.
package billogram

import "encoding/json"

// Send methods the API accepts for a billogram's on_success command.
const (
	SendMethodEmail  = "Email"
	SendMethodSMS    = "SMS"
	SendMethodLetter = "Letter"
)

// Contact holds a customer's contact details.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Address holds a customer's postal address.
type Address struct {
	StreetAddress string `json:"street_address"`
	Zipcode       string `json:"zipcode"`
	City          string `json:"city"`
}

// Customer is the body for creating a customer.
type Customer struct {
	CustomerNo string  `json:"customer_no"`
	Name       string  `json:"name"`
	Contact    Contact `json:"contact"`
	Address    Address `json:"address"`
}

// CustomerRef references an existing customer by number.
type CustomerRef struct {
	CustomerNo string `json:"customer_no"`
}

// Item is a single billogram line item. The price excludes VAT.
type Item struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	VAT   int64   `json:"vat"`
	Count int     `json:"count"`
}

// OnSuccess tells the API what to do once the billogram is created.
type OnSuccess struct {
	Command string `json:"command"`
	Method  string `json:"method"`
}

// Billogram is the body for creating a billogram.
type Billogram struct {
	InvoiceNo string      `json:"invoice_no"`
	Customer  CustomerRef `json:"customer"`
	Items     []Item      `json:"items"`
	OnSuccess OnSuccess   `json:"on_success"`
}

// Request bundles the API payloads produced from one invoice row.
type Request struct {
	Customer  Customer
	Billogram Billogram
}

// CreatedCustomer is the customer object returned by the API.
// The API returns customer_no as a number.
type CreatedCustomer struct {
	CustomerNo json.Number `json:"customer_no"`
	Name       string      `json:"name"`
}

// CreatedBillogram is the billogram object returned by the API.
type CreatedBillogram struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// customerResponse is the envelope around a customer payload.
type customerResponse struct {
	Data CreatedCustomer `json:"data"`
}

// billogramResponse is the envelope around a billogram payload.
type billogramResponse struct {
	Data CreatedBillogram `json:"data"`
}

// errorResponse is the envelope the API uses for rejected requests.
type errorResponse struct {
	Status string `json:"status"`
	Data   struct {
		Message string `json:"message"`
	} `json:"data"`
}
