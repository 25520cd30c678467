package billogram

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	invoicecsv "billogram/invoiceloader/csv"
)

var errValidation = errors.New("invoice row failed validation")

// ValidationError wraps errValidation with the failing field and reason.
func ValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", errValidation, field, reason)
}

// IsValidation reports whether err is a row validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, errValidation)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var phonePattern = regexp.MustCompile(`^0[0-9]{9}$`)

// EmailIsValid reports whether s looks like an email address.
func EmailIsValid(s string) bool {
	return emailPattern.MatchString(s)
}

// PhoneIsValid reports whether s is a ten digit phone number with a leading
// zero, the format the upstream file uses.
func PhoneIsValid(s string) bool {
	return phonePattern.MatchString(s)
}

// SendMethod picks the delivery method for a billogram: email when the row
// has an email address, SMS when it only has a phone number, letter otherwise.
func SendMethod(email, phone string) string {
	if email != "" {
		return SendMethodEmail
	}
	if phone != "" {
		return SendMethodSMS
	}
	return SendMethodLetter
}

// PriceExcludingVAT removes VAT from a VAT-inclusive price.
func PriceExcludingVAT(price decimal.Decimal, vatRate int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(100 + vatRate))
}

// Mapper converts parsed invoice rows into Billogram API payloads.
type Mapper struct {
	VATRate int64
}

// NewMapper creates a new Mapper with the given VAT rate in percent.
func NewMapper(vatRate int64) *Mapper {
	return &Mapper{VATRate: vatRate}
}

// Map projects one invoice row into the customer body and billogram body to
// send to the API. It is a pure function of the row: mapping the same row
// twice yields identical requests. A missing, malformed, or out-of-range
// field returns a ValidationError and no request.
func (m *Mapper) Map(inv invoicecsv.Invoice) (*Request, error) {
	if inv.InvoiceNumber == "" {
		return nil, ValidationError("invoice_number", "is required")
	}
	if inv.CustomerNumber == "" {
		return nil, ValidationError("customer_number", "is required")
	}
	if inv.Name == "" {
		return nil, ValidationError("name", "is required")
	}
	if inv.ArticleName == "" {
		return nil, ValidationError("article_name", "is required")
	}
	if inv.Email != "" && !EmailIsValid(inv.Email) {
		return nil, ValidationError("email", "is not a valid email address")
	}
	if inv.PhoneNumber != "" && !PhoneIsValid(inv.PhoneNumber) {
		return nil, ValidationError("phone_number", "is not a valid phone number")
	}

	if inv.ArticlePrice == "" {
		return nil, ValidationError("article_price", "is required")
	}
	price, err := decimal.NewFromString(inv.ArticlePrice)
	if err != nil {
		return nil, ValidationError("article_price", "is not a number")
	}
	if price.IsNegative() {
		return nil, ValidationError("article_price", "must not be negative")
	}

	return &Request{
		Customer: Customer{
			CustomerNo: inv.CustomerNumber,
			Name:       inv.Name,
			Contact: Contact{
				Email: inv.Email,
				Phone: inv.PhoneNumber,
			},
			Address: Address{
				StreetAddress: inv.StreetAddress,
				Zipcode:       inv.PostalCode,
				City:          inv.City,
			},
		},
		Billogram: Billogram{
			InvoiceNo: inv.InvoiceNumber,
			Customer:  CustomerRef{CustomerNo: inv.CustomerNumber},
			Items: []Item{
				{
					Title: inv.ArticleName,
					Price: PriceExcludingVAT(price, m.VATRate).InexactFloat64(),
					VAT:   m.VATRate,
					Count: 1,
				},
			},
			OnSuccess: OnSuccess{
				Command: "send",
				Method:  SendMethod(inv.Email, inv.PhoneNumber),
			},
		},
	}, nil
}
