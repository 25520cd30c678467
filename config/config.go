package config

import (
	"time"
)

// Config holds the application configuration.
type Config struct {
	APIUser        string
	APIPassword    string
	BaseURL        string
	InvoicesFile   string
	RequestTimeout time.Duration
	VATRate        int64
}
