package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default values for the loader.
const (
	defaultBaseURL        = "https://sandbox.billogram.com/api/v2"
	defaultInvoicesFile   = "invoices.csv"
	defaultRequestTimeout = 30 * time.Second
	defaultVATRate        = 25
	envAPIUser            = "API_USER"
	envAPIPassword        = "API_PASSWORD"
	envBaseURL            = "BILLOGRAM_API_URL"
	envInvoicesFile       = "INVOICES_FILE"
	envRequestTimeout     = "REQUEST_TIMEOUT"
	envVATRate            = "VAT_RATE"
)

// LoadConfig loads the application configuration from a .env file and
// environment variables, falling back to default values.
func LoadConfig(ctx context.Context, logger *slog.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.DebugContext(ctx, "No .env file loaded, using environment only", "error", err)
	}

	return &Config{
		APIUser:        os.Getenv(envAPIUser),
		APIPassword:    os.Getenv(envAPIPassword),
		BaseURL:        getBaseURL(ctx, logger),
		InvoicesFile:   getInvoicesFile(ctx, logger),
		RequestTimeout: getRequestTimeout(ctx, logger),
		VATRate:        getVATRate(ctx, logger),
	}
}

// Fetch the API base URL env var or set to a default value.
func getBaseURL(ctx context.Context, logger *slog.Logger) string {
	baseURL := os.Getenv(envBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.DebugContext(ctx, "Using default API base URL", "url", baseURL)
	} else {
		logger.DebugContext(ctx, "Using API base URL from environment variable", "url", baseURL)
	}

	return baseURL
}

// Fetch the invoices file env var or set to a default value.
func getInvoicesFile(ctx context.Context, logger *slog.Logger) string {
	invoicesFile := os.Getenv(envInvoicesFile)
	if invoicesFile == "" {
		invoicesFile = defaultInvoicesFile
		logger.DebugContext(ctx, "Using default invoices file", "file", invoicesFile)
	} else {
		logger.DebugContext(ctx, "Using invoices file from environment variable", "file", invoicesFile)
	}

	return invoicesFile
}

// Fetch the per-request timeout env var or set to a default value.
func getRequestTimeout(ctx context.Context, logger *slog.Logger) time.Duration {
	timeoutStr := os.Getenv(envRequestTimeout)
	if timeoutStr == "" {
		logger.DebugContext(ctx, "Using default request timeout", "timeout", defaultRequestTimeout)
		return defaultRequestTimeout
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		logger.WarnContext(
			ctx,
			"Invalid value for REQUEST_TIMEOUT, using default",
			"value", timeoutStr,
			"default", defaultRequestTimeout,
			"error", err,
		)
		return defaultRequestTimeout
	}

	logger.DebugContext(ctx, "Using request timeout from environment variable", "timeout", timeout)
	return timeout
}

// Fetch the VAT rate env var or set to a default value.
func getVATRate(ctx context.Context, logger *slog.Logger) int64 {
	vatStr := os.Getenv(envVATRate)
	if vatStr == "" {
		logger.DebugContext(ctx, "Using default VAT rate", "vat", defaultVATRate)
		return defaultVATRate
	}

	vat, err := strconv.ParseInt(vatStr, 10, 64)
	if err != nil || vat < 0 {
		logger.WarnContext(
			ctx,
			"Invalid value for VAT_RATE, using default",
			"value", vatStr,
			"default", defaultVATRate,
			"error", err,
		)
		return defaultVATRate
	}

	logger.DebugContext(ctx, "Using VAT rate from environment variable", "vat", vat)
	return vat
}
