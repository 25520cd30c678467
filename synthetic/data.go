// Package synthetic writes sample invoice files for local testing against
// the Billogram sandbox.
package synthetic

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// header matches the column contract of the invoices file.
var header = []string{
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

var sampleNames = []string{"Anna Andersson", "Bjorn Berg", "Cecilia Carlsson", "David Dahl", "Elin Ek"}
var sampleArticles = []string{"Subscription", "Consulting hours", "Support plan", "License renewal"}
var sampleCities = []string{"Stockholm", "Gothenburg", "Malmo", "Uppsala"}

// GenerateSampleInvoices creates an invoices.csv file with synthetic rows in
// the given directory and returns its path.
func GenerateSampleInvoices(rows int, dir string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}

	filePath := filepath.Join(dir, "invoices.csv")
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file '%s': %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < rows; i++ {
		name := sampleNames[rand.Intn(len(sampleNames))]
		price := 50.0 + rand.Float64()*950.0
		row := []string{
			fmt.Sprintf("INV-%04d", i+1),
			fmt.Sprintf("%d", 1000+i),
			name,
			fmt.Sprintf("customer%d@example.com", 1000+i),
			fmt.Sprintf("07%08d", rand.Intn(100000000)),
			fmt.Sprintf("Storgatan %d", 1+rand.Intn(99)),
			fmt.Sprintf("%05d", 10000+rand.Intn(89999)),
			sampleCities[rand.Intn(len(sampleCities))],
			sampleArticles[rand.Intn(len(sampleArticles))],
			fmt.Sprintf("%.2f", price),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	return filePath, nil
}
