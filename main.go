package main

import (
	"os"

	"billogram/invoiceloader/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
