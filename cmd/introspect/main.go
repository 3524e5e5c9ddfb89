// Command introspect is the journal analysis report generator.
package main

import (
	"os"

	"github.com/joelmbaka/introspect/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
