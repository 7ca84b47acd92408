// Command factlock fact-locks machine-drafted real-estate sales messages
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/factlock/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitCodeError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(cli.ExitError)
}
