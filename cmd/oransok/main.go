// Command oransok turns O-RAN security PDFs into a Neo4j knowledge graph.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fmt.Fprintf(os.Stderr, "oransok: panic: %v\n", r)
		if internal.IsVerbose() {
			os.Stderr.Write(debug.Stack())
		} else {
			fmt.Fprintln(os.Stderr, "Re-run with --verbose for the stack trace")
		}
		code = internal.ExitError
	}()

	return internal.HandleError(rootCmd, Execute(context.Background()))
}
