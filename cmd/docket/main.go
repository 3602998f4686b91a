package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andy/docket/internal/app"
	"github.com/andy/docket/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Help and keyring management must work before the app can initialize
	// (which may prompt, or need the very secret being set)
	skipInit := false
	for _, a := range os.Args[1:] {
		if a == "-h" || a == "--help" || a == "help" || a == "secrets" {
			skipInit = true
			break
		}
	}

	if !skipInit {
		ctx := context.Background()
		a, err := app.New(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
			return 1
		}
		defer a.Close()

		if err := a.RecoverTimer(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load the active timer: %v\n", err)
		}
		cli.SetApp(a)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
