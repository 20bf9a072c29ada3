package main

import (
	"fmt"
	"os"

	"must-burn/internal/app"
)

func main() {
	root := app.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
}
