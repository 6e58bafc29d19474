package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	parser := flags.NewNamedParser("exchanged", flags.Default)

	if _, err := parser.AddCommand("init",
		"Generate a default configuration file",
		"Generate a default configuration file at the given path",
		&initCmd); err != nil {
		os.Exit(1)
	}
	if _, err := parser.AddCommand("run",
		"Run the exchange",
		"Run the matching engine on the configured cadence",
		&runCmd); err != nil {
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
