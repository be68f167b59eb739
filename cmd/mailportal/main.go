// Command mailportal is the entry point for the warranty-mailer portal binary.
// It dispatches to subcommands: server, seed, and admin.
package main

import (
	"fmt"
	"os"

	"mailportal/internal/cmd/admin"
	"mailportal/internal/cmd/seed"
	"mailportal/internal/cmd/server"
)

// main is the process entry point and forwards to run for testable logic.
func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run parses argv and invokes the matching subcommand handler.
func run(argv []string) error {
	if len(argv) < 2 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	switch argv[1] {
	case "server":
		return server.Run(argv[2:])
	case "seed":
		return seed.Run(argv[2:])
	case "admin":
		return admin.Run(argv[2:])
	case "-h", "--help", "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown subcommand: %s", argv[1])
	}
}

// usage prints the canonical CLI syntax to stderr.
func usage() {
	fmt.Fprintln(os.Stderr, "mailportal <server|seed|admin> [flags]")
}
