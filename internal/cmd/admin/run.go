// Package admin implements the `mailportal admin` subcommand: a terminal
// UI for staff against a running portal API.
package admin

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"mailportal/internal/adminapi"
	"mailportal/internal/adminui"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	addr := fs.String("addr", "http://127.0.0.1:3001", "portal API address")
	email := fs.String("email", "", "log in as this account before starting the UI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := adminapi.NewClient(adminapi.ClientOptions{Addr: *addr})
	if err != nil {
		return err
	}

	m := adminui.New(c, *addr)
	if *email != "" {
		pw, err := promptPassword(fmt.Sprintf("Password for %s", *email))
		if err != nil {
			return err
		}
		if _, err := c.Login(*email, pw); err != nil {
			return err
		}
		m = m.LoggedIn()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// promptPassword reads a password without echo when attached to a
// terminal, falling back to an error otherwise.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; omit -email and log in inside the UI")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
