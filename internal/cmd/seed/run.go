// Package seed implements the `mailportal seed` subcommand.
package seed

import (
	"context"
	"flag"

	"mailportal/internal/config"
	"mailportal/internal/db"
	"mailportal/internal/logging"
	"mailportal/internal/seed"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to mailportal.yaml (optional; env vars still apply)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	lg, err := logging.New(logging.Options{Level: c.Log.Level, JSON: c.Log.JSON, DefaultSlog: true})
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := db.Open(ctx, c.DB.Path)
	if err != nil {
		return err
	}
	defer d.Close()

	return seed.Run(ctx, d, lg)
}
