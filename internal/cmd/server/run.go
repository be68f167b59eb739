// Package server implements the `mailportal server` subcommand.
package server

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"mailportal/internal/config"
	"mailportal/internal/daemon"
	"mailportal/internal/logging"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to mailportal.yaml (optional; env vars still apply)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warning|error (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level := c.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	lg, err := logging.New(logging.Options{Level: level, JSON: c.Log.JSON, DefaultSlog: true})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx, daemon.Options{Config: c, Logger: lg})
}
