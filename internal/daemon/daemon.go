// Package daemon assembles and runs the portal's long-lived services: the
// HTTP API, the SFTP file drop, and the optional FTP/FTPS front-end.
package daemon

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	ftp "github.com/fclairamb/ftpserverlib"

	"mailportal/internal/config"
	"mailportal/internal/db"
	"mailportal/internal/ftpserver"
	"mailportal/internal/httpapi"
	"mailportal/internal/notify"
	"mailportal/internal/sftpserver"
	"mailportal/internal/store"
)

type Options struct {
	Config config.Config
	Logger *slog.Logger
}

// Run starts every configured listener and blocks until the first one
// fails or ctx is cancelled.
func Run(ctx context.Context, opt Options) error {
	c := opt.Config
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}

	d, err := db.Open(ctx, c.DB.Path)
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := store.New(c.Upload.Dir)
	if err != nil {
		return err
	}

	var mailer notify.Mailer
	if c.SMTP.Host != "" {
		mailer = &notify.SMTPMailer{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			From:     c.SMTP.From,
			FromName: c.SMTP.FromName,
		}
		lg.Info("email notifications enabled", "host", c.SMTP.Host)
	} else {
		lg.Info("email notifications disabled (no smtp host)")
	}
	notifier := notify.New(d, mailer, lg, c.SMTP.AppURL)

	api := &httpapi.Server{
		DB:             d,
		Store:          st,
		Notify:         notifier,
		Logger:         lg,
		JWTSecret:      []byte(c.Auth.JWTSecret),
		TokenTTL:       time.Duration(c.Auth.ExpiresHours) * time.Hour,
		CORSOrigins:    c.HTTP.CORSOrigins,
		MaxUploadBytes: c.Upload.MaxFileBytes,
	}

	sftpSrv, err := sftpserver.New(sftpserver.Options{
		Addr:        c.SFTP.Bind + ":" + strconv.Itoa(c.SFTP.Port),
		DB:          d,
		HostKeyPath: c.SFTP.HostKeyPath,
		UploadDir:   c.Upload.Dir,
		Logger:      lg,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 4)

	e := api.Router()
	go func() {
		addr := c.HTTP.Bind + ":" + strconv.Itoa(c.HTTP.Port)
		lg.Info("http api listening", "addr", addr)
		errCh <- e.Start(addr)
	}()
	go func() { errCh <- sftpSrv.ListenAndServe(ctx) }()

	if c.FTP.Enable || c.FTP.FTPSEnable {
		passive, err := parsePortRange(c.FTP.PassivePorts)
		if err != nil {
			return err
		}
		var tlsConf *tls.Config
		if c.FTP.FTPSEnable {
			pair, err := tls.LoadX509KeyPair(c.FTP.TLSCertPath, c.FTP.TLSKeyPath)
			if err != nil {
				return err
			}
			tlsConf = &tls.Config{Certificates: []tls.Certificate{pair}, MinVersion: tls.VersionTLS12}
		}
		if c.FTP.Enable {
			addr := c.HTTP.Bind + ":" + strconv.Itoa(c.FTP.Port)
			go func() {
				lg.Info("ftp listening", "addr", addr)
				errCh <- ftpserver.ListenAndServe(ctx, ftpserver.Options{
					Addr: addr, DB: d, UploadDir: c.Upload.Dir, Mode: ftpserver.ModeFTP,
					PassivePorts: passive, PublicHostIP: c.FTP.PublicHost, Logger: lg,
				})
			}()
		}
		if c.FTP.FTPSEnable {
			addr := c.HTTP.Bind + ":" + strconv.Itoa(c.FTP.FTPSPort)
			go func() {
				lg.Info("ftps listening", "addr", addr)
				errCh <- ftpserver.ListenAndServe(ctx, ftpserver.Options{
					Addr: addr, DB: d, UploadDir: c.Upload.Dir, Mode: ftpserver.ModeFTPS,
					TLSConfig: tlsConf, PassivePorts: passive, PublicHostIP: c.FTP.PublicHost, Logger: lg,
				})
			}()
		}
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	// Drain in-flight HTTP requests on both exits.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)
	return runErr
}

// parsePortRange parses "start-end"; empty means ephemeral ports.
func parsePortRange(s string) (*ftp.PortRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return nil, errors.New("invalid passive port range")
	}
	lo, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return nil, errors.New("invalid passive port range")
	}
	hi, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return nil, errors.New("invalid passive port range")
	}
	if lo <= 0 || hi <= 0 || hi < lo {
		return nil, errors.New("invalid passive port range")
	}
	return &ftp.PortRange{Start: lo, End: hi}, nil
}
