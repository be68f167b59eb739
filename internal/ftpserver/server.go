// Package ftpserver is the optional FTP/FTPS file-drop front-end. It
// shares the SFTP credential realm and per-user directories, but serves
// them as a hierarchical jailed filesystem.
package ftpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	ftp "github.com/fclairamb/ftpserverlib"
	sloglog "github.com/fclairamb/go-log/slog"

	"mailportal/internal/auth"
	"mailportal/internal/db"
	"mailportal/internal/jailfs"
)

// Mode selects FTP vs FTPS behavior.
type Mode int

const (
	ModeFTP Mode = iota + 1
	ModeFTPS
)

// Options configures server address, TLS, and passive-mode settings.
type Options struct {
	Addr           string
	DB             *db.DB
	UploadDir      string
	Mode           Mode
	TLSConfig      *tls.Config
	PassivePorts   *ftp.PortRange
	PublicHostIP   string
	IdleTimeoutSec int
	Logger         *slog.Logger
}

// ListenAndServe runs the FTP server until ctx is cancelled.
func ListenAndServe(ctx context.Context, opt Options) error {
	if opt.DB == nil {
		return errors.New("db is required")
	}
	if opt.Addr == "" {
		return errors.New("addr is required")
	}
	if opt.UploadDir == "" {
		return errors.New("upload dir is required")
	}
	if opt.Mode != ModeFTP && opt.Mode != ModeFTPS {
		return errors.New("invalid mode")
	}
	if opt.Mode == ModeFTPS && opt.TLSConfig == nil {
		return errors.New("tls config is required for FTPS")
	}

	ln, err := net.Listen("tcp", opt.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	drv := &mainDriver{
		db:          opt.DB,
		uploadDir:   opt.UploadDir,
		mode:        opt.Mode,
		tlsConfig:   opt.TLSConfig,
		passive:     opt.PassivePorts,
		publicHost:  opt.PublicHostIP,
		idleTimeout: opt.IdleTimeoutSec,
		listener:    ln,
	}
	srv := ftp.NewFtpServer(drv)
	if opt.Logger != nil {
		srv.Logger = sloglog.NewWrap(opt.Logger)
	}
	return srv.ListenAndServe()
}

// mainDriver connects ftpserverlib callbacks to the credential table.
type mainDriver struct {
	db          *db.DB
	uploadDir   string
	mode        Mode
	tlsConfig   *tls.Config
	passive     *ftp.PortRange
	publicHost  string
	idleTimeout int
	listener    net.Listener
}

func (d *mainDriver) GetSettings() (*ftp.Settings, error) {
	idle := d.idleTimeout
	if idle == 0 {
		idle = 300
	}
	tlsReq := ftp.ClearOrEncrypted
	if d.mode == ModeFTPS {
		tlsReq = ftp.MandatoryEncryption
	}
	return &ftp.Settings{
		Listener:                 d.listener,
		Banner:                   "Warranty Portal file drop",
		PassiveTransferPortRange: d.passive,
		PublicHost:               d.publicHost,
		IdleTimeout:              idle,
		ConnectionTimeout:        15,
		DisableActiveMode:        true,
		TLSRequired:              tlsReq,
		ActiveConnectionsCheck:   ftp.IPMatchRequired,
		PasvConnectionsCheck:     ftp.IPMatchRequired,
	}, nil
}

func (d *mainDriver) ClientConnected(ftp.ClientContext) (string, error) {
	return "ready", nil
}

func (d *mainDriver) ClientDisconnected(ftp.ClientContext) {}

func (d *mainDriver) AuthUser(cc ftp.ClientContext, user, pass string) (ftp.ClientDriver, error) {
	ctx := context.Background()
	cred, ok, err := d.db.GetSftpCredentialByUsername(ctx, user)
	if err != nil || !ok || !cred.Active {
		auth.DummyVerify(pass)
		return nil, errors.New("invalid credentials")
	}
	okPw, err := auth.VerifyPassword(pass, cred.PasswordHash)
	if err != nil || !okPw {
		return nil, errors.New("invalid credentials")
	}
	// last_used is advisory; login proceeds either way.
	_ = d.db.TouchSftpCredential(ctx, cred.ID)

	root := filepath.Join(d.uploadDir, "sftp", cred.Username)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, err
	}
	cc.SetPath("/")
	return jailfs.New(root), nil
}

// GetTLSConfig provides TLS settings for FTPS and optional TLS in FTP.
func (d *mainDriver) GetTLSConfig() (*tls.Config, error) {
	if d.tlsConfig == nil {
		return nil, errors.New("tls not configured")
	}
	// Return the same instance for control and data connections so
	// clients can verify TLS session reuse.
	return d.tlsConfig, nil
}

// PreAuthUser must always succeed so usernames cannot be enumerated
// before PASS; the real check happens in AuthUser.
func (d *mainDriver) PreAuthUser(cc ftp.ClientContext, user string) error {
	if d.mode == ModeFTPS {
		_ = cc.SetTLSRequirement(ftp.MandatoryEncryption)
	}
	return nil
}

var _ ftp.MainDriver = (*mainDriver)(nil)
var _ ftp.MainDriverExtensionUserVerifier = (*mainDriver)(nil)
