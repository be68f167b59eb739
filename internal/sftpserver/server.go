// Package sftpserver provides the SSH file-drop front-end. Clients log in
// with portal-issued SFTP credentials and land in a flat per-user directory.
package sftpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"mailportal/internal/auth"
	"mailportal/internal/db"
)

type Options struct {
	Addr        string
	DB          *db.DB
	HostKeyPath string
	UploadDir   string
	Logger      *slog.Logger
}

// Server accepts SSH connections and serves the sftp subsystem.
type Server struct {
	opt Options

	// userDirs maps usernames to their realized directories. Entries are
	// never evicted; the map is bounded by the credential table.
	mu       sync.Mutex
	userDirs map[string]string
}

func New(opt Options) (*Server, error) {
	if opt.DB == nil {
		return nil, errors.New("db is required")
	}
	if opt.Addr == "" {
		return nil, errors.New("addr is required")
	}
	if opt.HostKeyPath == "" {
		return nil, errors.New("host key path is required")
	}
	if opt.UploadDir == "" {
		return nil, errors.New("upload dir is required")
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Server{opt: opt, userDirs: make(map[string]string)}, nil
}

// userDir returns the per-user directory, creating it on first use.
func (s *Server) userDir(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir, ok := s.userDirs[username]; ok {
		return dir, nil
	}
	dir := filepath.Join(s.opt.UploadDir, "sftp", username)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	s.userDirs[username] = dir
	return dir, nil
}

// ListenAndServe runs the accept loop until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	signer, err := EnsureHostKey(s.opt.HostKeyPath)
	if err != nil {
		return err
	}

	conf := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			cred, ok, err := s.opt.DB.GetSftpCredentialByUsername(ctx, c.User())
			if err != nil || !ok || !cred.Active {
				auth.DummyVerify(string(pass))
				return nil, errors.New("invalid credentials")
			}
			okPw, err := auth.VerifyPassword(string(pass), cred.PasswordHash)
			if err != nil || !okPw {
				return nil, errors.New("invalid credentials")
			}
			if err := s.opt.DB.TouchSftpCredential(ctx, cred.ID); err != nil {
				s.opt.Logger.Warn("stamping last_used failed", "credential", cred.ID, "err", err)
			}
			return &ssh.Permissions{Extensions: map[string]string{"username": cred.Username}}, nil
		},
	}
	conf.AddHostKey(signer)

	ln, err := net.Listen("tcp", s.opt.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.opt.Logger.Info("sftp server listening", "addr", s.opt.Addr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		go s.handleConn(conf, c)
	}
}

func (s *Server) handleConn(conf *ssh.ServerConfig, netConn net.Conn) {
	defer netConn.Close()
	_ = netConn.SetDeadline(time.Now().Add(30 * time.Second))
	serverConn, chans, reqs, err := ssh.NewServerConn(netConn, conf)
	if err != nil {
		return
	}
	defer serverConn.Close()
	_ = netConn.SetDeadline(time.Time{})

	go ssh.DiscardRequests(reqs)

	username := serverConn.Permissions.Extensions["username"]
	dir, err := s.userDir(username)
	if err != nil {
		s.opt.Logger.Error("creating user dir failed", "username", username, "err", err)
		return
	}
	s.opt.Logger.Info("sftp session", "username", username, "remote", netConn.RemoteAddr().String())

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported channel")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range chReqs {
				if req.Type == "subsystem" && len(req.Payload) >= 4 && string(req.Payload[4:]) == "sftp" {
					_ = req.Reply(true, nil)
					h := DropboxHandlers{Dir: dir}
					srv := sftp.NewRequestServer(ch, sftp.Handlers{FileGet: h, FilePut: h, FileCmd: h, FileList: h})
					_ = srv.Serve()
					return
				}
				_ = req.Reply(false, nil)
			}
		}()
	}
}
