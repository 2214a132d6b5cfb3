package core

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/gliderlabs/ssh"
	"github.com/spf13/afero"
	gossh "golang.org/x/crypto/ssh"

	"github.com/gynamics/pish/core/config"
	"github.com/gynamics/pish/core/interp"
)

// Server exposes the interpreter over SSH. Every session gets its own
// interpreter instance seeded from the session environment, so state
// like cd and set never leaks between clients.
type Server struct {
	cfg       *config.Config
	sshServer *ssh.Server
}

// NewServer builds the SSH front end from the configuration.
func NewServer(cfg *config.Config, fs afero.Fs) (*Server, error) {
	signer, err := hostSigner(cfg, fs)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}
	s.sshServer = &ssh.Server{
		Addr:    fmt.Sprintf(":%d", cfg.SSHPort),
		Handler: s.handleSession,
	}
	s.sshServer.AddHostKey(signer)

	return s, nil
}

// ListenAndServe blocks serving sessions until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.sshServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.sshServer.Shutdown(ctx)
}

func (s *Server) handleSession(sess ssh.Session) {
	log.Printf("session start: user=%q remote=%s", sess.User(), sess.RemoteAddr())
	defer log.Printf("session end: user=%q", sess.User())

	ip := interp.New([]string{"pish"})
	ip.Env = interp.NewEnvironFromList(sess.Environ())
	ip.User = sess.User()
	ip.Stderr = sess.Stderr()

	// SSH clients rarely forward PATH; fall back to the host's so
	// command lookup still works.
	if _, ok := ip.Env.LookupEnv("PATH"); !ok {
		ip.Env.Setenv("PATH", os.Getenv("PATH"))
	}

	if s.cfg.Motd != "" {
		fmt.Fprintln(sess, s.cfg.Motd)
	}

	stdio := interp.NewIO(sess, sess)

	var status int
	if raw := sess.RawCommand(); raw != "" {
		ip.RefreshEnv()
		status = ip.Run(raw, stdio)
	} else {
		status = ip.REPL(sess, stdio)
	}
	if ip.Exited() {
		status = ip.ExitCode()
	}

	_ = sess.Exit(sessionExitCode(status))
}

// sessionExitCode clamps the shell status convention (negative on
// launch and syntax errors) into the SSH exit-status range.
func sessionExitCode(status int) int {
	if status < 0 {
		return 255
	}
	return status & 0xff
}

// hostSigner loads the configured host key, or generates a throwaway
// ed25519 key when none is configured.
func hostSigner(cfg *config.Config, fs afero.Fs) (gossh.Signer, error) {
	if cfg.HostKeyPath != "" {
		pem, err := afero.ReadFile(fs, cfg.HostKeyPath)
		if err != nil {
			return nil, err
		}
		return gossh.ParsePrivateKey(pem)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return gossh.NewSignerFromKey(priv)
}
