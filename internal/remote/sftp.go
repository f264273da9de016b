// Package remote looks up path metadata on another host over SFTP.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	defaultPort    = 22
	defaultTimeout = 15 * time.Second
)

// Config configures a remote connection.
type Config struct {
	// Target is user@host.
	Target    string
	Port      int
	BatchMode bool
	Timeout   time.Duration
}

type sftpClient interface {
	Lstat(path string) (os.FileInfo, error)
}

var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

var dialRemote = dialSFTP

var sshNewClientConn = func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	return ssh.NewClientConn(conn, addr, config)
}

// SFTPStatter runs lstat on the remote host. It satisfies scanner.Statter.
type SFTPStatter struct {
	client sftpClient
	closer io.Closer
}

// Dial connects to cfg.Target and starts the SFTP subsystem.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*SFTPStatter, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client, closer, err := dialRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected", "target", cfg.Target, "port", cfg.Port)
	return &SFTPStatter{client: client, closer: closer}, nil
}

// Lstat queries name on the remote host without following symlinks. The
// returned FileInfo reports the remote uid and gid through Ownership.
func (s *SFTPStatter) Lstat(name string) (os.FileInfo, error) {
	info, err := s.client.Lstat(name)
	if err != nil {
		return nil, err
	}
	return withOwnership(info), nil
}

// Close shuts down the SFTP session and the SSH connection.
func (s *SFTPStatter) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ownedInfo exposes the uid and gid carried in an SFTP attribute block.
type ownedInfo struct {
	os.FileInfo
	uid, gid uint32
}

func (o ownedInfo) Ownership() (uint32, uint32, bool) {
	return o.uid, o.gid, true
}

func withOwnership(info os.FileInfo) os.FileInfo {
	st, ok := info.Sys().(*sftp.FileStat)
	if !ok || st == nil {
		return info
	}
	return ownedInfo{FileInfo: info, uid: st.UID, gid: st.GID}
}

func dialSFTP(ctx context.Context, cfg Config) (sftpClient, io.Closer, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, nil, fmt.Errorf("ssh port must be between 1 and 65535")
	}

	user, host, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, nil, err
	}

	hostCB, err := hostKeyCallback(host, cfg.Port, cfg.BatchMode)
	if err != nil {
		return nil, nil, err
	}

	auth, err := buildAuthMethods(user, host, cfg.BatchMode)
	if err != nil {
		return nil, nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostCB,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	sshClient, err := connectSSH(dialCtx, addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("cannot start SFTP subsystem: %w", err)
	}

	return client, &remoteCloser{ssh: sshClient, sftp: client}, nil
}

func connectSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Cancellation must interrupt the handshake and authentication.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c, chans, reqs, err := sshNewClientConn(conn, addr, config)
	close(done)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

type remoteCloser struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (c *remoteCloser) Close() error {
	var retErr error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil {
			retErr = err
		}
	}
	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}
	return retErr
}
