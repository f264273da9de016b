package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

var defaultPrivateKeyFiles = []string{
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
}

// Standard input carries the path list, so prompts go through the
// controlling terminal instead.
var openConsole = func() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

func parseSSHTarget(target string) (string, string, error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("remote target is required")
	}

	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", fmt.Errorf("invalid remote target %q: expected user@host", target)
	}
	return user, host, nil
}

// hostVerifier checks presented keys against ~/.ssh/known_hosts and, when
// interactive, asks before trusting a new or changed key.
type hostVerifier struct {
	path  string
	host  string
	port  int
	batch bool
	ask   func(prompt string) (bool, error)
	check ssh.HostKeyCallback
}

func hostKeyCallback(host string, port int, batchMode bool) (ssh.HostKeyCallback, error) {
	path, err := ensureKnownHostsFile()
	if err != nil {
		return nil, err
	}
	check, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load known_hosts: %w", err)
	}
	v := &hostVerifier{path: path, host: host, port: port, batch: batchMode, ask: promptYesNo, check: check}
	return v.verify, nil
}

func (v *hostVerifier) verify(hostname string, remote net.Addr, key ssh.PublicKey) error {
	err := v.check(hostname, remote, key)
	if err == nil {
		return nil
	}
	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		return fmt.Errorf("host key verification failed: %w", err)
	}
	if len(keyErr.Want) == 0 {
		return v.trustNew(key)
	}
	return v.replaceChanged(keyErr.Want, key)
}

func (v *hostVerifier) trustNew(key ssh.PublicKey) error {
	address := knownHostAddress(v.host, v.port)
	presented := ssh.FingerprintSHA256(key)
	if v.batch {
		return fmt.Errorf("unknown host key for %s (%s); run ssh once to trust it or disable --ssh-batch", address, presented)
	}
	ok, err := v.ask(fmt.Sprintf(
		"The authenticity of host '%s' can't be established.\n%s key fingerprint is %s.\nTrust this host and continue connecting (yes/no)? ",
		address, key.Type(), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key for %s was not trusted", address)
	}
	return addKnownHost(v.path, v.host, v.port, key)
}

func (v *hostVerifier) replaceChanged(want []knownhosts.KnownKey, key ssh.PublicKey) error {
	address := knownHostAddress(v.host, v.port)
	presented := ssh.FingerprintSHA256(key)
	expected := make([]string, 0, len(want))
	for _, w := range want {
		expected = append(expected, ssh.FingerprintSHA256(w.Key))
	}
	if v.batch {
		return fmt.Errorf("host key mismatch for %s: expected %s, presented %s",
			address, strings.Join(expected, ", "), presented)
	}
	ok, err := v.ask(fmt.Sprintf(
		"WARNING: HOST KEY CHANGED for '%s'.\nExpected: %s\nPresented: %s\nReplace stored key and continue (yes/no)? ",
		address, strings.Join(expected, ", "), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key mismatch for %s", address)
	}
	return replaceKnownHost(v.path, v.host, v.port, key)
}

func ensureKnownHostsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for known_hosts: %w", err)
	}

	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create ~/.ssh directory: %w", err)
	}

	path := filepath.Join(sshDir, "known_hosts")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return "", fmt.Errorf("cannot create known_hosts: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("cannot access known_hosts: %w", err)
	}
	return path, nil
}

func knownHostAddress(host string, port int) string {
	if port == defaultPort {
		return host
	}
	return fmt.Sprintf("[%s]:%d", host, port)
}

func matchesKnownHost(field, host string, port int) bool {
	bracketed := fmt.Sprintf("[%s]:%d", host, port)
	for _, h := range strings.Split(field, ",") {
		if h == bracketed || (port == defaultPort && h == host) {
			return true
		}
	}
	return false
}

func addKnownHost(path, host string, port int, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("cannot update known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownHostAddress(host, port)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("cannot write known_hosts entry: %w", err)
	}
	return nil
}

func replaceKnownHost(path, host string, port int, key ssh.PublicKey) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read known_hosts: %w", err)
	}

	updated := removeKnownHostEntries(data, host, port)
	if len(updated) > 0 && updated[len(updated)-1] != '\n' {
		updated = append(updated, '\n')
	}
	updated = append(updated, knownhosts.Line([]string{knownHostAddress(host, port)}, key)...)
	updated = append(updated, '\n')

	if err := os.WriteFile(path, updated, 0o600); err != nil {
		return fmt.Errorf("cannot write known_hosts: %w", err)
	}
	return nil
}

// removeKnownHostEntries drops every entry naming host on port. Comments,
// blank lines and marker lines without a host field are kept.
func removeKnownHostEntries(data []byte, host string, port int) []byte {
	lines := strings.Split(string(data), "\n")
	keep := lines[:0]
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.HasPrefix(fields[0], "@") {
			fields = fields[1:]
		}
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			keep = append(keep, line)
			continue
		}
		if !matchesKnownHost(fields[0], host, port) {
			keep = append(keep, line)
		}
	}
	return []byte(strings.Join(keep, "\n"))
}

func promptYesNo(prompt string) (bool, error) {
	tty, err := openConsole()
	if err != nil {
		return false, fmt.Errorf("cannot prompt for host key trust: %w", err)
	}
	defer tty.Close()
	return askYesNo(tty, tty, prompt)
}

func askYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("host key prompt failed: %w", err)
	}
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes", nil
}

func buildAuthMethods(user, host string, batchMode bool) ([]ssh.AuthMethod, error) {
	methods := make([]ssh.AuthMethod, 0, 4)

	if m := agentAuthMethod(); m != nil {
		methods = append(methods, m)
	}
	if signers := loadDefaultKeySigners(); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if !batchMode {
		p := &passwordPrompter{user: user, host: host, read: readPassword}
		methods = append(methods,
			ssh.PasswordCallback(p.password),
			ssh.KeyboardInteractive(p.keyboardInteractive),
		)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH auth methods available (configure ssh-agent or private keys, or disable --ssh-batch)")
	}
	return methods, nil
}

func agentAuthMethod() ssh.AuthMethod {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	if sock == "" {
		return nil
	}
	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return agent.NewClient(conn).Signers()
	})
}

// loadDefaultKeySigners skips missing, unreadable and passphrase-protected keys.
func loadDefaultKeySigners() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var signers []ssh.Signer
	for _, name := range defaultPrivateKeyFiles {
		pem, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

func readPassword(prompt string) (string, error) {
	tty, err := openConsole()
	if err != nil {
		return "", fmt.Errorf("cannot prompt for SSH password: %w", err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for SSH password: no terminal")
	}
	fmt.Fprint(tty, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(tty)
	if err != nil {
		return "", fmt.Errorf("password prompt failed: %w", err)
	}
	return string(b), nil
}

// passwordPrompter asks once and reuses the answer for later challenges.
type passwordPrompter struct {
	user, host string
	read       func(prompt string) (string, error)

	cached  string
	hasPass bool
}

func (p *passwordPrompter) password() (string, error) {
	if p.hasPass {
		return p.cached, nil
	}
	pass, err := p.read(fmt.Sprintf("%s@%s's password: ", p.user, p.host))
	if err != nil {
		return "", err
	}
	p.cached, p.hasPass = pass, true
	return pass, nil
}

func (p *passwordPrompter) keyboardInteractive(_, _ string, questions []string, echos []bool) ([]string, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	pass, err := p.password()
	if err != nil {
		return nil, err
	}
	answers := make([]string, len(questions))
	for i := range questions {
		if i < len(echos) && echos[i] {
			continue
		}
		answers[i] = pass
	}
	return answers, nil
}
