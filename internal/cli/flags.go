package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// onceFlag is a boolean flag that may be given at most once.
type onceFlag struct {
	label    string
	value    *bool
	repeated bool
}

var _ pflag.Value = (*onceFlag)(nil)

func (f *onceFlag) String() string { return strconv.FormatBool(f.value != nil && *f.value) }

func (f *onceFlag) Type() string { return "bool" }

func (f *onceFlag) IsBoolFlag() bool { return true }

func (f *onceFlag) Set(s string) error {
	if *f.value {
		f.repeated = true
		return f.err()
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f.value = v
	return nil
}

func (f *onceFlag) err() error {
	return fmt.Errorf("%s provided more than once.", f.label)
}

// OnceOption adjusts a flag registered with OnceVarP.
type OnceOption func(f *onceFlag, name, short string)

// WithLongName names both spellings in the repeated-flag error,
// as in "-e or --epoch provided more than once.".
func WithLongName() OnceOption {
	return func(f *onceFlag, name, short string) {
		f.label = "-" + short + " or --" + name
	}
}

// OnceVarP registers a boolean flag on cmd that fails parsing when repeated.
func OnceVarP(cmd *cobra.Command, p *bool, name, short, usage string, opts ...OnceOption) {
	f := &onceFlag{label: "-" + short, value: p}
	for _, opt := range opts {
		opt(f, name, short)
	}
	pf := cmd.Flags().VarPF(f, name, short, usage)
	pf.NoOptDefVal = "true"
}

// repeatedOnceFlag reports the first onceFlag on cmd that was given twice.
func repeatedOnceFlag(cmd *cobra.Command) error {
	var found error
	cmd.Flags().VisitAll(func(pf *pflag.Flag) {
		if f, ok := pf.Value.(*onceFlag); ok && f.repeated && found == nil {
			found = f.err()
		}
	})
	return found
}

// commonFlags are registered on every tool.
type commonFlags struct {
	configPath string
	verbose    bool
	version    bool
	chunkSize  string
	sshTarget  string
	sshPort    int
	sshBatch   bool
	sshTimeout time.Duration
}

func (f *commonFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "configuration file (default: mtimeutils.yaml in ., the user config dir or $HOME)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.StringVar(&f.chunkSize, "chunk-size", "", "stdin read size, e.g. 64KiB")
	fs.StringVar(&f.sshTarget, "ssh", "", "stat paths on user@host over SFTP")
	fs.IntVar(&f.sshPort, "ssh-port", 22, "SSH port for --ssh")
	fs.BoolVar(&f.sshBatch, "ssh-batch", false, "disable SSH password and host key prompts")
	fs.DurationVar(&f.sshTimeout, "ssh-timeout", 15*time.Second, "SSH connection timeout")
}

// validateSSHTarget rejects destinations that cannot name a single host.
func validateSSHTarget(raw string) error {
	user, host, ok := strings.Cut(raw, "@")
	if !ok || user == "" || host == "" || strings.Contains(host, "@") {
		return fmt.Errorf("invalid --ssh target %q: expected user@host", raw)
	}
	if strings.HasPrefix(user, "-") || strings.HasPrefix(host, "-") {
		return fmt.Errorf("invalid --ssh target %q", raw)
	}
	if strings.ContainsAny(raw, " \t\n\r/\\") {
		return fmt.Errorf("invalid --ssh target %q: unexpected character", raw)
	}
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		switch {
		case end == -1:
			return fmt.Errorf("invalid --ssh target %q: malformed bracketed host", raw)
		case end == 1:
			return fmt.Errorf("invalid --ssh target %q: empty host", raw)
		case end != len(host)-1:
			return fmt.Errorf("--ssh target %q must not include :port; use --ssh-port", raw)
		}
		return nil
	}
	if strings.Contains(host, "]") {
		return fmt.Errorf("invalid --ssh target %q: malformed bracketed host", raw)
	}
	if looksLikeHostPort(host) {
		return fmt.Errorf("--ssh target %q must not include :port; use --ssh-port", raw)
	}
	return nil
}

func looksLikeHostPort(host string) bool {
	if strings.Count(host, ":") != 1 {
		return false
	}
	_, port, _ := strings.Cut(host, ":")
	return isAllDigits(port)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
