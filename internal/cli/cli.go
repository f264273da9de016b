// Package cli holds the command wiring shared by the mtimeutils tools:
// flags, configuration, logging, input collection and exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/mtimeutils/internal/config"
	"github.com/sadopc/mtimeutils/internal/identity"
	"github.com/sadopc/mtimeutils/internal/ingest"
	"github.com/sadopc/mtimeutils/internal/model"
	"github.com/sadopc/mtimeutils/internal/ops"
	"github.com/sadopc/mtimeutils/internal/remote"
	"github.com/sadopc/mtimeutils/internal/scanner"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitAllocMemory = 12
)

// ErrUsage marks errors caused by how a tool was invoked.
var ErrUsage = errors.New("usage error")

// App identifies a tool.
type App struct {
	Name    string
	Short   string
	Long    string
	Version string
}

// Emitter prints records that were gathered from standard input. Records
// are in input order and include failed stats.
type Emitter func(env *Env, records []model.Record) error

// Command describes one tool. Setup registers tool-specific flags and
// returns the emitter that runs once flags are parsed.
type Command struct {
	App
	Example string
	Setup   func(cmd *cobra.Command) Emitter
}

// Env is what an Emitter gets to work with.
type Env struct {
	Out    *ops.Printer
	Config *config.Config
	Logger *slog.Logger
	Now    time.Time

	owners identity.Resolver
	groups identity.Resolver
}

// Owners resolves user ids to names.
func (e *Env) Owners() identity.Resolver {
	if e.owners == nil {
		e.owners = identity.NewOwners(e.Config.IdentityCacheSize)
	}
	return e.owners
}

// Groups resolves group ids to names.
func (e *Env) Groups() identity.Resolver {
	if e.groups == nil {
		e.groups = identity.NewGroups(e.Config.IdentityCacheSize)
	}
	return e.groups
}

// Main runs c against the process arguments and exits.
func Main(c Command) {
	os.Exit(Execute(c, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Execute runs c with args and returns the process exit code.
func Execute(c Command, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := &runner{cmd: c, stdin: stdin, stdout: stdout, stderr: stderr}
	root := r.build()
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	if !r.started {
		err = usage(err)
	}
	return r.report(root, err)
}

type runner struct {
	cmd    Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags   commonFlags
	emit    Emitter
	started bool
}

func (r *runner) build() *cobra.Command {
	root := &cobra.Command{
		Use:           r.cmd.Name + " [flags] < paths",
		Short:         r.cmd.Short,
		Long:          r.cmd.Long,
		Example:       r.cmd.Example,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.started = true
			return r.run(cmd)
		},
	}
	root.SetIn(r.stdin)
	root.SetOut(r.stderr)
	root.SetErr(r.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if dup := repeatedOnceFlag(cmd); dup != nil {
			err = dup
		}
		return usage(err)
	})
	root.CompletionOptions.DisableDefaultCmd = true

	r.flags.register(root)
	if r.cmd.Setup != nil {
		r.emit = r.cmd.Setup(root)
	}
	return root
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usage(fmt.Errorf("unexpected argument %q", args[0]))
	}
	return nil
}

func (r *runner) report(root *cobra.Command, err error) int {
	if errors.Is(err, ErrUsage) {
		fmt.Fprintf(r.stderr, "Error: %v\n", err)
		fmt.Fprint(r.stderr, root.UsageString())
		return ExitFailure
	}
	fmt.Fprintf(r.stderr, "Error: %v\n", err)
	if errors.Is(err, ingest.ErrTooLarge) {
		return ExitAllocMemory
	}
	return ExitFailure
}

// usageError marks err as a usage error while keeping its message.
type usageError struct{ err error }

func (e usageError) Error() string        { return e.err.Error() }
func (e usageError) Unwrap() error        { return e.err }
func (e usageError) Is(target error) bool { return target == ErrUsage }

func usage(err error) error {
	if err == nil || errors.Is(err, ErrUsage) {
		return err
	}
	return usageError{err: err}
}

func (r *runner) run(cmd *cobra.Command) error {
	if r.flags.version {
		fmt.Fprintf(r.stdout, "%s version %s\n", r.cmd.Name, r.cmd.Version)
		return nil
	}

	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(r.stderr, cfg.Level())

	var fs scanner.Statter = scanner.LocalFS{}
	if cfg.SSH.Target != "" {
		st, err := r.dial(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing remote connection", "error", err)
			}
		}()
		fs = st
	}

	in := ingest.New(ingest.WithChunkSize(cfg.ChunkBytes()))
	defer in.Release()

	g := scanner.NewGatherer(fs, r.stderr, logger)
	records, err := scanner.Collect(in, r.stdin, g)
	if err != nil {
		return err
	}
	if records == nil {
		logger.Debug("no input")
		return nil
	}

	sum := g.Last()
	logger.Debug("gathered",
		"paths", sum.Paths,
		"failed", sum.Failed,
		"input", humanize.IBytes(uint64(in.Len())),
		"duration", sum.Duration,
		"paths_per_second", sum.PathsPerSecond(),
	)

	env := &Env{
		Out:    ops.NewPrinter(r.stdout),
		Config: cfg,
		Logger: logger,
		Now:    time.Now(),
	}
	if r.emit != nil {
		if err := r.emit(env, records); err != nil {
			return err
		}
	}
	if err := env.Out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// loadConfig reads the configuration and applies explicitly set flags.
func (r *runner) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(r.flags.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("chunk-size") {
		if err := cfg.SetChunkSize(r.flags.chunkSize); err != nil {
			return nil, usage(err)
		}
	}
	if r.flags.verbose {
		cfg.SetLevel(slog.LevelDebug)
	}
	if fs.Changed("ssh") {
		if err := validateSSHTarget(r.flags.sshTarget); err != nil {
			return nil, usage(err)
		}
		cfg.SSH.Target = r.flags.sshTarget
	}
	if fs.Changed("ssh-port") {
		if r.flags.sshPort < 1 || r.flags.sshPort > 65535 {
			return nil, usage(config.ErrInvalidSSHPort)
		}
		cfg.SSH.Port = r.flags.sshPort
	}
	if fs.Changed("ssh-batch") {
		cfg.SSH.Batch = r.flags.sshBatch
	}
	if fs.Changed("ssh-timeout") && r.flags.sshTimeout > 0 {
		cfg.SSH.Timeout = r.flags.sshTimeout
	}
	return cfg, nil
}

func (r *runner) dial(cfg *config.Config, logger *slog.Logger) (*remote.SFTPStatter, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := remote.Dial(ctx, remote.Config{
		Target:    cfg.SSH.Target,
		Port:      cfg.SSH.Port,
		BatchMode: cfg.SSH.Batch,
		Timeout:   cfg.SSH.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("remote %s: %w", cfg.SSH.Target, err)
	}
	return st, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
