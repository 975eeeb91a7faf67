// Package cli implements the zenscan command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nonibytes/zenscan/internal/cliopt"
	"github.com/nonibytes/zenscan/internal/config"
	"github.com/nonibytes/zenscan/pkg/zenscan"
	"github.com/nonibytes/zenscan/pkg/zenscan/store"
)

// app is the state shared by every command after the root has loaded
// configuration.
type app struct {
	g      cliopt.GlobalOptions
	cfg    *config.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) format() OutputFormat { return ParseOutputFormat(a.g.Format) }

func (a *app) openOptions() zenscan.OpenOptions {
	opts := zenscan.OpenOptionsFromConfig(a.cfg)
	opts.Logger = a.log
	return opts
}

func (a *app) openClient(ctx context.Context) (*zenscan.Client, error) {
	return zenscan.Open(ctx, a.openOptions())
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := zenscan.OpenStore(ctx, a.openOptions())
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no local store configured (store.backend is none)")
	}
	return st, nil
}

// NewRootCommand builds the command tree writing to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{g: cliopt.DefaultGlobalOptions(), stdin: stdin, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "zenscan",
		Short: "Zenith scan criteria codec and scan lifecycle client",
		Long: `zenscan encodes and decodes Zenith scan criteria, manages saved scans
on a Zenith server and keeps a local copy of the scan list in sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cliopt.BindGlobalFlags(cmd.PersistentFlags(), &a.g)

	cmd.AddCommand(newCriteriaCommand(a), newScanCommand(a), newScansCommand(a))
	return cmd
}

func (a *app) load() error {
	bootstrap := config.LogConfig{Level: a.g.LogLevel, Format: "text"}.NewLogger(a.stderr)
	cfg, err := config.NewLoader(bootstrap).Load(a.g.ConfigPath)
	if err != nil {
		return err
	}
	a.g.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Log.NewLogger(a.stderr)
	return nil
}

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	cmd.SetArgs(argv)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
