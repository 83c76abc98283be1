package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"hwpanel-go/services/config"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Process exit codes. A supervisor restarts the panel on exitRestart.
const (
	exitOK      = 0
	exitFailed  = 1
	exitRestart = 3
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type flags struct {
	configFile string
	device     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "hwpanel",
		Short:         "Touch panel showing live hardware metrics of a remote host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "config file merged over the device defaults")
	root.PersistentFlags().StringVarP(&f.device, "device", "d", config.DefaultDevice, "device profile (sim, desk)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Bring the panel up and run until signalled",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(f)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return run(ctx, cfg, os.Stderr)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "hwpanel %s (commit %s, built %s, %s)\n",
					version, commit, buildDate, runtime.Version())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the resolved configuration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(f)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			},
		},
	)
	return root
}

func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(config.Options{Device: f.device, File: f.configFile})
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg, nil
}

func execute(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(os.Stderr, err)
	return exitFailed
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}
