// xriep is the terminal client for the xriepv1 backend: login, the admin dashboard, number requests and
// the media downloaders.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xriepv1/client/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli carries the state shared by every command of one invocation.
type cli struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
	in      io.Reader

	logger *zap.Logger
	app    *app
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "xriep",
		Short: "xriepv1 client",
		Long: `xriep talks to the xriepv1 backend.

Log in once; the session is kept on disk (or in the configured database) and restored on the next
run. Admins manage accounts and the request queue, users file WhatsApp number requests and try the
TikTok and Instagram downloaders.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel, c.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			zap.ReplaceGlobals(logger)

			a, err := newApp(cmd.Context(), cfg, logger, c.out)
			if err != nil {
				return err
			}
			c.app = a
			a.start(cmd.Context())
			return nil
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetIn(c.in)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newLoginCmd(c), newLogoutCmd(c), newStatusCmd(c), newHomeCmd(c), newDoctorCmd(c))
	root.AddCommand(newUsersCmd(c), newRequestsCmd(c))
	root.AddCommand(newRequestCmd(c), newDownloadCmd(c))
	return root
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

// run executes args and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut}
	root := newRootCmd(c)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		c.app.close()
		if err != nil && c.app.alerts.failed() {
			// Already shown as an alert.
			err = errAlerted
		}
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if err == nil {
		return 0
	}
	if !errors.Is(err, errAlerted) {
		fmt.Fprintln(errOut, "error:", err)
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
