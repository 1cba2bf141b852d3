package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"electoral-app/internal/app"
	"electoral-app/internal/common"
	"electoral-app/internal/config"
	"electoral-app/internal/view"
)

// options are the persistent flags
type options struct {
	apiURL  string
	verbose bool
}

var errNoSession = errors.New("no hay sesión activa, usá `electoral login`")

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "electoral",
		Short:         "Electoral campaign coordination client",
		Long:          `A command-line client for the campaign backend: accounts, emergency reports and the admin dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (overrides ELECTORAL_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every API request")

	// Session commands
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newRecoverCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newWhoamiCmd(opts))

	// Pages
	rootCmd.AddCommand(newProfileCmd(opts))
	rootCmd.AddCommand(newNavCmd(opts))
	rootCmd.AddCommand(newEmergencyCmd(opts))
	rootCmd.AddCommand(newMessagesCmd(opts))
	rootCmd.AddCommand(newAccessCmd(opts))
	rootCmd.AddCommand(newAdminCmd(opts))
	rootCmd.AddCommand(newPhotoCmd(opts))

	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

// loadConfig applies flags, then any command overrides, over the environment
// and validates the result once
func loadConfig(opts *options, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.FromEnv()
	if opts.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(opts.apiURL, "/")
	}
	if opts.verbose {
		cfg.Logging.Verbose = true
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Logging.Verbose {
		log.Printf("⚙️  Configuration: %s", cfg)
	}
	return cfg, nil
}

// printNotifier reports alerts on stdout and inline errors on stderr
type printNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (p printNotifier) Alert(msg string)  { fmt.Fprintf(p.out, "🔔 %s\n", msg) }
func (p printNotifier) Inline(msg string) { fmt.Fprintf(p.errOut, "⚠️  %s\n", msg) }
func (p printNotifier) ClearInline()      {}

func newApp(cmd *cobra.Command, opts *options) (*app.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Deps{
		Notifier: printNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()},
	})
}

// withApp builds the app graph and restores the stored session
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app.App) error) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.Restore(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", a.AuthState().Error)
	}
	return fn(ctx, a)
}

// withSession is withApp for commands that need a signed-in user
func withSession(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
		if !a.Session().Authenticated() {
			return errNoSession
		}
		return fn(ctx, a)
	})
}

func printTree(cmd *cobra.Command, n *view.Node) error {
	return view.Text(cmd.OutOrStdout(), n)
}

// exitCode tells scripts apart a rejected input, a missing or refused
// session and any other failure
func exitCode(err error) int {
	if errors.Is(err, errNoSession) {
		return 3
	}
	switch common.CodeOf(err) {
	case common.ErrValidation, common.ErrBusy:
		return 2
	case common.ErrAuth, common.ErrNotAuthenticated, common.ErrAccess:
		return 3
	default:
		return 1
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(exitCode(err))
	}
}
