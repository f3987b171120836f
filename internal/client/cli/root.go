package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Opener builds the App for one command invocation.
type Opener func(ctx context.Context) (*App, error)

// NewRootCommand returns the formai command tree. The App is opened lazily,
// so help and usage never touch the local database.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "formai",
		Short:         "Scan gym equipment and learn how to use it",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: withApp(open, func(ctx context.Context, a *App, _ []string) error {
			a.Root(ctx)
			return nil
		}),
	}
	root.FParseErrWhitelist.UnknownFlags = true
	registerConfigFlags(root)

	var email string
	subscribe := &cobra.Command{
		Use:       "subscribe <monthly|annual>",
		Short:     "Open a checkout session for a plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"monthly", "annual"},
		RunE: withApp(open, func(ctx context.Context, a *App, args []string) error {
			return a.Subscribe(ctx, args[0], email)
		}),
	}
	subscribe.Flags().StringVar(&email, "email", "", "email sent with the checkout session")

	var force bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset scan counters and subscription state",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(ctx context.Context, a *App, _ []string) error {
			return a.Reset(ctx, force)
		}),
	}
	reset.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	root.AddCommand(
		&cobra.Command{
			Use:   "scan <file>",
			Short: "Analyze a photo of a machine",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(open, func(ctx context.Context, a *App, args []string) error {
				return a.Scan(ctx, args[0])
			}),
		},
		simple(open, "status", "Show plan and remaining free scans", (*App).Status),
		simple(open, "health", "Check the backend", (*App).Health),
		simple(open, "history", "List recent scans", (*App).History),
		simple(open, "plans", "List subscription plans", (*App).Plans),
		simple(open, "confirm", "Confirm a completed checkout", (*App).Confirm),
		subscribe,
		&cobra.Command{
			Use:   "settings [dark|notifications on|off]",
			Short: "Show or change settings",
			Args:  cobra.RangeArgs(0, 2),
			RunE: withApp(open, func(ctx context.Context, a *App, args []string) error {
				return a.Settings(ctx, args)
			}),
		},
		reset,
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE: withApp(open, func(ctx context.Context, a *App, _ []string) error {
				a.Root(ctx)
				return nil
			}),
		},
	)
	return root
}

// registerConfigFlags declares the flags read by config.LoadConfig so cobra
// accepts them. Their values here are unused.
func registerConfigFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringP("backend-url", "a", "", "backend base URL")
	fs.StringP("grpc-health", "g", "", "gRPC health address")
	fs.StringP("data-dir", "d", "", "data directory")
	fs.IntP("free-limit", "l", 0, "free scan limit (0 = platform default)")
	fs.StringP("upload-timeout", "t", "", "upload timeout, e.g. 15s")
	fs.IntP("online-interval", "i", 0, "online check interval in seconds")
	fs.BoolP("verbose", "v", false, "verbose logging")
	fs.StringP("config", "c", "", "JSON config file")
}

func simple(open Opener, use, short string, fn func(*App, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(ctx context.Context, a *App, _ []string) error {
			return fn(a, ctx)
		}),
	}
}

func withApp(open Opener, fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := open(ctx)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cannot start FormAI:", err)
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.log.Warn(ctx, "close failed", "error", cerr.Error())
			}
		}()

		if err := fn(ctx, a, args); err != nil {
			a.log.Debug(ctx, "command failed", "command", cmd.Name(), "error", err.Error())
			fmt.Fprintln(cmd.ErrOrStderr(), UserMessage(err))
			return err
		}
		return nil
	}
}
