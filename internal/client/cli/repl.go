package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formai/internal/client/entitlement"
	"golang.org/x/sync/errgroup"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Scan(ctx context.Context, path string) error
	Status(ctx context.Context) error
	Health(ctx context.Context) error
	History(ctx context.Context) error
	Plans(ctx context.Context) error
	Subscribe(ctx context.Context, plan, email string) error
	Confirm(ctx context.Context) error
	Settings(ctx context.Context, args []string) error
	Reset(ctx context.Context, force bool) error
}

const replHelp = "Available commands: scan <file>, status, health, history, plans, " +
	"subscribe <monthly|annual> [email], confirm, settings [dark|notifications on|off], reset, exit"

// runREPL reads one command per line and dispatches it to a. Errors from
// handlers are shown through UserMessage and do not stop the loop. The loop
// exits on EOF or "exit"/"quit". An empty statusFn result hides the prompt.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if prompt := statusFn(); prompt != "" {
			printlnFn(prompt)
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help", "?":
			printlnFn(replHelp)

		case "scan":
			if len(args) != 1 {
				printlnFn("Usage: scan <file>")
				continue
			}
			err = a.Scan(ctx, args[0])

		case "status":
			err = a.Status(ctx)

		case "health":
			err = a.Health(ctx)

		case "history", "h":
			err = a.History(ctx)

		case "plans":
			err = a.Plans(ctx)

		case "subscribe":
			if len(args) < 1 || len(args) > 2 {
				printlnFn("Usage: subscribe <monthly|annual> [email]")
				continue
			}
			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			err = a.Subscribe(ctx, args[0], email)

		case "confirm":
			err = a.Confirm(ctx)

		case "settings":
			err = a.Settings(ctx, args)

		case "reset":
			err = a.Reset(ctx, len(args) == 1 && args[0] == "-f")

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(UserMessage(err))
		}
	}
}

func (a *App) getStatus() string {
	var parts []string
	switch snap := a.coordinator.Snapshot(); snap.State {
	case entitlement.StatePremium:
		parts = append(parts, "premium")
	case entitlement.StateFreeAvailable, entitlement.StateFreeExhausted:
		parts = append(parts, fmt.Sprintf("%d free", snap.ScansRemaining()))
	}
	if m := a.mode(); m != ModeUnknown {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root runs the interactive loop until the user exits or stdin closes.
func (a *App) Root(ctx context.Context) {
	interactive := stdinIsInteractive()
	if interactive {
		printlnFn("Welcome to FormAI (type 'help' for commands)")
	}
	a.onboarding(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Root returns only after the watcher has stopped.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
		return nil
	})

	statusFn := func() string { return "" }
	if interactive {
		statusFn = func() string { return fmt.Sprintf("formai %s> ", a.getStatus()) }
	}
	runREPL(gctx, a, statusFn, bufio.NewScanner(a.reader))

	cancel()
	_ = g.Wait()
}

func (a *App) onboarding(ctx context.Context) {
	done, err := a.settings.OnboardingCompleted(ctx)
	if err != nil || done {
		return
	}
	fmt.Fprintln(a.out, "Take a photo of a gym machine and run 'scan <file>' to learn how to use it.")
	if snap := a.coordinator.Snapshot(); snap.State != entitlement.StatePremium {
		fmt.Fprintf(a.out, "You have %d free scan(s).\n", snap.ScansRemaining())
	}
	if err := a.settings.CompleteOnboarding(ctx); err != nil {
		a.log.Warn(ctx, "failed to store onboarding flag", "error", err.Error())
	}
}

var _ execIface = (*App)(nil)
