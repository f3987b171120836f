package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/formai/internal/client/entitlement"
)

type fakeExec struct {
	calls []string
	args  []string
	err   error
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, strings.Join(args, " "))
	return f.err
}

func (f *fakeExec) Scan(ctx context.Context, path string) error { return f.record("scan", path) }
func (f *fakeExec) Status(ctx context.Context) error             { return f.record("status") }
func (f *fakeExec) Health(ctx context.Context) error             { return f.record("health") }
func (f *fakeExec) History(ctx context.Context) error            { return f.record("history") }
func (f *fakeExec) Plans(ctx context.Context) error              { return f.record("plans") }
func (f *fakeExec) Subscribe(ctx context.Context, plan, email string) error {
	return f.record("subscribe", plan, email)
}
func (f *fakeExec) Confirm(ctx context.Context) error { return f.record("confirm") }
func (f *fakeExec) Settings(ctx context.Context, args []string) error {
	return f.record("settings", args...)
}
func (f *fakeExec) Reset(ctx context.Context, force bool) error {
	if force {
		return f.record("reset", "force")
	}
	return f.record("reset")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = v.(string)
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"scan leg-press.jpg",
		"status",
		"",
		"health",
		"h",
		"plans",
		"subscribe annual me@example.com",
		"confirm",
		"settings dark on",
		"reset -f",
		"exit",
		"status",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "formai> " }, bufio.NewScanner(input))

	want := []string{"scan", "status", "health", "history", "plans", "subscribe", "confirm", "settings", "reset"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}
	if exec.args[0] != "leg-press.jpg" || exec.args[5] != "annual me@example.com" || exec.args[8] != "force" {
		t.Fatalf("unexpected args %q", exec.args)
	}
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader("scan\nsubscribe\nfoobar\nquit\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	got := strings.Join(*out, "\n")
	for _, s := range []string{"Usage: scan <file>", "Usage: subscribe", "Unknown command: foobar", "Bye!"} {
		if !strings.Contains(got, s) {
			t.Fatalf("expected %q in output:\n%s", s, got)
		}
	}
}

func TestRunREPL_ShowsUserMessageOnError(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: entitlement.ErrPaywallRequired}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("scan a.jpg\n")))

	if len(*out) != 1 || (*out)[0] != UserMessage(entitlement.ErrPaywallRequired) {
		t.Fatalf("unexpected output %q", *out)
	}
}
