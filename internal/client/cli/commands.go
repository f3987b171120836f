package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/entitlement"
	"github.com/dmitrijs2005/formai/internal/client/health"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/filex"
)

// Scan analyzes the image at path.
func (a *App) Scan(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Analyzing %s (%s)...\n", filepath.Base(path), filex.FormatFileSize(int64(len(data))))

	_, err = a.coordinator.PerformScan(ctx, data, a.printScan)
	if err != nil {
		return err
	}

	snap := a.coordinator.Snapshot()
	if snap.State == entitlement.StateFreeAvailable {
		fmt.Fprintf(a.out, "%d free scan(s) left.\n", snap.ScansRemaining())
	}
	return nil
}

func (a *App) printScan(r entitlement.ScanResult) {
	out := r.Outcome
	if out.Analysis.MachineName != "" {
		fmt.Fprintf(a.out, "\n%s\n", out.Analysis.MachineName)
	}
	fmt.Fprintf(a.out, "%s\n\n", out.Analysis.Text)

	img := out.Image
	if out.Fallback != "" {
		fmt.Fprintf(a.out, "Uploaded original image (%s).\n", filex.FormatFileSize(int64(img.OptimizedSize)))
		return
	}
	fmt.Fprintf(a.out, "Image: %s -> %s (%s)\n",
		filex.FormatFileSize(int64(img.OriginalSize)), filex.FormatFileSize(int64(img.OptimizedSize)),
		reductionLabel(img.OriginalSize, img.OptimizedSize))
}

// Status prints the entitlement state.
func (a *App) Status(ctx context.Context) error {
	snap := a.coordinator.Snapshot()
	ent := snap.Entitlement

	switch snap.State {
	case entitlement.StatePremium:
		plan := ent.Plan
		if plan == "" {
			plan = "premium"
		}
		fmt.Fprintf(a.out, "Plan: %s\n", plan)
		if ent.ExpiresAt != nil {
			fmt.Fprintf(a.out, "Renews or ends: %s\n", ent.ExpiresAt.Local().Format(time.DateOnly))
		}
	default:
		fmt.Fprintf(a.out, "Plan: free (%d of %d scans used)\n", min(ent.ScansUsed, snap.FreeScanLimit), snap.FreeScanLimit)
		if snap.State == entitlement.StateFreeExhausted {
			fmt.Fprintln(a.out, "No free scans left. Run 'plans' to upgrade.")
		}
	}
	if m := a.mode(); m != ModeUnknown {
		fmt.Fprintf(a.out, "Server: %s\n", m)
	}
	return nil
}

// Health checks the backend.
func (a *App) Health(ctx context.Context) error {
	r := a.validator.CheckHealth(ctx)
	if !r.OK {
		fmt.Fprintln(a.out, r.ErrorMessage)
		a.setMode(ctx, ModeOffline)
		return nil
	}
	a.setMode(ctx, ModeOnline)

	fmt.Fprintf(a.out, "Server OK (HTTP %d, %d ms)\n", r.HTTPStatus, r.Elapsed.Milliseconds())
	if len(r.Routes) > 0 {
		fmt.Fprintf(a.out, "Routes: %s\n", strings.Join(r.Routes, ", "))
	}
	if a.validator.CheckEndpointExists(ctx, health.AnalyzePath) {
		fmt.Fprintln(a.out, "Analysis: available")
	} else {
		fmt.Fprintln(a.out, "Analysis: not available")
	}
	return nil
}

// History lists recent scans, newest first.
func (a *App) History(ctx context.Context) error {
	list, err := a.coordinator.History(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No scans yet.")
		return nil
	}
	for _, s := range list {
		name := s.MachineName
		if name == "" {
			name = "Unknown machine"
		}
		fmt.Fprintf(a.out, "%s  %-24s %s\n", s.Timestamp.Local().Format("2006-01-02 15:04"), name, firstLine(s.ResultText, 60))
	}
	return nil
}

func firstLine(s string, limit int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}

// Plans lists subscription plans.
func (a *App) Plans(ctx context.Context) error {
	plans, err := a.billing.Plans(ctx)
	if err != nil {
		return err
	}
	for _, p := range plans {
		fmt.Fprintf(a.out, "%-8s %s%s\n", p.Plan, p.Name, formatPrice(p))
	}
	return nil
}

func formatPrice(p models.Product) string {
	if p.Amount <= 0 {
		return ""
	}
	s := fmt.Sprintf("  %.2f %s", float64(p.Amount)/100, strings.ToUpper(p.Currency))
	if p.Interval != "" {
		s += "/" + p.Interval
	}
	return s
}

// Subscribe opens a checkout session for plan. A non-empty email is stored
// first and sent with the session.
func (a *App) Subscribe(ctx context.Context, plan, email string) error {
	if email != "" {
		if err := a.identity.SetEmail(ctx, email); err != nil {
			return err
		}
	}
	url, err := a.billing.CheckoutURL(ctx, plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Open this link to complete checkout:\n%s\nThen run 'confirm'.\n", url)
	return nil
}

// Confirm refreshes the subscription after checkout.
func (a *App) Confirm(ctx context.Context) error {
	ok, err := a.coordinator.ConfirmPurchase(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "No active subscription yet. Finish checkout and try again.")
		return nil
	}
	fmt.Fprintln(a.out, "Subscription active. Unlimited scans unlocked.")
	if !a.coordinator.Snapshot().WelcomeSeen {
		fmt.Fprintln(a.out, "Welcome to FormAI Premium!")
		return a.coordinator.MarkWelcomeSeen(ctx)
	}
	return nil
}

// Settings shows the settings, or changes one: "dark on|off",
// "notifications on|off".
func (a *App) Settings(ctx context.Context, args []string) error {
	s, err := a.settings.Settings(ctx)
	if err != nil {
		return err
	}

	if len(args) == 2 {
		on, ok := parseSwitch(args[1])
		if !ok {
			return errUsage("settings [dark|notifications on|off]")
		}
		switch args[0] {
		case "dark":
			s.DarkMode = on
		case "notifications":
			s.Notifications = on
		default:
			return errUsage("settings [dark|notifications on|off]")
		}
		if err := a.settings.SaveSettings(ctx, s); err != nil {
			return err
		}
	} else if len(args) != 0 {
		return errUsage("settings [dark|notifications on|off]")
	}

	fmt.Fprintf(a.out, "Dark mode: %s\nNotifications: %s\n", onOff(s.DarkMode), onOff(s.Notifications))
	return nil
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Reset clears scan counters, premium status and one-time flags.
func (a *App) Reset(ctx context.Context, force bool) error {
	if !force {
		ok, err := GetConfirmation(a.reader, "Reset scan counters and subscription status?", a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Nothing changed.")
			return nil
		}
	}
	if err := a.coordinator.ResetForDebug(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Local state reset.")
	return nil
}

type usageError string

func errUsage(s string) error { return usageError(s) }

func (u usageError) Error() string { return "usage: " + string(u) }

// reductionLabel renders the size change as a percentage of the original.
func reductionLabel(original, optimized int) string {
	if original <= 0 {
		return "no change"
	}
	pct := int(math.Round(100 * float64(original-optimized) / float64(original)))
	switch {
	case pct > 0:
		return fmt.Sprintf("%d%% smaller", pct)
	case pct < 0:
		return fmt.Sprintf("%d%% larger", -pct)
	default:
		return "no change"
	}
}
