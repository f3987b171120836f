package entitlement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/client"
	"github.com/dmitrijs2005/formai/internal/client/imagestore"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/client/platform"
	"github.com/dmitrijs2005/formai/internal/client/repositories/history"
	"github.com/dmitrijs2005/formai/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/formai/internal/logging"
	"github.com/google/uuid"
)

// Scanner runs the optimize, validate and upload pipeline for one photo.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (*models.ScanOutcome, error)
}

// StatusSource reports the remote subscription status. client.Client
// satisfies it.
type StatusSource interface {
	SubscriptionStatus(ctx context.Context, userID string) (*models.SubscriptionStatus, error)
}

// Identity yields the user id sent with remote checks.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

// Deps are the collaborators of a Coordinator. Images may be nil.
type Deps struct {
	Metadata metadata.Repository
	History  history.Repository
	Images   imagestore.Store
	Status   StatusSource
	Scanner  Scanner
	Identity Identity
	Platform platform.Provider
	Logger   logging.Logger
}

type Config struct {
	// FreeScanLimit is the number of free scans; zero selects the platform default.
	FreeScanLimit int
	// TokenKey verifies HS256 entitlement tokens. Empty means decode only.
	TokenKey []byte
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	d        Deps
	limit    int
	tokenKey []byte
	log      logging.Logger

	mu          sync.Mutex
	state       models.EntitlementState
	status      State
	paywall     bool
	welcomeSeen bool
	firstScan   bool
	scanning    bool
	listeners   []func(PaywallEvent)
}

func New(d Deps, cfg Config) *Coordinator {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Platform == nil {
		d.Platform = platform.New(platform.VariantNative)
	}
	limit := cfg.FreeScanLimit
	if limit <= 0 {
		limit = d.Platform.DefaultFreeScanLimit()
	}
	return &Coordinator{
		d:        d,
		limit:    limit,
		tokenKey: cfg.TokenKey,
		log:      d.Logger.With("module", "entitlement"),
	}
}

// OnPaywall registers fn to be called, outside the lock, each time the
// paywall is raised.
func (c *Coordinator) OnPaywall(fn func(PaywallEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Init loads local state and then tries a remote refresh. Only local storage
// failures are returned.
func (c *Coordinator) Init(ctx context.Context) error {
	st, err := c.loadLocal(ctx)
	if err != nil {
		return fmt.Errorf("load entitlement: %w", err)
	}
	welcome, err := metadata.GetBool(ctx, c.d.Metadata, KeyWelcomeSeen)
	if err != nil {
		return fmt.Errorf("load entitlement: %w", err)
	}
	first, err := metadata.GetBool(ctx, c.d.Metadata, KeyFirstScanCompleted)
	if err != nil {
		return fmt.Errorf("load entitlement: %w", err)
	}

	c.mu.Lock()
	c.state = st
	c.welcomeSeen = welcome
	c.firstScan = first
	ev := c.recomputeLocked(ctx, ReasonPremiumEnded)
	c.mu.Unlock()
	c.emit(ev)

	c.log.Debug(ctx, "entitlement loaded", "state", c.State().String(), "scans_used", st.ScansUsed, "limit", c.limit)

	_ = c.RefreshEntitlement(ctx)
	return nil
}

func (c *Coordinator) loadLocal(ctx context.Context) (models.EntitlementState, error) {
	var st models.EntitlementState
	var err error
	m := c.d.Metadata

	if st.ScansUsed, err = metadata.GetInt(ctx, m, KeyScanCount); err != nil {
		return st, err
	}
	if st.IsPremium, err = metadata.GetBool(ctx, m, KeyPremium); err != nil {
		return st, err
	}
	if st.ExpiresAt, err = metadata.GetTime(ctx, m, KeyPremiumExpiresAt); err != nil {
		return st, err
	}
	if st.Plan, err = metadata.GetString(ctx, m, KeyPremiumPlan); err != nil {
		return st, err
	}
	if st.QuotaExceeded, err = metadata.GetBool(ctx, m, KeyQuotaExceeded); err != nil {
		return st, err
	}

	raw, err := metadata.GetString(ctx, m, KeyEntitlementToken)
	if err != nil {
		return st, err
	}
	if raw != "" {
		if tok, err := parseToken(raw, c.tokenKey); err == nil {
			if tok.ExpiresAt != nil {
				st.ExpiresAt = tok.ExpiresAt
			}
			if tok.Plan != "" {
				st.Plan = tok.Plan
			}
		} else {
			c.log.Warn(ctx, "stored entitlement token rejected", "error", err.Error())
		}
	}
	return st, nil
}

// PerformScan runs one scan. It refuses with ErrPaywallRequired, without any
// network call, while free scans are exhausted, and with ErrScanInProgress
// while another scan runs. onSuccess may be nil.
func (c *Coordinator) PerformScan(ctx context.Context, image []byte, onSuccess func(ScanResult)) (*ScanResult, error) {
	c.mu.Lock()
	if c.status == StateUnknown {
		c.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if c.scanning {
		c.mu.Unlock()
		return nil, ErrScanInProgress
	}
	ev := c.recomputeLocked(ctx, ReasonPremiumEnded)
	if c.status == StateFreeExhausted {
		c.log.Info(ctx, "scan blocked by paywall", "scans_used", c.state.ScansUsed, "limit", c.limit,
			"quota_exceeded", c.state.QuotaExceeded)
		c.mu.Unlock()
		c.emit(ev)
		return nil, ErrPaywallRequired
	}
	c.scanning = true
	c.mu.Unlock()
	c.emit(ev)

	defer func() {
		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()
	}()

	outcome, err := c.d.Scanner.Scan(ctx, image)
	if err != nil {
		if errors.Is(err, client.ErrPaymentRequired) {
			if c.isPremium() {
				// Premium users are downgraded only when a refresh confirms it.
				_ = c.RefreshEntitlement(ctx)
				if c.isPremium() {
					c.log.Warn(ctx, "quota reported for premium user", "error", err.Error())
					return nil, err
				}
			}
			c.mu.Lock()
			c.state.QuotaExceeded = true
			_ = c.persistLocked(ctx)
			ev := c.recomputeLocked(ctx, ReasonServerQuota)
			c.mu.Unlock()
			c.emit(ev)
			return nil, ErrPaywallRequired
		}
		return nil, err
	}

	c.mu.Lock()
	if !c.state.IsPremium {
		c.state.ScansUsed++
	}
	_ = c.persistLocked(ctx)
	c.mu.Unlock()

	now := c.d.Platform.Now().UTC()
	attempt := models.ScanAttempt{
		ID:          uuid.NewString(),
		Timestamp:   now,
		MachineName: outcome.Analysis.MachineName,
		ResultText:  outcome.Analysis.Text,
	}
	attempt.ImageRef = c.archive(ctx, outcome.Image, now)
	if err := c.d.History.Append(ctx, attempt); err != nil {
		c.log.Error(ctx, "failed to append scan history", "scan_id", attempt.ID, "error", err.Error())
	}
	if err := c.MarkFirstScanComplete(ctx); err != nil {
		c.log.Error(ctx, "failed to mark first scan", "error", err.Error())
	}

	res := &ScanResult{Attempt: attempt, Outcome: *outcome}
	if onSuccess != nil {
		onSuccess(*res)
	}

	c.mu.Lock()
	ev = c.recomputeLocked(ctx, ReasonLimitReached)
	c.mu.Unlock()
	c.emit(ev)

	return res, nil
}

func (c *Coordinator) isPremium() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsPremium
}

func (c *Coordinator) archive(ctx context.Context, img models.OptimizedImage, now time.Time) string {
	if c.d.Images == nil || len(img.Data) == 0 {
		return ""
	}
	key := imagestore.NewKey(now, filepath.Ext(img.Filename))
	ref, err := c.d.Images.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		c.log.Warn(ctx, "image archive failed", "key", key, "error", err.Error())
		return ""
	}
	return ref
}

// RefreshEntitlement asks the backend for the subscription status. On failure
// the local state is kept and a warning logged; the error is returned for
// callers that want to report it.
func (c *Coordinator) RefreshEntitlement(ctx context.Context) error {
	if c.d.Status == nil || c.d.Identity == nil {
		return nil
	}
	userID, err := c.d.Identity.UserID(ctx)
	if err != nil {
		c.log.Warn(ctx, "entitlement refresh skipped, no user id", "error", err.Error())
		return err
	}

	st, err := c.d.Status.SubscriptionStatus(ctx, userID)
	if err != nil {
		c.log.Warn(ctx, "entitlement refresh failed, keeping local state", "error", err.Error())
		return err
	}

	var tok *entitlementToken
	if st.Token != "" {
		if tok, err = parseToken(st.Token, c.tokenKey); err != nil {
			c.log.Warn(ctx, "entitlement token rejected", "error", err.Error())
			tok = nil
		}
	}

	c.mu.Lock()
	wasPremium := c.state.IsPremium
	c.state.IsPremium = st.Active
	c.state.ExpiresAt = st.ExpiresAt
	c.state.Plan = st.Plan
	if st.ScansUsed != nil {
		c.state.ScansUsed = *st.ScansUsed
	}
	if tok != nil {
		if tok.ExpiresAt != nil {
			c.state.ExpiresAt = tok.ExpiresAt
		}
		if tok.Plan != "" {
			c.state.Plan = tok.Plan
		}
	}
	_ = c.persistLocked(ctx)
	if tok != nil {
		if err := c.d.Metadata.Set(ctx, KeyEntitlementToken, []byte(st.Token)); err != nil {
			c.log.Error(ctx, "failed to store entitlement token", "error", err.Error())
		}
	}

	reason := ReasonLimitReached
	if wasPremium {
		reason = ReasonPremiumEnded
	}
	ev := c.recomputeLocked(ctx, reason)
	state, used := c.status, c.state.ScansUsed
	c.mu.Unlock()
	c.emit(ev)

	c.log.Debug(ctx, "entitlement refreshed", "state", state.String(), "active", st.Active,
		"plan", st.Plan, "scans_used", used)
	return nil
}

// ConfirmPurchase refreshes the entitlement after checkout. When the backend
// reports an active subscription the free counter is reset and the paywall
// hidden; it reports whether that happened.
func (c *Coordinator) ConfirmPurchase(ctx context.Context) (bool, error) {
	if err := c.RefreshEntitlement(ctx); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatePremium {
		return false, nil
	}
	c.state.ScansUsed = 0
	c.state.QuotaExceeded = false
	c.paywall = false
	if err := c.persistLocked(ctx); err != nil {
		return true, err
	}
	c.log.Info(ctx, "purchase confirmed", "plan", c.state.Plan)
	return true, nil
}

// ResetForDebug clears counters, premium status and one-time flags.
func (c *Coordinator) ResetForDebug(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = models.EntitlementState{}
	c.paywall = false
	c.welcomeSeen = false
	c.firstScan = false
	c.status = c.derive()

	if err := c.persistLocked(ctx); err != nil {
		return err
	}
	if err := c.d.Metadata.Delete(ctx, KeyEntitlementToken, KeyWelcomeSeen, KeyFirstScanCompleted); err != nil {
		return err
	}
	c.log.Info(ctx, "entitlement reset")
	return nil
}

// MarkFirstScanComplete records the one-time flag. Repeated calls do not write.
func (c *Coordinator) MarkFirstScanComplete(ctx context.Context) error {
	return c.markOnce(ctx, KeyFirstScanCompleted, &c.firstScan)
}

// MarkWelcomeSeen records the one-time flag. Repeated calls do not write.
func (c *Coordinator) MarkWelcomeSeen(ctx context.Context) error {
	return c.markOnce(ctx, KeyWelcomeSeen, &c.welcomeSeen)
}

func (c *Coordinator) markOnce(ctx context.Context, key string, flag *bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *flag {
		return nil
	}
	if err := c.d.Metadata.Set(ctx, key, metadata.EncodeBool(true)); err != nil {
		return err
	}
	*flag = true
	return nil
}

func (c *Coordinator) DismissPaywall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paywall = false
}

func (c *Coordinator) PaywallVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paywall
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coordinator) FreeScanLimit() int { return c.limit }

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	if st.ExpiresAt != nil {
		t := *st.ExpiresAt
		st.ExpiresAt = &t
	}
	return Snapshot{
		State:              c.status,
		Entitlement:        st,
		FreeScanLimit:      c.limit,
		PaywallVisible:     c.paywall,
		WelcomeSeen:        c.welcomeSeen,
		FirstScanCompleted: c.firstScan,
	}
}

// History returns the recent scans, newest first.
func (c *Coordinator) History(ctx context.Context) ([]models.ScanAttempt, error) {
	return c.d.History.List(ctx)
}

func (c *Coordinator) derive() State {
	switch {
	case c.state.IsPremium:
		return StatePremium
	case c.state.QuotaExceeded || c.state.ScansUsed >= c.limit:
		return StateFreeExhausted
	default:
		return StateFreeAvailable
	}
}

// recomputeLocked applies expiry, derives the state and returns the paywall
// event to emit when the state just moved into FreeExhausted.
func (c *Coordinator) recomputeLocked(ctx context.Context, reason PaywallReason) *PaywallEvent {
	if c.state.Expired(c.d.Platform.Now()) {
		c.log.Info(ctx, "premium expired", "expired_at", c.state.ExpiresAt.String(), "plan", c.state.Plan)
		c.state.IsPremium = false
		_ = c.persistLocked(ctx)
		reason = ReasonPremiumEnded
	}

	prev := c.status
	c.status = c.derive()

	if c.status == StatePremium {
		c.paywall = false
	}
	if c.status != StateFreeExhausted || prev == StateFreeExhausted || prev == StateUnknown {
		return nil
	}

	c.paywall = true
	c.log.Info(ctx, "paywall raised", "reason", string(reason), "scans_used", c.state.ScansUsed, "limit", c.limit)
	return &PaywallEvent{Reason: reason, ScansUsed: c.state.ScansUsed, Limit: c.limit}
}

func (c *Coordinator) persistLocked(ctx context.Context) error {
	expires := []byte{}
	if c.state.ExpiresAt != nil {
		expires = metadata.EncodeTime(*c.state.ExpiresAt)
	}
	err := c.d.Metadata.SetMany(ctx, map[string][]byte{
		KeyScanCount:        metadata.EncodeInt(c.state.ScansUsed),
		KeyPremium:          metadata.EncodeBool(c.state.IsPremium),
		KeyPremiumExpiresAt: expires,
		KeyPremiumPlan:      []byte(c.state.Plan),
		KeyQuotaExceeded:    metadata.EncodeBool(c.state.QuotaExceeded),
	})
	if err != nil {
		c.log.Error(ctx, "failed to persist entitlement", "error", err.Error())
	}
	return err
}

func (c *Coordinator) emit(ev *PaywallEvent) {
	if ev == nil {
		return
	}
	c.mu.Lock()
	ls := append([]func(PaywallEvent){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range ls {
		fn(*ev)
	}
}
