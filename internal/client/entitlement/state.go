package entitlement

import (
	"errors"

	"github.com/dmitrijs2005/formai/internal/client/models"
)

var (
	ErrPaywallRequired = errors.New("paywall required")
	ErrScanInProgress  = errors.New("scan already in progress")
	ErrNotInitialized  = errors.New("entitlement not initialized")
)

type State int

const (
	StateUnknown State = iota
	StateFreeAvailable
	StateFreeExhausted
	StatePremium
)

func (s State) String() string {
	switch s {
	case StateFreeAvailable:
		return "free_available"
	case StateFreeExhausted:
		return "free_exhausted"
	case StatePremium:
		return "premium"
	default:
		return "unknown"
	}
}

// PaywallReason says what raised the paywall.
type PaywallReason string

const (
	ReasonLimitReached PaywallReason = "limit_reached"
	ReasonServerQuota  PaywallReason = "server_quota"
	ReasonPremiumEnded PaywallReason = "premium_ended"
)

// PaywallEvent is delivered to listeners when the paywall is raised.
type PaywallEvent struct {
	Reason    PaywallReason
	ScansUsed int
	Limit     int
}

// Snapshot is a consistent copy of the coordinator state.
type Snapshot struct {
	State              State
	Entitlement        models.EntitlementState
	FreeScanLimit      int
	PaywallVisible     bool
	WelcomeSeen        bool
	FirstScanCompleted bool
}

// ScansRemaining is the number of free scans left; -1 for premium users.
func (s Snapshot) ScansRemaining() int {
	if s.State == StatePremium {
		return -1
	}
	return max(s.FreeScanLimit-s.Entitlement.ScansUsed, 0)
}

// ScanResult is returned by a successful PerformScan.
type ScanResult struct {
	Attempt models.ScanAttempt
	Outcome models.ScanOutcome
}
