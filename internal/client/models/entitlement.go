package models

import "time"

// EntitlementState is the persisted usage and premium status.
type EntitlementState struct {
	IsPremium     bool
	ScansUsed     int
	ExpiresAt     *time.Time
	Plan          string
	QuotaExceeded bool
}

// Expired reports whether a premium period has ended at now.
func (s EntitlementState) Expired(now time.Time) bool {
	return s.IsPremium && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// SubscriptionStatus is the remote view of the user's subscription.
// ScansUsed and Token are nil/empty when the backend does not report them.
type SubscriptionStatus struct {
	Active    bool
	Plan      string
	ExpiresAt *time.Time
	ScansUsed *int
	Token     string
}
