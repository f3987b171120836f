package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntitlementState_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		state EntitlementState
		want  bool
	}{
		{"free user", EntitlementState{ScansUsed: 1}, false},
		{"premium without expiry", EntitlementState{IsPremium: true}, false},
		{"premium in period", EntitlementState{IsPremium: true, ExpiresAt: &future}, false},
		{"premium past expiry", EntitlementState{IsPremium: true, ExpiresAt: &past}, true},
		{"premium expiring now", EntitlementState{IsPremium: true, ExpiresAt: &now}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.Expired(now))
		})
	}
}
