package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/client"
	"github.com/dmitrijs2005/formai/internal/client/entitlement"
	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/services"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"preflight", &services.PreflightError{Status: 503, Message: "The server is having problems (HTTP 503). Try again later."},
			"The server is having problems (HTTP 503). Try again later."},
		{"paywall", fmt.Errorf("scan: %w", entitlement.ErrPaywallRequired), "You have no free scans left. Subscribe to keep scanning."},
		{"in progress", entitlement.ErrScanInProgress, "A scan is already running. Wait for it to finish."},
		{"timeout", fmt.Errorf("upload: %w", &fetch.TimeoutError{Elapsed: 15200 * time.Millisecond, Timeout: 15 * time.Second}),
			"The upload took too long (15.2s). Try a smaller image or try again."},
		{"unavailable", fmt.Errorf("%w: dial tcp", client.ErrUnavailable), "Cannot reach the server. Check your internet connection."},
		{"malformed", client.ErrMalformedResponse, "Unexpected server response. Try again later."},
		{"api 5xx", &client.APIError{Status: 502, Message: "Bad Gateway"}, "The server is having problems (HTTP 502). Try again later."},
		{"api 4xx", &client.APIError{Status: 400, Message: "Image too small"}, "Image too small"},
		{"unknown plan", services.ErrUnknownPlan, "Unknown plan. Choose monthly or annual."},
		{"missing file", &os.PathError{Op: "open", Path: "x.jpg", Err: os.ErrNotExist}, "File not found."},
		{"cancelled", context.Canceled, "Cancelled."},
		{"usage", errUsage("settings"), "Usage: settings"},
		{"other", errors.New("sql: database is closed"), "Something went wrong. Run with -v for details."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UserMessage(tc.err))
		})
	}
}
