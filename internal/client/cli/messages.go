package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formai/internal/client/client"
	"github.com/dmitrijs2005/formai/internal/client/entitlement"
	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/services"
)

// UserMessage turns an error into a short sentence for the terminal. Raw
// error text is never shown; it goes to the log instead.
func UserMessage(err error) string {
	var (
		pre *services.PreflightError
		te  *fetch.TimeoutError
		api *client.APIError
		use usageError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &use):
		return "Usage: " + string(use)
	case errors.As(err, &pre):
		return pre.Message
	case errors.Is(err, entitlement.ErrPaywallRequired):
		return "You have no free scans left. Subscribe to keep scanning."
	case errors.Is(err, entitlement.ErrScanInProgress):
		return "A scan is already running. Wait for it to finish."
	case errors.Is(err, entitlement.ErrNotInitialized):
		return "The app is still starting. Try again in a moment."
	case errors.As(err, &te):
		return fmt.Sprintf("The upload took too long (%.1fs). Try a smaller image or try again.", te.Elapsed.Seconds())
	case errors.Is(err, fetch.ErrTimeout):
		return "The server took too long to respond. Try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, client.ErrUnavailable):
		return "Cannot reach the server. Check your internet connection."
	case errors.Is(err, client.ErrPaymentRequired):
		return "Your plan does not allow more scans. Subscribe to continue."
	case errors.Is(err, client.ErrMalformedResponse):
		return "Unexpected server response. Try again later."
	case errors.Is(err, services.ErrNoPlans):
		return "No subscription plans are available right now."
	case errors.Is(err, services.ErrUnknownPlan):
		return "Unknown plan. Choose monthly or annual."
	case errors.Is(err, services.ErrInvalidEmail):
		return "That email address does not look right."
	case errors.Is(err, os.ErrNotExist):
		return "File not found."
	case errors.As(err, &api):
		if api.Status >= 500 {
			return fmt.Sprintf("The server is having problems (HTTP %d). Try again later.", api.Status)
		}
		if api.Message != "" {
			return api.Message
		}
		return fmt.Sprintf("Request failed (HTTP %d).", api.Status)
	default:
		return "Something went wrong. Run with -v for details."
	}
}
