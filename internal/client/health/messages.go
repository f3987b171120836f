package health

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/formai/internal/client/fetch"
)

const (
	msgNotFound     = "Health endpoint not found. Check the server address."
	msgConnectivity = "Cannot reach the server. Check your internet connection."
	msgTimeout      = "The server took too long to respond. Try again."
	msgGeneric      = "Health check failed. Try again later."
)

// messageFor picks a user message from the status and the transport error.
// status is 0 when no response was received; every such failure other than a
// timeout is reported as a connectivity problem.
func messageFor(status int, err error) string {
	switch {
	case errors.Is(err, fetch.ErrTimeout):
		return msgTimeout
	case status == http.StatusNotFound:
		return msgNotFound
	case status == 0:
		return msgConnectivity
	case status >= http.StatusInternalServerError:
		return fmt.Sprintf("The server is having problems (HTTP %d). Try again later.", status)
	default:
		return msgGeneric
	}
}
