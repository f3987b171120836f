package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/platform"
)

// HTTPProber checks GET /health and HEAD probes through a fetch.Fetcher.
type HTTPProber struct {
	fetcher  *fetch.Fetcher
	platform platform.Provider
	baseURL  string
	timeout  time.Duration
}

// NewHTTPProber returns a prober for baseURL. timeout is clamped to (0, 10s];
// zero selects 5s.
func NewHTTPProber(f *fetch.Fetcher, p platform.Provider, baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		fetcher:  f,
		platform: p,
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  clampTimeout(timeout),
	}
}

func (h *HTTPProber) CheckHealth(ctx context.Context) Result {
	start := h.platform.Now()
	res, err := h.fetcher.Do(ctx, fetch.Request{Method: http.MethodGet, URL: h.baseURL + "/health"},
		fetch.WithTimeout(h.timeout), fetch.WithMaxRetries(1))
	if err != nil {
		r := Result{Elapsed: h.platform.Now().Sub(start), ErrorMessage: messageFor(0, err)}
		var te *fetch.TimeoutError
		if errors.As(err, &te) {
			r.RequestID = te.RequestID
		}
		return r
	}

	r := Result{
		HTTPStatus: res.Response.StatusCode,
		Elapsed:    res.Elapsed,
		RequestID:  res.RequestID,
		OK:         res.Response.StatusCode >= 200 && res.Response.StatusCode < 300,
	}
	if !r.OK {
		r.ErrorMessage = messageFor(r.HTTPStatus, nil)
		return r
	}

	body, _ := io.ReadAll(res.Response.Body)
	r.Routes, r.RoutesFallback = parseRoutes(body)
	return r
}

// CheckEndpointExists sends HEAD to path. Only 404 means missing; transport
// failures are reported as missing too.
func (h *HTTPProber) CheckEndpointExists(ctx context.Context, path string) bool {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	res, err := h.fetcher.Do(ctx, fetch.Request{Method: http.MethodHead, URL: h.baseURL + path},
		fetch.WithTimeout(h.timeout), fetch.WithMaxRetries(0))
	if err != nil {
		return false
	}
	return res.Response.StatusCode != http.StatusNotFound
}

func parseRoutes(body []byte) ([]string, RoutesFallback) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, RoutesNoBody
	}
	var payload struct {
		Routes *[]string `json:"routes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, RoutesMalformed
	}
	if payload.Routes == nil {
		return nil, RoutesNotListed
	}
	return *payload.Routes, RoutesListed
}
