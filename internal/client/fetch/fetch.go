package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/client/platform"
	"github.com/dmitrijs2005/formai/internal/common"
	"github.com/dmitrijs2005/formai/internal/logging"
	"github.com/dmitrijs2005/formai/internal/netx"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 2

	// DefaultMaxBodySize caps a buffered response body.
	DefaultMaxBodySize int64 = 8 << 20
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes a call. Body is kept as bytes so every attempt gets a
// fresh reader.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Result is the outcome of a call that produced a response.
// Response.Body is fully buffered and safe to read after Do returns.
type Result struct {
	models.RequestContext
	Response *http.Response
	Elapsed  time.Duration
}

// CallOption overrides per-call settings.
type CallOption func(*callSettings)

type callSettings struct {
	timeout    time.Duration
	maxRetries int
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(s *callSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n int) CallOption {
	return func(s *callSettings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// Fetcher executes requests with timeout and retry.
type Fetcher struct {
	doer       Doer
	platform   platform.Provider
	log        logging.Logger
	timeout    time.Duration
	maxRetries int
	maxBody    int64
	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDefaults sets the timeout and retry count used when a call does not
// override them. Non-positive timeout and negative retries are ignored.
func WithDefaults(timeout time.Duration, maxRetries int) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
		if maxRetries >= 0 {
			f.maxRetries = maxRetries
		}
	}
}

// WithMaxBodySize sets the largest response body Do will buffer.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// New returns a Fetcher. A nil doer means http.DefaultClient.
func New(doer Doer, p platform.Provider, log logging.Logger, opts ...Option) *Fetcher {
	if doer == nil {
		doer = http.DefaultClient
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	f := &Fetcher{
		doer:       doer,
		platform:   p,
		log:        log.With("module", "fetch"),
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		maxBody:    DefaultMaxBodySize,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Do runs req, retrying transport failures and timeouts up to the configured
// number of times. Cancelling ctx stops retrying immediately. When every
// attempt fails the last error is returned wrapped.
func (f *Fetcher) Do(ctx context.Context, req Request, opts ...CallOption) (*Result, error) {
	s := callSettings{timeout: f.timeout, maxRetries: f.maxRetries}
	for _, o := range opts {
		o(&s)
	}

	start := f.platform.Now()
	sched := Schedule(s.maxRetries)
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay, stop := sched.Next()
			if stop {
				break
			}
			f.log.Debug(ctx, "retrying", "attempt", attempt, "delay_ms", delay.Milliseconds())
			if err := f.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("fetch %s %s: %w", req.Method, req.URL, err)
			}
		}

		rc := models.RequestContext{
			RequestID:        NewRequestID(f.platform.Capabilities().CryptoRandom, f.platform.Now()),
			StartTime:        f.platform.Now(),
			Timeout:          s.timeout,
			RetriesAttempted: attempt,
		}

		resp, err := f.attempt(ctx, req, rc)
		elapsed := f.platform.Now().Sub(rc.StartTime)
		if err == nil {
			f.log.Debug(ctx, "fetch attempt",
				"request_id", rc.RequestID, "method", req.Method, "url", req.URL,
				"status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds())
			return &Result{
				RequestContext: rc,
				Response:       resp,
				Elapsed:        f.platform.Now().Sub(start),
			}, nil
		}

		f.log.Debug(ctx, "fetch attempt",
			"request_id", rc.RequestID, "method", req.Method, "url", req.URL,
			"error", err.Error(), "unreachable", netx.IsConnectivityError(err),
			"elapsed_ms", elapsed.Milliseconds())
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, ErrBodyTooLarge) {
			break
		}
	}

	return nil, fmt.Errorf("fetch %s %s: %w", req.Method, req.URL, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, req Request, rc models.RequestContext) (*http.Response, error) {
	attemptCtx := ctx
	cancellable := f.platform.Capabilities().Cancellation
	if cancellable {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	} else {
		t := time.AfterFunc(rc.Timeout, func() {
			f.log.Warn(ctx, "timeout elapsed, request not aborted",
				"request_id", rc.RequestID, "timeout_ms", rc.Timeout.Milliseconds())
		})
		defer t.Stop()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(common.RequestIDHeaderName, rc.RequestID)
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", common.UserAgent)
	}

	resp, err := f.doer.Do(httpReq)
	if err == nil {
		var data []byte
		data, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		_ = resp.Body.Close()
		if err == nil && int64(len(data)) > f.maxBody {
			return nil, fmt.Errorf("%w: status %d, limit %d bytes", ErrBodyTooLarge, resp.StatusCode, f.maxBody)
		}
		if err == nil {
			resp.Body = io.NopCloser(bytes.NewReader(data))
			return resp, nil
		}
	}

	if cancellable && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{
			Elapsed:   f.platform.Now().Sub(rc.StartTime),
			Timeout:   rc.Timeout,
			RequestID: rc.RequestID,
		}
	}
	return nil, err
}
