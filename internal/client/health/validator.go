package health

import (
	"context"
	"time"

	"github.com/dmitrijs2005/formai/internal/logging"
)

const (
	DefaultTimeout = 5 * time.Second
	MaxTimeout     = 10 * time.Second

	// AnalyzePath is the capability endpoint probed by ValidateAll.
	AnalyzePath = "/analyze"
)

// Prober performs the raw checks against one kind of backend.
type Prober interface {
	CheckHealth(ctx context.Context) Result
	CheckEndpointExists(ctx context.Context, path string) bool
}

// Validator runs health checks and logs their outcome.
type Validator struct {
	prober Prober
	log    logging.Logger
}

func NewValidator(p Prober, log logging.Logger) *Validator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Validator{prober: p, log: log.With("module", "health")}
}

func (v *Validator) CheckHealth(ctx context.Context) Result {
	r := v.prober.CheckHealth(ctx)
	if r.OK {
		v.log.Debug(ctx, "health ok", "request_id", r.RequestID, "status", r.HTTPStatus,
			"elapsed_ms", r.Elapsed.Milliseconds(), "routes", len(r.Routes), "routes_fallback", string(r.RoutesFallback))
	} else {
		v.log.Warn(ctx, "health failed", "request_id", r.RequestID, "status", r.HTTPStatus,
			"elapsed_ms", r.Elapsed.Milliseconds(), "message", r.ErrorMessage)
	}
	return r
}

func (v *Validator) CheckEndpointExists(ctx context.Context, path string) bool {
	ok := v.prober.CheckEndpointExists(ctx, path)
	v.log.Debug(ctx, "endpoint probe", "path", path, "exists", ok)
	return ok
}

// ValidateAll checks liveness first and the analyze endpoint second.
func (v *Validator) ValidateAll(ctx context.Context) bool {
	if !v.CheckHealth(ctx).OK {
		return false
	}
	return v.CheckEndpointExists(ctx, AnalyzePath)
}

func clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}
