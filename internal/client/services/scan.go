package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/formai/internal/client/client"
	"github.com/dmitrijs2005/formai/internal/client/health"
	"github.com/dmitrijs2005/formai/internal/client/imageopt"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/logging"
)

const msgAnalyzeMissing = "This server does not offer image analysis. Check the backend URL."

// Optimizer prepares an image for upload. *imageopt.Optimizer satisfies it.
type Optimizer interface {
	Optimize(ctx context.Context, data []byte, opts imageopt.Options) imageopt.Result
}

// Preflight checks the backend before an upload. *health.Validator satisfies it.
type Preflight interface {
	CheckHealth(ctx context.Context) health.Result
	CheckEndpointExists(ctx context.Context, path string) bool
}

// Analyzer uploads an image for analysis. client.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, img models.OptimizedImage) (*models.AnalysisResult, error)
}

// PreflightError is returned when the backend failed its health check.
// Message is ready to show to the user. It unwraps to client.ErrUnavailable.
type PreflightError struct {
	Status  int
	Message string
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("preflight failed (status %d): %s", e.Status, e.Message)
}

func (e *PreflightError) Unwrap() error { return client.ErrUnavailable }

// ScanPipeline optimizes the photo, validates the backend, then uploads it.
// Each step starts only after the previous one returned. A nil Preflight
// skips validation.
type ScanPipeline struct {
	optimizer Optimizer
	preflight Preflight
	analyzer  Analyzer
	opts      imageopt.Options
	log       logging.Logger
}

func NewScanPipeline(o Optimizer, p Preflight, a Analyzer, opts imageopt.Options, log logging.Logger) *ScanPipeline {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ScanPipeline{optimizer: o, preflight: p, analyzer: a, opts: opts, log: log.With("module", "scan")}
}

// Scan implements entitlement.Scanner.
func (s *ScanPipeline) Scan(ctx context.Context, image []byte) (*models.ScanOutcome, error) {
	opt := s.optimizer.Optimize(ctx, image, s.opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.preflight != nil {
		if err := s.validate(ctx); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if opt.Fallback != imageopt.FallbackNone {
		s.log.Info(ctx, "uploading original image", "fallback", string(opt.Fallback), "bytes", len(opt.Image.Data))
	}

	analysis, err := s.analyzer.Analyze(ctx, opt.Image)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "scan analyzed", "machine", analysis.MachineName,
		"original_bytes", opt.Image.OriginalSize, "optimized_bytes", opt.Image.OptimizedSize,
		"size_reduction", opt.SizeReduction)

	return &models.ScanOutcome{
		Analysis:      *analysis,
		Image:         opt.Image,
		SizeReduction: opt.SizeReduction,
		Fallback:      string(opt.Fallback),
	}, nil
}

func (s *ScanPipeline) validate(ctx context.Context) error {
	r := s.preflight.CheckHealth(ctx)
	if !r.OK {
		return &PreflightError{Status: r.HTTPStatus, Message: r.ErrorMessage}
	}
	if !s.preflight.CheckEndpointExists(ctx, health.AnalyzePath) {
		return &PreflightError{Status: r.HTTPStatus, Message: msgAnalyzeMissing}
	}
	return nil
}
