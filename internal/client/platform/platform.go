// Package platform reports the runtime capabilities and product variant the
// client was started with. A single Provider is resolved at startup and passed
// to the components that branch on it.
package platform

import (
	"fmt"
	"strings"
	"time"
)

// Variant identifies the product flavour.
type Variant string

const (
	VariantNative Variant = "native"
	VariantWeb    Variant = "web"
)

// ParseVariant accepts "native" or "web" (case-insensitive). Empty means native.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(VariantNative):
		return VariantNative, nil
	case string(VariantWeb):
		return VariantWeb, nil
	default:
		return "", fmt.Errorf("unknown variant %q", s)
	}
}

// Capabilities describes what the runtime can do.
type Capabilities struct {
	CryptoRandom   bool
	Cancellation   bool
	MonotonicClock bool
	Raster         bool
}

// Provider exposes capabilities, variant and the clock.
type Provider interface {
	Capabilities() Capabilities
	Variant() Variant
	// Now returns the current time. Without a monotonic clock the reading is
	// stripped of its monotonic component.
	Now() time.Time
	// DefaultFreeScanLimit is the number of free scans for the variant.
	DefaultFreeScanLimit() int
}

type provider struct {
	caps    Capabilities
	variant Variant
	now     func() time.Time
}

// Option customizes a provider.
type Option func(*provider)

// WithCapabilities overrides the reported capabilities.
func WithCapabilities(c Capabilities) Option {
	return func(p *provider) { p.caps = c }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(p *provider) { p.now = now }
}

// FullCapabilities is what a regular Go process has.
func FullCapabilities() Capabilities {
	return Capabilities{CryptoRandom: true, Cancellation: true, MonotonicClock: true, Raster: true}
}

// New returns a provider for the given variant with full capabilities.
func New(v Variant, opts ...Option) Provider {
	p := &provider{caps: FullCapabilities(), variant: v, now: time.Now}
	if p.variant == "" {
		p.variant = VariantNative
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *provider) Capabilities() Capabilities { return p.caps }

func (p *provider) Variant() Variant { return p.variant }

func (p *provider) Now() time.Time {
	t := p.now()
	if !p.caps.MonotonicClock {
		return t.Round(0)
	}
	return t
}

func (p *provider) DefaultFreeScanLimit() int {
	if p.variant == VariantWeb {
		return 1
	}
	return 2
}
