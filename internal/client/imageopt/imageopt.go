// Package imageopt shrinks captured photos before upload.
//
// Optimization is best effort: whenever an image cannot be decoded or
// re-encoded the original bytes are returned together with the reason, so an
// upload is never blocked by this step.
package imageopt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/client/platform"
	"github.com/dmitrijs2005/formai/internal/logging"
	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Format is the output encoding.
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "webp", "jpeg" or "jpg". Empty means webp.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "webp":
		return FormatWebP, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 0.8
)

// Options control the output. Zero values select the defaults.
type Options struct {
	MaxDimension int
	// Quality is in (0, 1]. It is ignored for lossless WebP.
	Quality float64
	Format  Format
	// Lossless selects VP8L instead of lossy VP8 for WebP output.
	Lossless bool
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	if o.Format == "" {
		o.Format = FormatWebP
	}
	return o
}

// FallbackReason says why the original bytes were returned.
type FallbackReason string

const (
	FallbackNone              FallbackReason = ""
	FallbackRasterUnavailable FallbackReason = "raster_unavailable"
	FallbackEmptyInput        FallbackReason = "empty_input"
	FallbackUnsupportedFormat FallbackReason = "unsupported_format"
	FallbackDecodeFailed      FallbackReason = "decode_failed"
	FallbackEncodeFailed      FallbackReason = "encode_failed"
)

// Result holds the image to upload. SizeReduction is original minus optimized
// bytes and is negative when re-encoding grew the file; it is 0 on fallback.
type Result struct {
	Image         models.OptimizedImage
	SizeReduction int
	Fallback      FallbackReason
}

// Optimizer downsamples and re-encodes images.
type Optimizer struct {
	platform platform.Provider
	log      logging.Logger
}

func New(p platform.Provider, log logging.Logger) *Optimizer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Optimizer{platform: p, log: log.With("module", "imageopt")}
}

// ScaleDimensions returns the target size for a w x h image bounded by
// maxDim. Images are never upscaled and each side is at least 1px.
func ScaleDimensions(w, h, maxDim int) (int, int) {
	if w <= 0 || h <= 0 || maxDim <= 0 {
		return max(w, 1), max(h, 1)
	}
	factor := math.Min(1, float64(maxDim)/float64(max(w, h)))
	tw := int(math.Round(float64(w) * factor))
	th := int(math.Round(float64(h) * factor))
	return max(tw, 1), max(th, 1)
}

// Optimize prepares data for upload.
func (o *Optimizer) Optimize(ctx context.Context, data []byte, opts Options) Result {
	opts = opts.withDefaults()

	if !o.platform.Capabilities().Raster {
		return o.fallback(ctx, data, FallbackRasterUnavailable, nil)
	}
	if len(data) == 0 {
		return o.fallback(ctx, data, FallbackEmptyInput, nil)
	}
	if opts.Format != FormatWebP && opts.Format != FormatJPEG {
		return o.fallback(ctx, data, FallbackUnsupportedFormat, fmt.Errorf("output format %q", opts.Format))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		reason := FallbackDecodeFailed
		if errors.Is(err, image.ErrFormat) {
			reason = FallbackUnsupportedFormat
		}
		return o.fallback(ctx, data, reason, err)
	}

	b := src.Bounds()
	tw, th := ScaleDimensions(b.Dx(), b.Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	var contentType, filename string
	switch opts.Format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)})
		contentType, filename = "image/jpeg", "scan.jpg"
	default:
		if opts.Lossless {
			err = nativewebp.Encode(&buf, dst, nil)
		} else {
			err = webp.Encode(&buf, dst, webp.Options{Quality: webpQuality(opts.Quality), Method: webpMethod})
		}
		contentType, filename = "image/webp", "scan.webp"
	}
	if err != nil {
		return o.fallback(ctx, data, FallbackEncodeFailed, err)
	}

	out := buf.Bytes()
	res := Result{
		Image: models.OptimizedImage{
			Data:          out,
			ContentType:   contentType,
			Filename:      filename,
			OriginalSize:  len(data),
			OptimizedSize: len(out),
			Width:         tw,
			Height:        th,
		},
		SizeReduction: len(data) - len(out),
	}
	o.log.Debug(ctx, "image optimized",
		"original_bytes", len(data), "optimized_bytes", len(out),
		"size_reduction", len(data)-len(out),
		"width", tw, "height", th, "format", string(opts.Format), "lossless", opts.Lossless)
	return res
}

func (o *Optimizer) fallback(ctx context.Context, data []byte, reason FallbackReason, err error) Result {
	args := []any{"reason", string(reason), "bytes", len(data)}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	o.log.Warn(ctx, "image optimization skipped", args...)

	ct := "application/octet-stream"
	if len(data) > 0 {
		ct = http.DetectContentType(data)
	}
	img := models.OptimizedImage{
		Data:          data,
		ContentType:   ct,
		Filename:      "scan" + extensionFor(ct),
		OriginalSize:  len(data),
		OptimizedSize: len(data),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return Result{Image: img, Fallback: reason}
}

// webpMethod trades encode speed for size (0 fastest, 6 smallest).
const webpMethod = 4

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

func webpQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 0), 100)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
