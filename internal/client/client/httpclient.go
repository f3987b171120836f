package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/logging"
)

const (
	pathAnalyze         = "/analyze"
	pathSubscription    = "/api/subscription/status"
	pathCheckout        = "/api/create-checkout-session"
	pathCheckoutLegacy  = "/api/create-checkout"
	pathProducts        = "/api/stripe/products"
	pathProductsLegacy  = "/api/products"
	codeMissingPriceIDs = "MISSING_PRICE_IDS"

	maxErrorBody = 64 << 10
)

// HTTPClient talks to the backend over HTTP through a fetch.Fetcher.
type HTTPClient struct {
	fetcher       *fetch.Fetcher
	baseURL       string
	uploadTimeout time.Duration
	log           logging.Logger
}

// NewHTTPClient returns a client for baseURL. uploadTimeout bounds each
// /analyze attempt; zero keeps the fetcher default.
func NewHTTPClient(f *fetch.Fetcher, baseURL string, uploadTimeout time.Duration, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HTTPClient{
		fetcher:       f,
		baseURL:       strings.TrimRight(baseURL, "/"),
		uploadTimeout: uploadTimeout,
		log:           log.With("module", "client"),
	}
}

func (c *HTTPClient) Close() error { return nil }

type analyzeResponse struct {
	Success     *bool  `json:"success"`
	Message     string `json:"message"`
	Result      string `json:"result"`
	MachineName string `json:"machineName"`
	Error       string `json:"error"`
	Details     string `json:"details"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`
	Paywall bool   `json:"paywall"`
}

// Analyze uploads the image as multipart field "image".
func (c *HTTPClient) Analyze(ctx context.Context, img models.OptimizedImage) (*models.AnalysisResult, error) {
	body, contentType, err := multipartImage(img)
	if err != nil {
		return nil, err
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", contentType)
	hdr.Set("Accept", "application/json")

	var opts []fetch.CallOption
	if c.uploadTimeout > 0 {
		opts = append(opts, fetch.WithTimeout(c.uploadTimeout))
	}

	res, err := c.fetcher.Do(ctx, fetch.Request{
		Method: http.MethodPost, URL: c.baseURL + pathAnalyze, Header: hdr, Body: body,
	}, opts...)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	data, _ := io.ReadAll(res.Response.Body)
	status := res.Response.StatusCode
	if status == http.StatusPaymentRequired {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Paywall {
			c.log.Info(ctx, "backend reported quota exceeded", "request_id", res.RequestID)
			return nil, ErrPaymentRequired
		}
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(data, &ar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if ar.Success != nil && !*ar.Success {
		msg := ar.Error
		if msg == "" {
			msg = ar.Message
		}
		return nil, &APIError{Status: status, Message: msg, Details: ar.Details}
	}

	text := ar.Result
	if text == "" {
		text = ar.Message
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty analysis", ErrMalformedResponse)
	}
	return &models.AnalysisResult{Text: text, MachineName: ar.MachineName}, nil
}

type subscriptionResponse struct {
	Active           bool     `json:"active"`
	Plan             string   `json:"plan"`
	CurrentPeriodEnd *float64 `json:"currentPeriodEnd"`
	ScansUsed        *int     `json:"scansUsed"`
	EntitlementToken string   `json:"entitlementToken"`
}

func (c *HTTPClient) SubscriptionStatus(ctx context.Context, userID string) (*models.SubscriptionStatus, error) {
	u := c.baseURL + pathSubscription + "?userId=" + url.QueryEscape(userID)
	res, data, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	if s := res.Response.StatusCode; s < 200 || s >= 300 {
		return nil, apiError(s, data)
	}

	var sr subscriptionResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := &models.SubscriptionStatus{
		Active:    sr.Active,
		Plan:      sr.Plan,
		ScansUsed: sr.ScansUsed,
		Token:     sr.EntitlementToken,
	}
	if sr.CurrentPeriodEnd != nil && *sr.CurrentPeriodEnd > 0 {
		t := periodEnd(*sr.CurrentPeriodEnd)
		out.ExpiresAt = &t
	}
	return out, nil
}

// periodEnd interprets v as unix seconds, or milliseconds when above 1e12.
func periodEnd(v float64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

// CreateCheckoutSession returns the checkout page URL. The legacy endpoint is
// tried when the current one is missing.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	var data []byte
	var status int
	for _, path := range []string{pathCheckout, pathCheckoutLegacy} {
		hdr := http.Header{}
		hdr.Set("Content-Type", "application/json")
		res, err := c.fetcher.Do(ctx, fetch.Request{
			Method: http.MethodPost, URL: c.baseURL + path, Header: hdr, Body: payload,
		})
		if err != nil {
			return "", c.mapError(ctx, err)
		}
		data, _ = io.ReadAll(res.Response.Body)
		status = res.Response.StatusCode
		if status != http.StatusNotFound {
			break
		}
		c.log.Debug(ctx, "checkout endpoint missing", "path", path)
	}

	if status < 200 || status >= 300 {
		return "", apiError(status, data)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: no checkout url", ErrMalformedResponse)
	}
	return out.URL, nil
}

// Products lists prices. The body may be a bare array or {"products": [...]}.
func (c *HTTPClient) Products(ctx context.Context) ([]models.Product, error) {
	var data []byte
	var status int
	for _, path := range []string{pathProducts, pathProductsLegacy} {
		res, body, err := c.getJSON(ctx, c.baseURL+path)
		if err != nil {
			return nil, err
		}
		data, status = body, res.Response.StatusCode
		if status != http.StatusNotFound {
			break
		}
	}

	var e errorResponse
	if json.Unmarshal(data, &e) == nil && e.Code == codeMissingPriceIDs {
		return nil, ErrMissingPriceIDs
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data)
	}

	var list []models.Product
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return wrapped.Products, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, u string) (*fetch.Result, []byte, error) {
	hdr := http.Header{}
	hdr.Set("Accept", "application/json")
	res, err := c.fetcher.Do(ctx, fetch.Request{Method: http.MethodGet, URL: u, Header: hdr})
	if err != nil {
		return nil, nil, c.mapError(ctx, err)
	}
	data, _ := io.ReadAll(res.Response.Body)
	return res, data, nil
}

// mapError keeps timeouts and cancellation as they are, reports oversized
// bodies as malformed and turns every other transport failure into
// ErrUnavailable.
func (c *HTTPClient) mapError(ctx context.Context, err error) error {
	if errors.Is(err, fetch.ErrTimeout) || ctx.Err() != nil {
		return err
	}
	if errors.Is(err, fetch.ErrBodyTooLarge) {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func apiError(status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg != "" {
			return &APIError{Status: status, Message: msg, Details: e.Details}
		}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}

func multipartImage(img models.OptimizedImage) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := img.Filename
	if filename == "" {
		filename = "scan.webp"
	}
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
