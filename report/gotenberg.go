// Package report talks to Gotenberg to turn HTML into PDF.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker refuses calls to Gotenberg.
var ErrUnavailable = errors.New("gotenberg unavailable")

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// Option customises a Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger       *slog.Logger
	failures     uint32
	openDuration time.Duration
}

// WithLogger logs breaker state changes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithBreaker trips after failures consecutive errors and stays open for
// openDuration before letting a probe request through.
func WithBreaker(failures uint32, openDuration time.Duration) Option {
	return func(o *clientOptions) {
		o.failures = failures
		o.openDuration = openDuration
	}
}

// PageOptions controls paper size and margins, in inches.
type PageOptions struct {
	PaperWidth   float64
	PaperHeight  float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	Landscape    bool
	WaitDelay    time.Duration
}

// A4 is portrait A4 with 1cm margins.
func A4() PageOptions {
	return PageOptions{
		PaperWidth:   8.27,
		PaperHeight:  11.7,
		MarginTop:    0.39,
		MarginBottom: 0.39,
		MarginLeft:   0.39,
		MarginRight:  0.39,
	}
}

// NewClient constructs a new client. A zero timeout means 30 seconds.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	o := clientOptions{logger: slog.Default(), failures: 5, openDuration: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gotenberg",
		MaxRequests: 1,
		Timeout:     o.openDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
	}
}

// BreakerState names the circuit breaker state: "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document using Gotenberg.
// Once the breaker is open it fails with ErrUnavailable without dialing.
func (c *Client) RenderHTML(ctx context.Context, html []byte, opts PageOptions) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.renderHTML(ctx, html, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) renderHTML(ctx context.Context, html []byte, opts PageOptions) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(html)); err != nil {
		return nil, err
	}
	for name, value := range opts.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (o PageOptions) fields() map[string]string {
	out := map[string]string{}
	set := func(name string, v float64) {
		if v > 0 {
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	set("paperWidth", o.PaperWidth)
	set("paperHeight", o.PaperHeight)
	set("marginTop", o.MarginTop)
	set("marginBottom", o.MarginBottom)
	set("marginLeft", o.MarginLeft)
	set("marginRight", o.MarginRight)
	if o.Landscape {
		out["landscape"] = "true"
	}
	if o.WaitDelay > 0 {
		out["waitDelay"] = o.WaitDelay.String()
	}
	out["printBackground"] = "true"
	return out
}
