// Package nist fetches molecule metadata and mass spectra from the NIST Chemistry WebBook.
package nist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/reader/jcamp"
)

const (
	defaultBaseURL         = "https://webbook.nist.gov"
	defaultHTTPTimeout     = 10 * time.Second
	defaultUserAgent       = "jdxconv"
	defaultBreakerFailures = 3
	breakerOpenTimeout     = 30 * time.Second
	maxBodyBytes           = 8 << 20
)

// ErrNotFound is returned when the WebBook has no entry, or no mass spectrum, for a name.
var ErrNotFound = errors.New("not found in NIST WebBook")

// Config captures the runtime settings for WebBook access.
type Config struct {
	BaseURL           string
	UserAgent         string
	TimeoutSeconds    int
	RequestsPerSecond float64 // <= 0 disables rate limiting
	BreakerFailures   uint32  // consecutive failures before requests are short-circuited
}

// Metadata is what the WebBook compound page tells us about a molecule.
type Metadata struct {
	Formula         string
	MolecularWeight float64
	ElectronCount   int
}

// Client talks to the WebBook over HTTP.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	saveDir    string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSaveDir makes Spectrum keep each downloaded document as <dir>/<name>.jdx.
func WithSaveDir(dir string) Option {
	return func(c *Client) {
		c.saveDir = dir
	}
}

// NewClient constructs a WebBook client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	c := &Client{
		cfg:        cfg,
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nist-webbook",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// A missing compound is a healthy answer from the server.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return c, nil
}

type httpStatusError struct {
	URL        string
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("nist webbook: http %d for %s", e.StatusCode, e.URL)
}

// CompoundURL returns the SI-units compound page for name.
func (c *Client) CompoundURL(name string) string {
	q := url.Values{}
	q.Set("Name", name)
	q.Set("Units", "SI")
	return c.cfg.BaseURL + "/cgi/cbook.cgi?" + q.Encode()
}

// Metadata scrapes the formula and molecular weight of name and derives its electron count.
func (c *Client) Metadata(ctx context.Context, name string) (Metadata, error) {
	page, err := c.fetchPage(ctx, c.CompoundURL(name))
	if err != nil {
		return Metadata{}, err
	}

	formula, ok := labelledValue(page, formulaTitle)
	if !ok || formula == "" {
		return Metadata{}, fmt.Errorf("%s formula: %w", name, ErrNotFound)
	}
	electrons, err := core.ElectronCount(formula)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", name, err)
	}

	meta := Metadata{Formula: formula, ElectronCount: electrons}
	if mw, ok := labelledValue(page, weightTitle); ok {
		if meta.MolecularWeight, err = parseWeight(mw); err != nil {
			return Metadata{}, fmt.Errorf("%s molecular weight: %w", name, err)
		}
	} else if meta.MolecularWeight, err = core.MolecularWeight(formula); err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", name, err)
	}

	c.logger.Debug("fetched metadata",
		zap.String("molecule", name),
		zap.String("formula", meta.Formula),
		zap.Float64("molecular_weight", meta.MolecularWeight))
	return meta, nil
}

// Spectrum downloads and parses the electron-ionization mass spectrum of name. The
// compound page links to the mass spectrum section, which links to the JCAMP-DX file.
func (c *Client) Spectrum(ctx context.Context, name string) (*core.Spectrum, error) {
	page, err := c.fetchPage(ctx, c.CompoundURL(name))
	if err != nil {
		return nil, err
	}
	specURL, ok := c.findLink(page, "#Mass-Spec")
	if !ok {
		return nil, fmt.Errorf("%s mass spectrum page: %w", name, ErrNotFound)
	}

	specPage, err := c.fetchPage(ctx, specURL)
	if err != nil {
		return nil, err
	}
	jdxURL, ok := c.findLink(specPage, "JCAMP")
	if !ok {
		return nil, fmt.Errorf("%s JCAMP-DX download: %w", name, ErrNotFound)
	}

	doc, err := c.fetch(ctx, jdxURL)
	if err != nil {
		return nil, err
	}
	spec, err := jcamp.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%s: parse downloaded spectrum: %w", name, err)
	}
	spec.SourceFile = name + ".jdx"

	if c.saveDir != "" {
		if err := c.save(name, doc); err != nil {
			// The spectrum is still usable.
			c.logger.Warn("failed to save downloaded spectrum", zap.String("molecule", name), zap.Error(err))
		}
	}
	return spec, nil
}

func (c *Client) save(name string, doc []byte) error {
	if err := os.MkdirAll(c.saveDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.saveDir, name+".jdx")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return err
	}
	c.logger.Info("saved spectrum", zap.String("molecule", name), zap.String("path", path))
	return nil
}

// findLink returns the first anchor whose href contains marker, resolved against the base URL.
func (c *Client) findLink(page *document, marker string) (string, bool) {
	href, ok := page.findHref(marker)
	if !ok {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return c.base.ResolveReference(ref).String(), true
}

func (c *Client) fetchPage(ctx context.Context, target string) (*document, error) {
	body, err := c.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return parseDocument(body)
}

// fetch performs a rate limited, circuit-broken GET.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, target)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("nist webbook unavailable: %w", err)
		}
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nist webbook request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("webbook request",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode >= 400:
		return nil, &httpStatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
