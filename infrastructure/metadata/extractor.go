package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keepwise/application/ports"
	"keepwise/pkg/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultUserAgent looks like a desktop browser; many sites refuse bare clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Extraction outcomes reported to Metrics
const (
	OutcomeSuccess     = "success"
	OutcomeInvalidURL  = "invalid_url"
	OutcomeFetchError  = "fetch_error"
	OutcomeHTTPError   = "http_error"
	OutcomeParseError  = "parse_error"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeBlocked     = "blocked_address"
)

// socialSources maps registrable domains to the platform name shown as source
var socialSources = []struct {
	domain string
	name   string
}{
	{"facebook.com", "Facebook"},
	{"twitter.com", "Twitter"},
	{"x.com", "Twitter"},
	{"instagram.com", "Instagram"},
	{"linkedin.com", "LinkedIn"},
}

// Metrics receives one outcome per extraction
type Metrics interface {
	RecordMetadataExtraction(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RecordMetadataExtraction(string) {}

// BreakerConfig tunes the circuit breaker around outbound fetches
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// Config holds extractor settings. BlockPrivateNetworks only applies to the
// client NewExtractor builds itself.
type Config struct {
	Timeout              time.Duration
	MaxBodyBytes         int64
	UserAgent            string
	BlockPrivateNetworks bool
	Breaker              BreakerConfig
}

// DefaultConfig returns settings suitable for the API
func DefaultConfig() Config {
	return Config{
		Timeout:              10 * time.Second,
		MaxBodyBytes:         2 << 20,
		UserAgent:            DefaultUserAgent,
		BlockPrivateNetworks: true,
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
	}
}

// Extractor implements ports.MetadataExtractor over HTTP
type Extractor struct {
	client   *http.Client
	breakers *hostBreakers
	config   Config
	metrics  Metrics
	logger   *zap.Logger
}

var _ ports.MetadataExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor. client may be nil.
func NewExtractor(cfg Config, client *http.Client, metrics Metrics, logger *zap.Logger) *Extractor {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = defaults.Breaker
	}
	if client == nil {
		client = newClient(cfg.Timeout, cfg.BlockPrivateNetworks)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		client:   client,
		breakers: newHostBreakers(cfg.Breaker, logger),
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("failed to fetch page: %s", e.status)
}

// Extract fetches rawURL and reads its preview metadata
func (e *Extractor) Extract(ctx context.Context, rawURL string) ports.LinkMetadata {
	ctx, span := observability.StartSpan(ctx, "metadata.extract", attribute.String("url", rawURL))
	defer span.End()

	target, err := parseTarget(rawURL)
	if err != nil {
		return e.fail(rawURL, OutcomeInvalidURL, err)
	}
	span.SetAttributes(attribute.String("url.host", target.Hostname()))

	body, err := e.breakers.forHost(target.Host).Execute(func() (interface{}, error) {
		return e.fetch(ctx, target)
	})
	if err != nil {
		observability.RecordError(span, err)
		var statusErr *statusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return e.fail(rawURL, OutcomeCircuitOpen, fmt.Errorf("metadata fetching temporarily unavailable: %w", err))
		case errors.Is(err, ErrNonPublicAddress):
			return e.fail(rawURL, OutcomeBlocked, err)
		case errors.As(err, &statusErr):
			return e.fail(rawURL, OutcomeHTTPError, err)
		default:
			return e.fail(rawURL, OutcomeFetchError, err)
		}
	}

	doc, err := parseDocument(strings.NewReader(body.(string)))
	if err != nil {
		observability.RecordError(span, err)
		return e.fail(rawURL, OutcomeParseError, fmt.Errorf("failed to parse page: %w", err))
	}

	e.metrics.RecordMetadataExtraction(OutcomeSuccess)
	return ports.LinkMetadata{
		Title:       firstNonEmpty(doc.meta("title"), doc.og("title"), doc.title),
		Description: firstNonEmpty(doc.meta("description"), doc.og("description")),
		Author:      doc.meta("author"),
		Image:       doc.og("image"),
		Source:      sourceFor(target, doc.og("site_name")),
		Success:     true,
	}
}

func (e *Extractor) fetch(ctx context.Context, target *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode, status: resp.Status}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(raw), nil
}

func (e *Extractor) fail(rawURL, outcome string, err error) ports.LinkMetadata {
	e.metrics.RecordMetadataExtraction(outcome)
	e.logger.Warn("Metadata extraction failed",
		zap.String("url", rawURL),
		zap.String("outcome", outcome),
		zap.Error(err),
	)
	return ports.LinkMetadata{Success: false, Error: err.Error()}
}

// ValidateURL reports whether rawURL can be fetched
func ValidateURL(rawURL string) error {
	_, err := parseTarget(rawURL)
	return err
}

func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("invalid URL: missing host")
	}
	return u, nil
}

// sourceFor names the platform for well known social hosts, then falls back
// to og:site_name and finally the bare hostname.
func sourceFor(u *url.URL, siteName string) string {
	host := strings.ToLower(u.Hostname())
	for _, s := range socialSources {
		if host == s.domain || strings.HasSuffix(host, "."+s.domain) {
			return s.name
		}
	}
	if siteName != "" {
		return siteName
	}
	return strings.TrimPrefix(host, "www.")
}
