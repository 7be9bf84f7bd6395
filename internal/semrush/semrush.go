// Package semrush is a client for the Semrush analytics API. Responses are
// semicolon-separated text with a header line, not JSON.
package semrush

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultBaseURL = "https://api.semrush.com/"

	// keywordBatchSize caps keywords per phrase_these request; the endpoint
	// accepts multiple phrases joined by semicolons.
	keywordBatchSize = 50

	maxRetries       = 5
	defaultBaseDelay = 1 * time.Second
)

// DomainOverview summarizes a domain's organic search footprint.
type DomainOverview struct {
	Domain          string
	OrganicKeywords int
	OrganicTraffic  int
	OrganicCost     float64
}

// KeywordMetrics holds per-keyword search volume and difficulty.
type KeywordMetrics struct {
	Volume     int
	Difficulty float64
}

// ProgressFunc receives batch completion updates during keyword fetches.
type ProgressFunc func(done, total int)

// Client calls the Semrush API with rate limiting and bounded retries.
type Client struct {
	httpClient *http.Client
	limiter    *RateLimiter
	baseURL    string
	apiKey     string
	database   string
	baseDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelay changes the base backoff delay. Used in tests.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// NewClient creates a Client for the given API key and regional database.
func NewClient(apiKey, database string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(10, 200*time.Millisecond),
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		database:   database,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDomainOverview fetches the domain_rank report for a domain. An empty
// overview with no error means the API had nothing for the domain.
func (c *Client) GetDomainOverview(ctx context.Context, domain string) (*DomainOverview, error) {
	params := url.Values{
		"type":           {"domain_rank"},
		"key":            {c.apiKey},
		"domain":         {domain},
		"export_columns": {"Dn,Or,Ot,Oc,Ad,At,Ac"},
		"database":       {c.database},
	}

	lines, err := c.fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("domain overview for %s: %w", domain, err)
	}
	if len(lines) < 2 {
		log.Info("No domain overview data returned", "domain", domain)
		return &DomainOverview{Domain: domain}, nil
	}

	fields := strings.Split(lines[1], ";")
	ov := &DomainOverview{Domain: domain}
	if len(fields) > 0 && fields[0] != "" {
		ov.Domain = fields[0]
	}
	if len(fields) > 1 {
		ov.OrganicKeywords = atoiOrZero(fields[1])
	}
	if len(fields) > 2 {
		ov.OrganicTraffic = atoiOrZero(fields[2])
	}
	if len(fields) > 3 {
		ov.OrganicCost = atofOrZero(fields[3])
	}
	return ov, nil
}

// GetKeywordMetrics fetches volume and difficulty for each keyword via the
// phrase_these batch report, at most keywordBatchSize keywords per request.
// Keywords the API does not know come back with zero metrics. progress may
// be nil.
func (c *Client) GetKeywordMetrics(ctx context.Context, keywords []string, progress ProgressFunc) (map[string]KeywordMetrics, error) {
	results := make(map[string]KeywordMetrics, len(keywords))
	for _, kw := range keywords {
		results[kw] = KeywordMetrics{}
	}
	if len(keywords) == 0 {
		return results, nil
	}

	total := (len(keywords) + keywordBatchSize - 1) / keywordBatchSize
	for i := 0; i < len(keywords); i += keywordBatchSize {
		end := min(i+keywordBatchSize, len(keywords))
		batch := keywords[i:end]

		params := url.Values{
			"type":           {"phrase_these"},
			"key":            {c.apiKey},
			"phrase":         {strings.Join(batch, ";")},
			"export_columns": {"Ph,Nq,Kd"},
			"database":       {c.database},
		}

		lines, err := c.fetch(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("keyword metrics batch %d/%d: %w", i/keywordBatchSize+1, total, err)
		}

		for _, line := range lines[min(1, len(lines)):] {
			fields := strings.Split(line, ";")
			if len(fields) < 1 || fields[0] == "" {
				continue
			}
			m := KeywordMetrics{}
			if len(fields) > 1 {
				m.Volume = atoiOrZero(fields[1])
			}
			if len(fields) > 2 {
				m.Difficulty = atofOrZero(fields[2])
			}
			results[fields[0]] = m
		}

		if progress != nil {
			progress(i/keywordBatchSize+1, total)
		}
	}

	return results, nil
}

// fetch performs a rate-limited GET with retries and returns the trimmed
// response lines. Semrush "ERROR nn :: ..." bodies come back as no lines.
func (c *Client) fetch(ctx context.Context, params url.Values) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if attempt > 0 {
			log.Debug("Retrying Semrush request", "attempt", attempt, "max_retries", maxRetries)
		}

		body, err := c.doRequest(ctx, params)
		if err == nil {
			text := strings.TrimSpace(body)
			if strings.HasPrefix(text, "ERROR") {
				// e.g. "ERROR 50 :: NOTHING FOUND", an empty result set.
				log.Debug("Semrush returned no data", "response", text)
				return nil, nil
			}
			if text == "" {
				return nil, nil
			}
			return strings.Split(text, "\n"), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == maxRetries {
			break
		}

		// Exponential backoff with jitter.
		delay := c.baseDelay * time.Duration(1<<uint(attempt))
		if half := int64(delay) / 2; half > 0 {
			delay += time.Duration(rand.Int63n(half))
		}
		log.Debug("Backing off before retry", "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atofOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
