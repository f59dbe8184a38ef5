// Package elsst matches keyword text against the ELSST controlled vocabulary
// via the CESSDA topics API. Lookups fan out concurrently, one per keyword,
// and merge into a shared label set only after all lookups complete.
package elsst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/verdict"
)

const (
	// DefaultBaseURL is the ELSST topics API endpoint.
	DefaultBaseURL = "https://skg-if-openapi.cessda.eu/api/topics"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "elsstcheck"

	labelFilter    = "cf.search.labels"
	languageFilter = "cf.search.language"

	maxResponseSize = 10 * 1024 * 1024 // 10MB
)

// CacheScope controls how long a populated label set is reused.
type CacheScope string

const (
	// CacheScopeCall rebuilds the label set on every Match call.
	CacheScopeCall CacheScope = "call"

	// CacheScopeInstance populates the label set once per client and reuses
	// it for every later Match, even across unrelated records. Only suitable
	// for pipelines that deliberately re-check the same keyword universe.
	CacheScopeInstance CacheScope = "instance"
)

// labelSet holds composite `lang:"label"` entries with set semantics.
// The quote markers keep the label distinguishable from the delimiter.
type labelSet map[string]struct{}

// Client queries the topics API and compares keywords against the returned
// labels. The underlying HTTP transport is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	cacheScope CacheScope

	mu     sync.Mutex
	cached labelSet // populated at most once under CacheScopeInstance
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the topics API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header sent with each lookup.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCacheScope sets the label cache policy.
func WithCacheScope(scope CacheScope) Option {
	return func(c *Client) {
		c.cacheScope = scope
	}
}

// NewClient creates a topics API client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     slog.Default(),
		cacheScope: CacheScopeCall,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// topicsResponse mirrors the topics API payload.
type topicsResponse struct {
	Results []struct {
		Labels map[string]string `json:"labels"`
	} `json:"results"`
}

// Match compares the keywords against the ELSST labels returned for
// langCode, using case-insensitive exact equality. Without a language code
// no determination is possible and no network call is made. One or more
// matching keywords yield pass, zero yield fail; a cancelled lookup batch
// yields indeterminate with no partial results used.
func (c *Client) Match(ctx context.Context, keywords []string, langCode string) verdict.Verdict {
	if langCode == "" {
		c.logger.Info("No language code available, skipping ELSST label lookup")
		return verdict.Indeterminate
	}

	labels, err := c.labels(ctx, keywords, langCode)
	if err != nil {
		c.logger.Error("ELSST label lookup aborted", "error", err)
		return verdict.Indeterminate
	}

	prefix := langCode + ":"
	comparison := make(map[string]struct{}, len(labels))
	for entry := range labels {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		label := strings.TrimPrefix(entry, prefix)
		label = strings.ReplaceAll(label, `"`, "")
		comparison[strings.ToUpper(strings.TrimSpace(label))] = struct{}{}
	}

	matches := 0
	for _, keyword := range keywords {
		if _, ok := comparison[strings.ToUpper(keyword)]; ok {
			matches++
		}
	}

	if matches >= 1 {
		c.logger.Info("Keywords match ELSST vocabulary", "matches", matches)
		return verdict.Pass
	}

	c.logger.Info("No keywords match ELSST vocabulary", "keywords", len(keywords))
	return verdict.Fail
}

// labels returns the merged label set, honoring the cache scope.
func (c *Client) labels(ctx context.Context, keywords []string, langCode string) (labelSet, error) {
	if c.cacheScope != CacheScopeInstance {
		return c.fetchLabels(ctx, keywords, langCode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		c.logger.Debug("Reusing cached ELSST label set", "labels", len(c.cached))
		return c.cached, nil
	}

	set, err := c.fetchLabels(ctx, keywords, langCode)
	if err != nil {
		return nil, err
	}
	c.cached = set
	return set, nil
}

// fetchLabels fans out one topics lookup per non-blank keyword and merges
// the results after the whole batch has joined. Partial results are never
// exposed: a cancelled batch returns the error and nothing else.
func (c *Client) fetchLabels(ctx context.Context, keywords []string, langCode string) (labelSet, error) {
	encodedLang := url.QueryEscape(langCode)

	var queries []string
	for _, keyword := range keywords {
		if strings.TrimSpace(keyword) == "" {
			continue
		}
		queries = append(queries, fmt.Sprintf("%s?filter=%s:%s,%s:%s",
			c.baseURL, labelFilter, url.QueryEscape(keyword), languageFilter, encodedLang))
	}

	results := make([]labelSet, len(queries))
	group, ctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		i, query := i, query
		group.Go(func() error {
			set, err := c.lookup(ctx, query)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make(labelSet)
	for _, set := range results {
		for entry := range set {
			merged[entry] = struct{}{}
		}
	}

	c.logger.Debug("Merged ELSST label set",
		"labels", len(merged),
		"lookups", len(queries))
	return merged, nil
}

// lookup performs one topics API request. Transport failures, error statuses
// and malformed payloads contribute an empty set rather than failing the
// batch; only context cancellation aborts it.
func (c *Client) lookup(ctx context.Context, query string) (labelSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("ELSST API request failed", "url", query, "error", err)
		return labelSet{}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("Failed to read ELSST API response", "url", query, "error", err)
		return labelSet{}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("ELSST API returned error status",
			"status", resp.StatusCode,
			"url", query)
		return labelSet{}, nil
	}

	set, err := parseLabels(body)
	if err != nil {
		c.logger.Error("Failed to parse ELSST API response", "url", query, "error", err)
		return labelSet{}, nil
	}
	return set, nil
}

// parseLabels converts a topics API response into composite `lang:"label"`
// entries, preserving the label's original casing.
func parseLabels(body []byte) (labelSet, error) {
	var payload topicsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse topics response: %w", err)
	}

	set := make(labelSet)
	for _, result := range payload.Results {
		for lang, label := range result.Labels {
			set[lang+`:"`+label+`"`] = struct{}{}
		}
	}
	return set, nil
}
