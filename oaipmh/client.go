// Package oaipmh fetches DDI metadata records from the CESSDA OAI-PMH
// repository and isolates the codeBook payload for structural queries.
package oaipmh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/ddi"
)

const (
	// DefaultBaseURL is the GetRecord endpoint template; the record
	// identifier is appended verbatim.
	DefaultBaseURL = "https://datacatalogue.cessda.eu/oai-pmh/v0/oai?verb=GetRecord&metadataPrefix=oai_ddi25&identifier="

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "elsstcheck"

	// maxResponseSize bounds the response body read to prevent memory
	// exhaustion on a misbehaving endpoint.
	maxResponseSize = 10 * 1024 * 1024 // 10MB
)

// ErrUnavailable marks every failure to retrieve or isolate the record
// payload. Callers map it to an indeterminate classification.
var ErrUnavailable = errors.New("unable to retrieve document")

// Client fetches metadata records over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the GetRecord endpoint template.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
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

// WithTimeout sets the per-request timeout.
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

// NewClient creates a repository client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchRecord retrieves the record for the given identifier and returns the
// codeBook subtree re-rooted into a minimal document of its own. The
// identifier mirrors the catalogue's own link format and is therefore
// appended without further encoding. Every failure wraps ErrUnavailable.
func (c *Client) FetchRecord(ctx context.Context, identifier string) (*xmlquery.Node, error) {
	requestURL := c.baseURL + identifier

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Fetching OAI-PMH record",
		"identifier", identifier,
		"url", requestURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrUnavailable)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to parse XML response",
			"url", requestURL,
			"preview", preview(body))
		return nil, fmt.Errorf("%w: parse XML: %v", ErrUnavailable, err)
	}

	codeBook := ddi.FindCodeBook(doc)
	if codeBook == nil {
		return nil, fmt.Errorf("%w: no DDI codeBook element", ErrUnavailable)
	}

	return reroot(codeBook), nil
}

// reroot detaches the codeBook subtree into a minimal document so downstream
// queries cannot escape into the OAI-PMH envelope.
func reroot(codeBook *xmlquery.Node) *xmlquery.Node {
	root := &xmlquery.Node{Type: xmlquery.DocumentNode}
	codeBook.Parent = root
	codeBook.PrevSibling = nil
	codeBook.NextSibling = nil
	root.FirstChild = codeBook
	root.LastChild = codeBook
	return root
}

// preview returns the leading bytes of a response body for diagnostics.
func preview(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
