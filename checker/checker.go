// Package checker implements the ELSST keyword classification pipeline:
// URL interpretation, record retrieval, keyword extraction and the
// three-tier decision strategy (vocab attribute, vocabURI attribute,
// label-service match).
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"

	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/catalogue"
	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/ddi"
	"github.com/cessda/cessda.fair.metadata-uses-cessda-elsst-keywords/verdict"
)

const (
	// VocabName is the vocabulary literal expected in the keyword element's
	// vocab attribute. The comparison is case-sensitive.
	VocabName = "ELSST"

	// VocabURISubstring identifies ELSST concept URIs in the vocabURI
	// attribute.
	VocabURISubstring = "elsst.cessda.eu"
)

// Fetcher retrieves the codeBook document for a record identifier.
type Fetcher interface {
	FetchRecord(ctx context.Context, identifier string) (*xmlquery.Node, error)
}

// Matcher compares keyword text against the controlled vocabulary.
type Matcher interface {
	Match(ctx context.Context, keywords []string, langCode string) verdict.Verdict
}

// Checker classifies catalogue records. It is safe for concurrent use as
// long as its Fetcher and Matcher are.
type Checker struct {
	fetcher     Fetcher
	matcher     Matcher
	logger      *slog.Logger
	defaultLang string
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithDefaultLanguage sets a language code used when the catalogue URL
// carries none.
func WithDefaultLanguage(langCode string) Option {
	return func(c *Checker) {
		c.defaultLang = strings.ToLower(langCode)
	}
}

// New creates a Checker over the given fetcher and matcher.
func New(fetcher Fetcher, matcher Matcher, opts ...Option) *Checker {
	c := &Checker{
		fetcher: fetcher,
		matcher: matcher,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Outcome couples the verdict with the trace of how it was reached.
type Outcome struct {
	// RunID correlates the trace with log records for this classification.
	RunID string

	// Verdict is the classification result.
	Verdict verdict.Verdict

	// Trace is the human-readable account of each decision step.
	Trace []string
}

// Response converts the outcome into an evaluation response.
func (o Outcome) Response() verdict.EvaluationResponse {
	return verdict.NewEvaluationResponse(o.Verdict, o.Trace)
}

func (o *Outcome) note(format string, args ...any) {
	o.Trace = append(o.Trace, fmt.Sprintf(format, args...))
}

// ContainsElsstKeywords runs the full pipeline for one catalogue detail URL.
// It never returns an error: malformed input, transport failures, structural
// failures, cancellation and panics all collapse to an indeterminate outcome.
func (c *Checker) ContainsElsstKeywords(ctx context.Context, rawURL string) (out Outcome) {
	out = Outcome{RunID: uuid.New().String(), Verdict: verdict.Indeterminate}
	logger := c.logger.With("run_id", out.RunID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic during classification", "panic", r)
			out.Verdict = verdict.Indeterminate
			out.note("internal error, result is indeterminate")
		}
	}()

	identifier, err := catalogue.ExtractRecordIdentifier(rawURL)
	if err != nil {
		logger.Error("Invalid catalogue URL", "url", rawURL, "error", err)
		out.note("invalid catalogue URL: %v", err)
		return out
	}
	logger.Info("Extracted record identifier", "identifier", identifier)
	out.note("extracted record identifier %s", identifier)

	doc, err := c.fetcher.FetchRecord(ctx, identifier)
	if err != nil {
		logger.Error("Record fetch failed", "identifier", identifier, "error", err)
		out.note("unable to retrieve document for %s", identifier)
		return out
	}
	out.note("retrieved DDI codeBook for %s", identifier)

	out.Verdict = c.classify(ctx, doc, rawURL, logger, &out)
	return out
}

// Classify applies the three-tier decision strategy to an already fetched
// codeBook document. The language context is re-derived from rawURL when the
// fuzzy tier needs it. Every internal failure yields indeterminate.
func (c *Checker) Classify(ctx context.Context, doc *xmlquery.Node, rawURL string) verdict.Verdict {
	var out Outcome
	return c.classify(ctx, doc, rawURL, c.logger, &out)
}

func (c *Checker) classify(ctx context.Context, doc *xmlquery.Node, rawURL string, logger *slog.Logger, out *Outcome) (v verdict.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while classifying keywords", "panic", r)
			out.note("internal error while classifying, result is indeterminate")
			v = verdict.Indeterminate
		}
	}()

	keywords := ddi.ExtractKeywords(doc)
	if len(keywords) == 0 {
		logger.Info("No keywords found")
		out.note("no subject keywords present in record")
		return verdict.Fail
	}

	texts := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword.Vocab != nil && *keyword.Vocab == VocabName {
			logger.Info("Found ELSST vocabulary declaration in 'vocab' attribute",
				"keyword", keyword.Text)
			out.note("keyword %q declares vocab=%s", keyword.Text, VocabName)
			return verdict.Pass
		}

		if keyword.VocabURI != nil && strings.Contains(*keyword.VocabURI, VocabURISubstring) {
			logger.Info("Found ELSST vocabulary declaration in 'vocabURI' attribute",
				"keyword", keyword.Text)
			out.note("keyword %q declares an %s vocabURI", keyword.Text, VocabURISubstring)
			return verdict.Pass
		}

		texts = append(texts, keyword.Text)
	}

	// Extraction already drops empty-text elements, so candidates without
	// any comparable text should not occur; degrade rather than guess.
	if len(texts) == 0 {
		out.note("keywords present but none carry comparable text")
		return verdict.Indeterminate
	}

	logger.Info("Unable to determine from attributes, checking keywords via ELSST API",
		"keywords", len(texts))
	out.note("no vocabulary attributes matched, checking %d keyword(s) against the ELSST API", len(texts))

	langCode := catalogue.ExtractLanguageCode(rawURL)
	if langCode == "" {
		langCode = c.defaultLang
	}
	if langCode == "" {
		out.note("no language code available, result is indeterminate")
	} else {
		out.note("matching labels for language %s", langCode)
	}

	result := c.matcher.Match(ctx, texts, langCode)
	out.note("label match result: %s", result)
	return result
}
