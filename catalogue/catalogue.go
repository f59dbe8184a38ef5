// Package catalogue extracts record context from CESSDA data catalogue
// detail-page URLs. A detail URL carries the record identifier in its
// "/detail/" path segment and may carry a two-letter language code in its
// "lang" query parameter.
package catalogue

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// detailSegment is the path segment that precedes the record identifier.
const detailSegment = "/detail/"

var (
	// whitespacePattern matches whitespace anywhere in a pasted URL.
	whitespacePattern = regexp.MustCompile(`\s+`)

	// languagePattern validates a two-letter language code value.
	languagePattern = regexp.MustCompile(`^[a-zA-Z]{2}$`)
)

// ExtractRecordIdentifier returns the record identifier embedded in a
// catalogue detail URL. Whitespace is stripped before parsing and any query
// string is ignored. It fails when the URL lacks a "/detail/" segment or the
// segment carries no identifier.
func ExtractRecordIdentifier(rawURL string) (string, error) {
	clean := whitespacePattern.ReplaceAllString(rawURL, "")
	if i := strings.IndexByte(clean, '?'); i != -1 {
		clean = clean[:i]
	}

	idx := strings.Index(clean, detailSegment)
	if idx == -1 {
		return "", fmt.Errorf("URL must contain %q: %s", detailSegment, rawURL)
	}

	id := clean[idx+len(detailSegment):]
	if id == "" {
		return "", fmt.Errorf("no record identifier in URL: %s", rawURL)
	}

	return id, nil
}

// ExtractLanguageCode returns the lowercase two-letter language code from the
// URL's "lang" query parameter, or the empty string when none is present.
// The parameter name is matched case-insensitively and the first valid match
// wins. Malformed URLs or query strings yield no language, never an error.
func ExtractLanguageCode(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	for _, param := range strings.Split(parsed.RawQuery, "&") {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(key, "lang") && languagePattern.MatchString(value) {
			return strings.ToLower(value)
		}
	}

	return ""
}
