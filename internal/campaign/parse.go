package campaign

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"synapse/internal/types"
)

var (
	urlPattern   = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)
	splitPattern = regexp.MustCompile(`[\s,]+`)
	fencePattern = regexp.MustCompile("```(json)?\\s*([\\s\\S]*?)\\s*```")
)

// IsURL reports whether s looks like a web address. The scheme is optional.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// ParseURLs splits input on whitespace and commas and returns the tokens
// that look like URLs, in input order without duplicates.
func ParseURLs(input string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, tok := range splitPattern.Split(input, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] || !IsURL(tok) {
			continue
		}
		seen[tok] = true
		urls = append(urls, tok)
	}
	return urls
}

// extractJSON returns the body of the first fenced block, or text itself
// when there is no fence.
func extractJSON(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil && m[2] != "" {
		return m[2]
	}
	return text
}

// ParseStructured decodes a model response into T. Responses wrapped in
// Markdown code fences are unwrapped first. label names the request in
// error messages.
func ParseStructured[T any](text, label string) (T, error) {
	var out T
	if strings.TrimSpace(text) == "" {
		return out, fmt.Errorf("%w: AI response was empty when expecting JSON for %s; this may be due to content filters or a model refusal",
			types.ErrMalformedResponse, label)
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return out, fmt.Errorf("%w: AI returned a malformed response for %s: %v", types.ErrMalformedResponse, label, err)
	}
	return out, nil
}
