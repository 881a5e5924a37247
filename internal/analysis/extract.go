package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
)

// ErrNoDocument is returned when no JSON object can be recovered from the
// provider text
var ErrNoDocument = errors.New("no valid analysis document in response")

var (
	startPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\{\s*"company_basic_info"`),
		regexp.MustCompile("(?i)```json\\s*\\{"),
		regexp.MustCompile(`(?m)^\s*\{`),
	}
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ExtractDocument recovers the analysis JSON object from provider text.
// The whole text is tried first, then the first balanced object found by
// each start pattern, with trailing commas removed as a fallback.
func ExtractDocument(text string) (json.RawMessage, error) {
	if doc, ok := decodeObject(text); ok {
		return doc, nil
	}

	for _, pattern := range startPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}

		start := loc[0]
		for start < len(text) && text[start] != '{' {
			start++
		}

		candidate, ok := balancedObject(text[start:])
		if !ok {
			continue
		}
		if doc, ok := decodeObject(candidate); ok {
			return doc, nil
		}
		if doc, ok := decodeObject(trailingComma.ReplaceAllString(candidate, "$1")); ok {
			return doc, nil
		}
	}

	return nil, ErrNoDocument
}

// balancedObject returns the prefix of s up to the brace closing its first
// '{', skipping braces inside string literals
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}

// decodeObject accepts text only when it is a JSON object
func decodeObject(text string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	return json.RawMessage(text), true
}
