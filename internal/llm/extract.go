package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	apperrors "github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// fencePattern matches a ``` block with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")

// ExtractFencedJSON pulls the JSON object out of a model reply.
//
// The first fenced block that holds a JSON object wins. Without one, the
// balanced {...} spans of the text are tried in order and the first one that
// parses as an object is used. Arrays, strings and numbers are not analyses.
// Anything else is a parse error; the raw text is never returned as a best
// effort.
func ExtractFencedJSON(text string) (json.RawMessage, error) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if isObject(candidate) {
			return json.RawMessage(candidate), nil
		}
	}

	found := false
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		span, ok := balancedObject(text, start)
		if !ok {
			continue
		}
		found = true
		if isObject(span) {
			return json.RawMessage(span), nil
		}
	}

	if found {
		return nil, apperrors.New(apperrors.ErrCodeParse, "analyzer reply contains malformed JSON")
	}
	return nil, apperrors.New(apperrors.ErrCodeParse, "analyzer reply contains no JSON object")
}

// isObject reports whether s is a single JSON object
func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}

// balancedObject returns the span from the '{' at start to its matching '}',
// skipping braces inside string literals.
func balancedObject(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
