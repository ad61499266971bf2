// Package llmjson recovers structured values from LLM text output.
//
// Models are instructed to return strict JSON but routinely wrap it in
// markdown fences or prose. Decode tries progressively more forgiving
// extraction strategies; DecodeOr substitutes a caller-supplied default
// when nothing parseable remains.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
)

var ErrEmptyResponse = errors.New("empty response")

// Decode parses raw into out. Strategies, in order: strict parse, parse
// after stripping a single fenced code block, parse the substring between
// the first and last container delimiter. out must be a non-nil pointer.
func Decode(raw string, out any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyResponse
	}

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	clean := StripCodeFences(raw)
	if err := json.Unmarshal([]byte(clean), out); err == nil {
		return nil
	}

	open, close := delimitersFor(out)
	start := strings.Index(clean, open)
	end := strings.LastIndex(clean, close)
	if start >= 0 && end > start {
		candidate := clean[start : end+1]
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parseable %s%s payload in response", open, close)
}

// DecodeOr parses raw into out and invokes fallback on any failure.
// fallback must leave out in a fully-populated, schema-valid state.
func DecodeOr(raw string, out any, fallback func()) {
	if err := Decode(raw, out); err != nil {
		log.Printf("llmjson parse_fallback err=%q response_chars=%d", err.Error(), len(raw))
		fallback()
	}
}

// StripCodeFences removes a single leading/trailing triple-backtick fence
// and an optional language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}

// delimitersFor picks the container delimiters matching out's underlying
// kind: brackets for slices/arrays, braces for everything else.
func delimitersFor(out any) (string, string) {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		return "[", "]"
	}
	return "{", "}"
}
