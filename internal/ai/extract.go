package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be found in a response.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON returns the first complete JSON object in s, ignoring code fences and
// surrounding prose. Braces inside string literals are not counted.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

// DecodeJSON extracts the JSON object from raw and decodes it into v. Every key in
// required must be present at the top level.
func DecodeJSON(raw string, v any, required ...string) error {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if len(required) > 0 {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(obj), &keys); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		for _, k := range required {
			if _, ok := keys[k]; !ok {
				return fmt.Errorf("response is missing %q", k)
			}
		}
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
