// Package webhook normalizes the loosely structured payloads delivered by the
// Whaticket webhook. Key casing is not guaranteed by the sender, so every
// lookup falls back to a case-insensitive scan. Classification of the payload
// into an action kind lives here too; it depends only on top-level shape.
package webhook

import (
	"strconv"
	"strings"
)

// Payload is a raw webhook body. Values keep the types produced by JSON
// decoding (string, float64, bool, map[string]any, []any).
type Payload map[string]any

// Get returns the value for key, trying a literal lookup first and falling
// back to a case-insensitive scan over the keys.
func (p Payload) Get(key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether key is present with a usable value. Empty strings and
// nils count as absent, mirroring how the upstream sends optional fields.
func (p Payload) Has(key string) bool {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// GetString returns the value for key coerced to a string. Numeric values are
// formatted without a trailing fraction so phone-number-like fields survive
// JSON number decoding.
func (p Payload) GetString(key string) string {
	v, ok := p.Get(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// GetInt returns the value for key coerced to an int, or 0.
func (p Payload) GetInt(key string) int {
	v, ok := p.Get(key)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// GetBool returns the value for key coerced to a bool. Only an explicit true
// (or "true") yields true.
func (p Payload) GetBool(key string) bool {
	v, ok := p.Get(key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

// GetMap returns the nested object under key as a Payload, or nil when the
// key is absent or not an object.
func (p Payload) GetMap(key string) Payload {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case map[string]any:
		return Payload(t)
	case Payload:
		return t
	default:
		return nil
	}
}

// GetSlice returns the nested array under key, or nil.
func (p Payload) GetSlice(key string) []any {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	s, isSlice := v.([]any)
	if !isSlice {
		return nil
	}
	return s
}
