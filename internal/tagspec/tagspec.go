// Package tagspec classifies raw placement values into typed
// specifications: a relative offset, an absolute index, or a slot name.
package tagspec

import (
	"fmt"
	"math"
	"regexp"

	"github.com/ykomatsu/troupe/internal/model"
)

// Spec is the typed form of a raw placement value. Exactly one of Offset,
// Index, or Name is meaningful, selected by Kind.
type Spec struct {
	Kind   model.SpecKind
	Offset int    // relative: signed offset from the current slot
	Index  int    // absolute: explicit slot index in [1,9]
	Name   string // named: identifier-shaped slot name
}

const (
	// AbsoluteMin and AbsoluteMax bound absolute indices. Values outside the
	// range are a parse-time error, never a resolution-time one.
	AbsoluteMin = 1
	AbsoluteMax = 9
)

var (
	allDigits  = regexp.MustCompile(`^\d+$`)
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// Parse turns a raw placement value into a Spec. Numbers are relative
// offsets (negative means "N slots back"), all-digit strings are absolute
// indices, identifier-shaped strings are slot names. Parse has no side
// effects.
func Parse(raw any) (Spec, error) {
	if raw == nil {
		return Spec{}, fmt.Errorf("tag specification cannot be nil")
	}

	if n, ok := asInt(raw); ok {
		return Spec{Kind: model.SpecRelative, Offset: n}, nil
	}

	// asInt already rejected these, so they must be non-integral.
	switch raw.(type) {
	case float32, float64:
		return Spec{}, fmt.Errorf("tag specification must be a whole number, got %v", raw)
	}

	s, ok := raw.(string)
	if !ok {
		return Spec{}, fmt.Errorf("tag specification must be a number or string, got %T", raw)
	}

	if s == "" {
		return Spec{}, fmt.Errorf("tag specification cannot be empty")
	}

	if allDigits.MatchString(s) {
		var idx int
		if _, err := fmt.Sscanf(s, "%d", &idx); err != nil || idx < AbsoluteMin || idx > AbsoluteMax {
			return Spec{}, fmt.Errorf("absolute tag must be between %d and %d, got %q", AbsoluteMin, AbsoluteMax, s)
		}
		return Spec{Kind: model.SpecAbsolute, Index: idx}, nil
	}

	if identifier.MatchString(s) {
		return Spec{Kind: model.SpecNamed, Name: s}, nil
	}

	return Spec{}, fmt.Errorf("invalid tag name format: %q", s)
}

// asInt normalizes the numeric types a decoded request can carry. JSON
// numbers arrive as float64; YAML integers as int. Non-integral floats are
// rejected because only whole offsets are meaningful.
func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case float32:
		return asInt(float64(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

// String renders the spec for log lines and error context.
func (s Spec) String() string {
	switch s.Kind {
	case model.SpecRelative:
		return fmt.Sprintf("relative(%+d)", s.Offset)
	case model.SpecAbsolute:
		return fmt.Sprintf("absolute(%d)", s.Index)
	case model.SpecNamed:
		return fmt.Sprintf("named(%s)", s.Name)
	}
	return "unknown"
}
