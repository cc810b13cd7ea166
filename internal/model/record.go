package model

import "time"

// Record is one externally sourced structured observation under judgment:
// a CI pipeline run, a deployment event, a provider-reported artifact.
// Values are strings, numbers, timestamps, or nested mappings as produced
// by the upstream provider clients. The engine never mutates a Record.
type Record map[string]any

// Has reports whether the field exists with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// GetString returns the named field as a string.
func (r Record) GetString(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// GetNumber returns the named field as a float64, coercing the integer
// types that JSON decoders and provider clients commonly produce.
func (r Record) GetNumber(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// GetTime returns the named field as a timestamp. String values are
// parsed as RFC 3339; anything else is not a timestamp.
func (r Record) GetTime(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GetNested returns the named field as a nested mapping.
func (r Record) GetNested(key string) (Record, bool) {
	switch v := r[key].(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	}
	return nil, false
}

// RecordContext holds the request parameters that produced a Record or a
// batch of sibling Records. It is compared against the records, never
// merged into them.
type RecordContext struct {
	Provider      string    `json:"provider,omitempty"`
	WindowStart   time.Time `json:"window_start,omitzero"`
	WindowEnd     time.Time `json:"window_end,omitzero"`
	ExpectedCount int       `json:"expected_count,omitempty"`
}

// HasWindow reports whether the context constrains a time window.
func (c RecordContext) HasWindow() bool {
	return !c.WindowStart.IsZero() && !c.WindowEnd.IsZero()
}
