// Package jsontime decodes the backend's timestamps, which may be RFC 3339 or naive ISO 8601 in UTC.
package jsontime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted by UnmarshalJSON, tried in order. Naive layouts are interpreted as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Time is a time.Time that round-trips through JSON as RFC 3339 and accepts naive UTC timestamps.
type Time struct {
	time.Time
}

// New wraps t in UTC.
func New(t time.Time) Time {
	return Time{Time: t.UTC()}
}

// Parse parses s with the accepted layouts.
func Parse(s string) (Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Time{Time: t.UTC()}, nil
		}
	}
	return Time{}, fmt.Errorf("jsontime: cannot parse %q", s)
}

// MarshalJSON encodes t as an RFC 3339 string, or null when zero.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes a string timestamp. null leaves t zero.
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("jsontime: %w", err)
	}
	if s == "" {
		*t = Time{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
