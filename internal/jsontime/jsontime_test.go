package jsontime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnmarshalJSON_Layouts(t *testing.T) {
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	testCases := []struct {
		name string
		in   string
	}{
		{"rfc3339", `"2026-03-01T10:30:00Z"`},
		{"offset", `"2026-03-01T17:30:00+07:00"`},
		{"naive", `"2026-03-01T10:30:00"`},
		{"naive micros", `"2026-03-01T10:30:00.000000"`},
		{"space", `"2026-03-01 10:30:00"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got Time
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got.Time, want)
			}
		})
	}
}

func TestUnmarshalJSON_NullAndEmpty(t *testing.T) {
	for _, in := range []string{`null`, `""`} {
		got := New(time.Now())
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if !got.IsZero() {
			t.Errorf("Unmarshal(%s) = %v, want zero", in, got.Time)
		}
	}
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`"yesterday"`, `42`} {
		var got Time
		if err := json.Unmarshal([]byte(in), &got); err == nil {
			t.Errorf("Unmarshal(%s) should fail", in)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Time{})
	if err != nil || string(b) != "null" {
		t.Errorf("Marshal zero = %s, %v; want null", b, err)
	}

	in := New(time.Date(2026, 3, 1, 10, 30, 0, 5, time.UTC))
	b, err = json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Time
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !out.Equal(in.Time) {
		t.Errorf("round trip = %v, want %v", out.Time, in.Time)
	}
}
