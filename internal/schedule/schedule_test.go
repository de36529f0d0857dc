package schedule

import (
	"testing"
	"time"
)

func TestWindow24hBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		lead time.Duration
		want bool
	}{
		{23*time.Hour + 29*time.Minute, false},
		{23*time.Hour + 30*time.Minute, true},
		{23*time.Hour + 31*time.Minute, true},
		{24 * time.Hour, true},
		{24*time.Hour + 30*time.Minute, true},
		{24*time.Hour + 31*time.Minute, false},
	}
	for _, tc := range cases {
		got := Window24h.Contains(now, now.Add(tc.lead))
		if got != tc.want {
			t.Fatalf("Window24h lead %s: got %v, want %v", tc.lead, got, tc.want)
		}
	}
}

func TestWindow2hBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		lead time.Duration
		want bool
	}{
		{89 * time.Minute, false},
		{90 * time.Minute, true},
		{2 * time.Hour, true},
		{150 * time.Minute, true},
		{151 * time.Minute, false},
	}
	for _, tc := range cases {
		got := Window2h.Contains(now, now.Add(tc.lead))
		if got != tc.want {
			t.Fatalf("Window2h lead %s: got %v, want %v", tc.lead, got, tc.want)
		}
	}
}

func TestWindowPastTarget(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if Window2h.Contains(now, now.Add(-2*time.Hour)) {
		t.Fatalf("expected past target to be outside window")
	}
}

func TestParseTimestampOffset(t *testing.T) {
	got, err := ParseTimestamp("2026-03-10T14:30:00+02:00")
	if err != nil {
		t.Fatalf("ParseTimestamp error: %v", err)
	}
	want := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
}

func TestParseTimestampNaiveAssumedUTC(t *testing.T) {
	for _, value := range []string{
		"2026-03-10T14:30:00",
		"2026-03-10 14:30:00",
		"2026-03-10T14:30",
	} {
		got, err := ParseTimestamp(value)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error: %v", value, err)
		}
		want := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	if _, err := ParseTimestamp("10/03/2026"); err != ErrInvalidTimestamp {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestNormalizeUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2026, 3, 10, 13, 0, 0, 123456789, loc)
	got := NormalizeUTC(in)
	want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTooCloseToReschedule(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if !TooCloseToReschedule(now.Add(time.Hour+59*time.Minute), now) {
		t.Fatalf("expected 1h59m lead to be too close")
	}
	if TooCloseToReschedule(now.Add(2*time.Hour+time.Minute), now) {
		t.Fatalf("expected 2h01m lead to be allowed")
	}
}
