package services

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00":   0,
		"9:05":    9*60 + 5,
		"09:05":   9*60 + 5,
		"23:59":   23*60 + 59,
		" 12:30 ": 12*60 + 30,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	invalid := []string{
		"", "24:00", "12:60", "1230", "12:3", "123:00", "ab:cd", "-1:00",
		"+9:00", "09:+5", "-0:30", "9 :00", "09:0x",
	}
	for _, in := range invalid {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) should fail", in)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(9*60 + 5); got != "09:05" {
		t.Errorf("got %q", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("got %q", got)
	}
}

func TestParseWindowRejectsOvernight(t *testing.T) {
	if _, err := ParseWindow("23:00", "01:00"); err == nil {
		t.Error("overnight window should be rejected")
	}
	w, err := ParseWindow("9:00", "9:01")
	if err != nil {
		t.Fatalf("ParseWindow failed: %v", err)
	}
	if w.String() != "09:00 - 09:01" {
		t.Errorf("unexpected window %s", w)
	}
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)
	if got := MinuteOfDay(ts, time.UTC); got != 23*60+30 {
		t.Errorf("got %d", got)
	}
	plusOne := time.FixedZone("plus1", 60*60)
	if got := MinuteOfDay(ts, plusOne); got != 30 {
		t.Errorf("expected wrap to 00:30 in +01:00, got %d", got)
	}
}
