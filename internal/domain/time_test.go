package domain

import (
	"errors"
	"testing"
)

func TestParseSendTime(t *testing.T) {
	valid := map[string][2]int{
		"00:00": {0, 0},
		"09:30": {9, 30},
		"23:59": {23, 59},
		" 09:00 ": {9, 0},
	}
	for in, want := range valid {
		h, m, err := ParseSendTime(in)
		if err != nil {
			t.Errorf("ParseSendTime(%q): %v", in, err)
			continue
		}
		if h != want[0] || m != want[1] {
			t.Errorf("ParseSendTime(%q) = %d:%d, want %d:%d", in, h, m, want[0], want[1])
		}
	}

	invalid := []string{"", "9:00", "24:00", "12:60", "12.30", "12:3", "ab:cd", "12:30:00"}
	for _, in := range invalid {
		if _, _, err := ParseSendTime(in); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("ParseSendTime(%q): want ErrInvalidTimeFormat, got %v", in, err)
		}
	}
}

func TestValidateClock(t *testing.T) {
	if err := ValidateClock(0, 0); err != nil {
		t.Fatalf("00:00: %v", err)
	}
	if err := ValidateClock(23, 59); err != nil {
		t.Fatalf("23:59: %v", err)
	}
	for _, c := range [][2]int{{-1, 0}, {24, 0}, {12, -1}, {12, 60}} {
		if err := ValidateClock(c[0], c[1]); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ValidateClock(%d, %d): want ErrInvalidTime, got %v", c[0], c[1], err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(7, 5); got != "07:05" {
		t.Fatalf("want 07:05, got %q", got)
	}
}
