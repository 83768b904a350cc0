package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var sendTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ParseSendTime parses strict "HH:MM" (zero-padded, 24h) into hour and
// minute. Anything else is ErrInvalidTimeFormat.
func ParseSendTime(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if !sendTimeRe.MatchString(s) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	return hour, minute, nil
}

// ValidateClock checks hour/minute bounds. The conversation layer
// validates syntax; this is the scheduler's defensive boundary.
func ValidateClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidTime, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidTime, minute)
	}
	return nil
}

// FormatClock returns HH:MM for an hour/minute pair.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ValidateTZ checks that tz is a valid IANA location.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}
