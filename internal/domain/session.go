package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TZUnknown marks a city whose timezone lookup failed. The scheduler
// substitutes the configured default timezone for such cities.
const TZUnknown = "unknown"

// State is the single conversation mode of a chat. Exactly one state is
// active at any time; free-form text is interpreted according to it.
type State string

const (
	StateIdle             State = "idle"
	StateAddCity          State = "add_city"
	StateRemoveCity       State = "remove_city"
	StateSelectNotifyCity State = "select_notify_city"
	StateSelectTime       State = "select_time"
	StateCustomTime       State = "custom_time"
	StateForecastCity     State = "forecast_city"
)

// ParseState restores a State from its stored form. Unknown or empty
// values (old rows, missing column) fall back to idle.
func ParseState(s string) State {
	switch st := State(s); st {
	case StateAddCity, StateRemoveCity, StateSelectNotifyCity,
		StateSelectTime, StateCustomTime, StateForecastCity:
		return st
	default:
		return StateIdle
	}
}

// Session holds per-chat cities, notification settings and the
// conversation state.
type Session struct {
	ChatID    int64
	Cities    []string          // insertion order, unique case-insensitively
	Timezones map[string]string // city -> IANA name or TZUnknown

	// NotifyCity is empty or a member of Cities. A notification trigger
	// exists for this chat iff both NotifyCity and SendTime are set.
	NotifyCity string
	SendTime   string // "HH:MM", empty when unset

	State     State
	CreatedAt time.Time // UTC
}

// NewSession returns an idle session with no cities.
func NewSession(chatID int64) *Session {
	return &Session{
		ChatID:    chatID,
		Timezones: make(map[string]string),
		State:     StateIdle,
		CreatedAt: time.Now().UTC(),
	}
}

// NotificationConfigured reports whether this session should have an
// active daily trigger.
func (s *Session) NotificationConfigured() bool {
	return s.NotifyCity != "" && s.SendTime != ""
}

var cityTitle = cases.Title(language.Und)

// NormalizeCity canonicalizes raw user input: trims surrounding space,
// collapses inner runs of spaces and title-cases each word.
func NormalizeCity(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return cityTitle.String(strings.Join(fields, " "))
}

// HasCity reports whether name (already normalized) is registered,
// comparing case-insensitively.
func (s *Session) HasCity(name string) bool {
	for _, c := range s.Cities {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// AddCity normalizes raw and appends it to the city list. Returns the
// canonical name, or ErrDuplicateCity without mutating the session when
// the city is already registered under any casing.
func (s *Session) AddCity(raw string) (string, error) {
	name := NormalizeCity(raw)
	if name == "" {
		return "", ErrCityNotFound
	}
	if s.HasCity(name) {
		return name, ErrDuplicateCity
	}
	s.Cities = append(s.Cities, name)
	return name, nil
}

// SetTimezone records the lookup result for a registered city.
func (s *Session) SetTimezone(city, tz string) {
	if s.Timezones == nil {
		s.Timezones = make(map[string]string)
	}
	if tz == "" {
		tz = TZUnknown
	}
	s.Timezones[city] = tz
}

// TimezoneOf returns the stored timezone for a city, or TZUnknown.
func (s *Session) TimezoneOf(city string) string {
	if tz, ok := s.Timezones[city]; ok && tz != "" {
		return tz
	}
	return TZUnknown
}

// RemoveCity deletes the city matching raw after normalization. The
// second result reports whether the removed city was the notification
// city; in that case NotifyCity has been cleared and the caller must
// cancel the chat's trigger.
func (s *Session) RemoveCity(raw string) (string, bool, error) {
	name := NormalizeCity(raw)
	for i, c := range s.Cities {
		if c != name {
			continue
		}
		s.Cities = append(s.Cities[:i], s.Cities[i+1:]...)
		delete(s.Timezones, name)
		if s.NotifyCity == name {
			s.NotifyCity = ""
			return name, true, nil
		}
		return name, false, nil
	}
	return name, false, ErrCityNotFound
}
