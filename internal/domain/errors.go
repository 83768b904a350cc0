package domain

import "errors"

var (
	// ErrDuplicateCity is returned when adding a city that is already
	// registered (case-insensitive match).
	ErrDuplicateCity = errors.New("city already registered")

	// ErrCityNotFound is returned when removing or selecting a city
	// absent from the session.
	ErrCityNotFound = errors.New("city not found")

	// ErrInvalidTimeFormat is returned for free-form time input that is
	// not strict HH:MM.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrInvalidTime is returned for hour or minute values out of range.
	ErrInvalidTime = errors.New("time out of range")
)
