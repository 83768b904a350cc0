package store

import (
	"database/sql"
	"encoding/json"
)

// Cities and timezones are stored as JSON columns; one row is one
// session and both fields are always read and written together.

func encodeCities(cities []string) string {
	if len(cities) == 0 {
		return "[]"
	}
	b, err := json.Marshal(cities)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeCities(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func encodeTimezones(tz map[string]string) string {
	if len(tz) == 0 {
		return "{}"
	}
	b, err := json.Marshal(tz)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeTimezones(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
