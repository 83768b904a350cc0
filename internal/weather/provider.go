package weather

import (
	"context"
	"errors"
	"time"
)

// ErrLookupFailed covers any upstream failure (network, non-2xx, bad
// payload, unknown city). Callers degrade: city added with unknown
// timezone, forecast replaced by an unavailability message.
var ErrLookupFailed = errors.New("weather lookup failed")

// Observation is the current weather for a city.
type Observation struct {
	Description string // localized, e.g. "пасмурно"
	TempC       float64
}

// Sample is one 3-hour forecast slot.
type Sample struct {
	Timestamp  time.Time // UTC
	TempC      float64
	WindSpeed  float64 // m/s
	RainVolume float64 // mm over the slot
}

// Provider abstracts the weather, forecast and timezone lookups the bot
// depends on.
type Provider interface {
	Current(ctx context.Context, city string) (Observation, error)
	Forecast(ctx context.Context, city string) ([]Sample, error)
	TimezoneFor(ctx context.Context, city string) (string, error)
}
