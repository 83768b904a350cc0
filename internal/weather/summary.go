package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
)

// RenderCurrent formats the one-line current weather report.
func RenderCurrent(city string, obs Observation) string {
	if obs.Description == "" {
		return fmt.Sprintf("Погода в %s: %.0f°C.", city, obs.TempC)
	}
	return fmt.Sprintf("Погода в %s: %s, %.0f°C.", city, obs.Description, obs.TempC)
}

// RenderUnavailable is the soft-failure reply for a city whose lookup
// failed.
func RenderUnavailable(city string) string {
	return fmt.Sprintf("Не удалось получить погоду для %s.", city)
}

// RainHoursToday returns local "HH:MM" values of rainy forecast slots
// falling on now's local date inside the daylight window.
func RainHoursToday(samples []Sample, loc *time.Location, now time.Time) []string {
	if loc == nil {
		loc = time.UTC
	}
	localNow := now.In(loc)
	fromH, fromM, _ := domain.ParseSendTime(domain.DaylightFrom)
	toH, toM, _ := domain.ParseSendTime(domain.DaylightTo)
	from := fromH*60 + fromM
	to := toH*60 + toM

	var hours []string
	for _, s := range samples {
		if s.RainVolume <= 0 {
			continue
		}
		lt := s.Timestamp.In(loc)
		if lt.Year() != localNow.Year() || lt.YearDay() != localNow.YearDay() {
			continue
		}
		m := lt.Hour()*60 + lt.Minute()
		if m < from || m > to {
			continue
		}
		hours = append(hours, lt.Format("15:04"))
	}
	return hours
}

// RenderRain turns compacted rain ranges into a human line. Empty input
// means a dry day; a single range spanning the whole daylight window is
// reported as all-day rain.
func RenderRain(ranges []domain.RainRange) string {
	if len(ranges) == 0 {
		return "Без дождя в течение дня."
	}
	if len(ranges) == 1 && ranges[0].CoversDaylight() {
		return "Дождь весь день."
	}
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		if r.Start == r.End {
			parts = append(parts, "в "+r.Start)
		} else {
			parts = append(parts, "с "+r.Start+" до "+r.End)
		}
	}
	return "Дождь " + strings.Join(parts, ", ") + "."
}

// RainSummary filters today's daylight samples, compacts rainy slots
// and renders the result.
func RainSummary(samples []Sample, loc *time.Location, now time.Time) string {
	return RenderRain(domain.CompactRainHours(RainHoursToday(samples, loc, now)))
}
