package domain

import "sort"

// Forecast samples arrive on a fixed 3-hour grid, so two rain hours
// exactly one step apart belong to the same wet spell.
const forecastStepMinutes = 3 * 60

// Daylight window over which daily summaries are computed.
const (
	DaylightFrom = "06:00"
	DaylightTo   = "21:00"
)

// RainRange is a contiguous run of rainy forecast samples. A single
// sample yields Start == End.
type RainRange struct {
	Start string
	End   string
}

// CompactRainHours merges "HH:MM" rain timestamps into minimal
// contiguous ranges. Input values are parsed, de-duplicated and sorted;
// consecutive values exactly one forecast step apart extend the open
// range, anything else closes it and opens a new one.
func CompactRainHours(hours []string) []RainRange {
	mins := make([]int, 0, len(hours))
	seen := make(map[int]bool, len(hours))
	for _, h := range hours {
		hh, mm, err := ParseSendTime(h)
		if err != nil {
			continue
		}
		m := hh*60 + mm
		if !seen[m] {
			seen[m] = true
			mins = append(mins, m)
		}
	}
	if len(mins) == 0 {
		return nil
	}
	sort.Ints(mins)

	var out []RainRange
	start, end := mins[0], mins[0]
	for _, m := range mins[1:] {
		if m == end+forecastStepMinutes {
			end = m
			continue
		}
		out = append(out, RainRange{Start: FormatClock(start/60, start%60), End: FormatClock(end/60, end%60)})
		start, end = m, m
	}
	out = append(out, RainRange{Start: FormatClock(start/60, start%60), End: FormatClock(end/60, end%60)})
	return out
}

// CoversDaylight reports whether a single range spans the whole
// daylight window, which the summary renders as all-day rain.
func (r RainRange) CoversDaylight() bool {
	return r.Start == DaylightFrom && r.End == DaylightTo
}
