package assets

import (
	_ "embed"
	"strings"
)

//go:embed wishes.txt
var wishesRaw string

// Wishes returns the pool of good-mood lines appended to forecast
// messages, one per line in wishes.txt.
func Wishes() []string {
	var out []string
	for _, line := range strings.Split(wishesRaw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
