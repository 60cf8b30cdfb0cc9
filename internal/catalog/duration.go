package catalog

import (
	"strings"
	"time"
)

// parseISODuration parses the API's ISO-8601 durations ("PT3M42S").
// Malformed input yields zero, matching how the service omits durations
// for some tracks.
func parseISODuration(s string) time.Duration {
	rest, ok := strings.CutPrefix(s, "PT")
	if !ok {
		return 0
	}

	var total time.Duration
	n := 0
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
		case r == 'H':
			total += time.Duration(n) * time.Hour
			n = 0
		case r == 'M':
			total += time.Duration(n) * time.Minute
			n = 0
		case r == 'S':
			total += time.Duration(n) * time.Second
			n = 0
		default:
			return 0
		}
	}
	return total
}
