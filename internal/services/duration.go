package services

import (
	"fmt"
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// UnknownDuration is reported for durations that cannot be parsed or were never returned.
const UnknownDuration = "Unknown"

// ParseDuration converts an enrichment duration token such as "PT1H2M3S" into a clock string.
//
// The result is "H:MM:SS" when hours are present and "MM:SS" otherwise; tokens outside
// the PT[nH][nM][nS] grammar yield [UnknownDuration].
func ParseDuration(token string) string {
	m := durationPattern.FindStringSubmatch(token)
	if m == nil {
		return UnknownDuration
	}

	minutes, seconds := atoiOrZero(m[2]), atoiOrZero(m[3])
	if m[1] != "" {
		return fmt.Sprintf("%d:%02d:%02d", atoiOrZero(m[1]), minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
