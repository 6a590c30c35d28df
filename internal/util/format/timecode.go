package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var timeRe = regexp.MustCompile(`^(?:(\d+):)?(?:(\d+):)?(\d+(?:\.\d+)?)$`)

// ParseTime parses "[hh:][mm:]ss[.xxx]" into seconds. A single leading
// field is minutes, two leading fields are hours and minutes.
func ParseTime(s string) (float64, error) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	secs, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	first, second := m[1], m[2]
	switch {
	case first != "" && second != "":
		h, _ := strconv.Atoi(first)
		mm, _ := strconv.Atoi(second)
		secs += float64(h*3600 + mm*60)
	case first != "":
		mm, _ := strconv.Atoi(first)
		secs += float64(mm * 60)
	}
	return secs, nil
}

// Timestamp renders seconds as hh:mm:ss, adding one fractional digit when
// the fraction is at least a tenth of a second.
func Timestamp(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	// Round to milliseconds first so 10.3 does not turn into 10.29999.
	ms := int64(math.Round(secs * 1000))
	whole := ms / 1000
	ts := fmt.Sprintf("%02d:%02d:%02d", whole/3600, whole%3600/60, whole%60)
	if tenth := (ms % 1000) / 100; tenth > 0 {
		ts += "." + strconv.FormatInt(tenth, 10)
	}
	return ts
}

// Seconds renders a duration in seconds the way ffmpeg accepts it on the
// command line, with at most millisecond precision.
func Seconds(secs float64) string {
	return strconv.FormatFloat(math.Round(secs*1000)/1000, 'f', -1, 64)
}
