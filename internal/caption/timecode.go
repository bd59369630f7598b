package caption

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTimestamp is returned when a string is not HH:MM:SS,mmm.
var ErrMalformedTimestamp = errors.New("malformed SRT timestamp")

// SRTTimeToSeconds converts an HH:MM:SS,mmm timestamp to seconds.
func SRTTimeToSeconds(ts string) (float64, error) {
	clock, millis, ok := strings.Cut(ts, ",")
	if !ok || strings.Contains(millis, ",") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, ts)
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, ts)
	}

	var fields [4]int
	for i, raw := range append(parts, millis) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, ts)
		}
		fields[i] = n
	}

	hours, minutes, seconds, ms := fields[0], fields[1], fields[2], fields[3]
	whole := hours*3600 + minutes*60 + seconds

	return float64(whole) + float64(ms)/1000.0, nil
}
