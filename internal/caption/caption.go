package caption

import (
	"fmt"
	"math"
	"strconv"
)

// Caption is one subtitle cue as served by the API.
type Caption struct {
	Start           float64 `json:"start"`
	End             float64 `json:"end"`
	Text            string  `json:"text"`
	StartTimeString string  `json:"startTimeString"`
	EndTimeString   string  `json:"endTimeString"`
}

// Round1 rounds the exact binary value of v to one decimal place with ties
// to even: 0.15 is stored just below the tie and becomes 0.1, 1.25 becomes 1.2.
func Round1(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatClock formats seconds as M:SS for display.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}
