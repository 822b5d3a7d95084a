// Package policy computes attendance points from in-person check-in times and
// Zoom participation durations. All functions are pure; thresholds are passed
// in by the caller.
package policy

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"attendscript/internal/roster"
)

var (
	// ErrInvalidDuration reports a Zoom duration cell that cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidTimestamp reports a check-in timestamp that cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// TimeOfDay is a clock time expressed as seconds since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
		}
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/3600, int(t)%3600/60)
}

// Default cutoffs, matching the documented class schedule.
var (
	DefaultEarlyBird = TimeOfDay(11 * 3600)       // 11:00
	DefaultRegular   = TimeOfDay(11*3600 + 36*60) // 11:36
)

// DefaultZoomCutMinutes is the duration threshold for full Zoom attendance.
const DefaultZoomCutMinutes = 30.0

// CheckinPoints buckets an in-person check-in. At or before the early cutoff
// earns full points, at or before the regular cutoff earns late points, and
// anything after is absent. Boundaries are inclusive to the earlier bucket.
func CheckinPoints(at time.Time, early, regular TimeOfDay) float64 {
	t := TimeOfDay(at.Hour()*3600 + at.Minute()*60 + at.Second())
	switch {
	case t <= early:
		return roster.PointFull
	case t <= regular:
		return roster.PointLate
	default:
		return roster.PointAbsent
	}
}

// ZoomPoints buckets a Zoom duration in minutes against the cut threshold.
func ZoomPoints(minutes, cutMinutes float64) float64 {
	switch {
	case minutes >= cutMinutes:
		return roster.PointFull
	case minutes > 0:
		return roster.PointLate
	default:
		return roster.PointAbsent
	}
}

var durationCleanRe = regexp.MustCompile(`[^\d:.]`)

// ParseDuration converts a Zoom duration cell to minutes. Accepted forms:
// "H:MM:SS", "MM:SS", and a bare minute count ("45" or "45.5"). Stray
// characters around the digits are ignored, matching the export formats seen
// in the wild.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		// ParseFloat also accepts "nan" and "inf" spellings.
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return v, nil
	}
	cleaned := durationCleanRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if strings.Contains(cleaned, ":") {
		parts := strings.Split(cleaned, ":")
		nums := make([]int, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			nums[i] = n
		}
		switch len(nums) {
		case 3:
			return float64(nums[0])*60 + float64(nums[1]) + float64(nums[2])/60, nil
		case 2:
			return float64(nums[0]) + float64(nums[1])/60, nil
		case 1:
			return float64(nums[0]), nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return v, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	time.RFC3339,
}

var timeOnlyLayouts = []string{"15:04:05", "15:04"}

// ParseTimestamp parses a check-in timestamp cell. A bare clock time is
// combined with the fallback date, so files that record only a time still
// land on the session the command names.
func ParseTimestamp(s string, fallback time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range timeOnlyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(fallback.Year(), fallback.Month(), fallback.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, fallback.Location()), nil
		}
	}
	if d, err := roster.ParseDate(s); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
