package rule

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var deltaPattern = regexp.MustCompile(`^\s*(\d+)\s*([A-Za-z]+)\s*$`)

const day = 24 * time.Hour

// deltaUnits maps pluralized unit names to their length. Months and years are
// fixed 30 and 365 day spans.
var deltaUnits = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    day,
	"weeks":   7 * day,
	"months":  30 * day,
	"years":   365 * day,
}

func (r *Rule) initTimeDelta(now time.Time) error {
	if err := r.checkFlags(""); err != nil {
		return err
	}

	m := deltaPattern.FindStringSubmatch(r.value)
	if m == nil {
		return valueError(r.text, "could not parse duration %q", r.value)
	}
	unit := strings.ToLower(m[2])
	if !strings.HasSuffix(unit, "s") {
		unit += "s"
	}
	size, ok := deltaUnits[unit]
	if !ok {
		return valueError(r.text, "unknown duration unit %q", m[2])
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n > math.MaxInt64/int64(size) {
		return valueError(r.text, "duration %q is out of range", r.value)
	}

	r.delta = time.Duration(n) * size
	r.now = now
	return nil
}

// Delta returns the duration of a time delta rule.
func (r Rule) Delta() time.Duration { return r.delta }

// Now returns the reference instant of a time delta rule.
func (r Rule) Now() time.Time { return r.now }

func (r Rule) matchTimeDelta(value string) bool {
	instant, ok := parseInstant(value)
	if !ok {
		return false
	}
	return compareOrdered(r.op, r.now.Sub(instant), r.delta)
}

// parseInstant reads a track timestamp: an ISO-8601 instant (UTC unless a
// zone is given) or Unix epoch seconds.
func parseInstant(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC); err == nil {
		return t, true
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
	}
	return time.Time{}, false
}
