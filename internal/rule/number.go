package rule

import (
	"math"
	"strconv"
	"strings"
)

func (r *Rule) initNumber() error {
	if err := r.checkFlags(""); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(r.value), 64)
	if err != nil || math.IsNaN(n) {
		return valueError(r.text, "%q is not a number", r.value)
	}
	r.number = n
	return nil
}

// Number returns the operand of a number rule.
func (r Rule) Number() float64 { return r.number }

func (r Rule) matchNumber(value string) bool {
	n, ok := attrNumber(value)
	if !ok {
		return false
	}
	return compareOrdered(r.op, n, r.number)
}

// attrNumber reads a numeric attribute. Empty values count as 0. Values such
// as "3/12" (track of total) or "2010-05-01" (date) use their leading number.
func attrNumber(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, true
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n, !math.IsNaN(n)
	}

	end := 0
	if end < len(value) && (value[end] == '-' || value[end] == '+') {
		end++
	}
	digits := 0
	for end < len(value) && (value[end] >= '0' && value[end] <= '9' || value[end] == '.') {
		if value[end] != '.' {
			digits++
		}
		end++
	}
	if digits == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
