package rule

import "time"

const dateLayout = "2006-01-02"

func (r *Rule) initTimeStamp() error {
	if err := r.checkFlags(""); err != nil {
		return err
	}
	d, err := time.ParseInLocation(dateLayout, r.value, time.UTC)
	if err != nil {
		return valueError(r.text, "could not parse date %q, expected YYYY-MM-DD", r.value)
	}
	r.date = d
	return nil
}

// Date returns the UTC calendar date of a timestamp rule.
func (r Rule) Date() time.Time { return r.date }

func (r Rule) matchTimeStamp(value string) bool {
	instant, ok := parseInstant(value)
	if !ok {
		return false
	}
	y, m, d := instant.Date()
	return holds(r.op, time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Compare(r.date))
}
