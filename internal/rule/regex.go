package rule

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// RegexFlag is a bitmask of search options.
type RegexFlag uint8

const (
	// FlagIgnoreCase makes the search case-insensitive (flag i).
	FlagIgnoreCase RegexFlag = 1 << iota
	// FlagLocale compares pattern and subject in Unicode NFC form (flag l), so
	// composed and decomposed spellings of the same text match.
	FlagLocale
)

var regexFlags = map[byte]RegexFlag{
	'i': FlagIgnoreCase,
	'l': FlagLocale,
}

// RegexFlags returns the search options of a regex rule.
func (r Rule) RegexFlags() RegexFlag { return r.reFlags }

func (r *Rule) initRegex() error {
	if err := r.checkFlags("il"); err != nil {
		return err
	}
	for i := 0; i < len(r.flags); i++ {
		r.reFlags |= regexFlags[r.flags[i]]
	}

	pattern := r.value
	if r.reFlags&FlagLocale != 0 {
		pattern = norm.NFC.String(pattern)
	}
	if r.reFlags&FlagIgnoreCase != 0 {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return valueError(r.text, "invalid regular expression: %v", err)
	}
	r.pattern = re
	return nil
}

func (r Rule) matchRegex(value string) bool {
	if r.reFlags&FlagLocale != 0 {
		value = norm.NFC.String(value)
	}
	found := r.pattern.MatchString(value)
	if r.op == OpNotMatch {
		return !found
	}
	return found
}
