package rule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

// separator splits a ruleset into rules.
var separator = regexp.MustCompile(`\s*,\s*`)

// ParseRuleset parses comma-separated rules. Time delta rules are measured
// from the moment the ruleset is built.
func ParseRuleset(text string) (Ruleset, error) {
	return ParseRulesetAt(text, time.Now())
}

// ParseRulesetAt parses comma-separated rules using now as the reference
// instant for time delta rules. Blank text yields an empty Ruleset.
func ParseRulesetAt(text string, now time.Time) (Ruleset, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Ruleset{}, nil
	}

	parts := separator.Split(text, -1)
	rules := make(Ruleset, 0, len(parts))
	for _, part := range parts {
		r, err := ParseRuleAt(part, now)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ParseRule parses a single rule.
func ParseRule(text string) (Rule, error) {
	return ParseRuleAt(text, time.Now())
}

// ParseRuleAt parses a single rule using now as the time delta reference.
func ParseRuleAt(text string, now time.Time) (Rule, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Rule{}, syntaxError(text, "empty rule")
	}

	i := 0
	for i < len(s) && isWord(s[i]) {
		i++
	}
	if i == 0 {
		return Rule{}, syntaxError(text, "missing attribute name")
	}
	key := s[:i]

	j := i
	for j < len(s) && !isWord(s[j]) && !isDelimiter(s[j]) {
		j++
	}
	if j == len(s) || !isDelimiter(s[j]) {
		return Rule{}, syntaxError(text, "expected one of %s after the operator", delimiterList())
	}
	opText := strings.TrimSpace(s[i:j])
	if opText == "" {
		return Rule{}, syntaxError(text, "missing comparison operator")
	}

	delim := s[j]
	value, rest, ok := scanValue(s[j+1:], delim)
	if !ok {
		return Rule{}, syntaxError(text, "missing closing %q", delim)
	}
	if value == "" {
		return Rule{}, syntaxError(text, "empty value")
	}
	for k := 0; k < len(rest); k++ {
		if !isLetter(rest[k]) {
			return Rule{}, syntaxError(text, "unexpected %q after closing %q", rest[k:], delim)
		}
	}

	kw, err := keyword.Resolve(key)
	if err != nil {
		return Rule{}, &Error{Rule: text, Reason: fmt.Sprintf("a track has no attribute %q", key), Err: ErrUnknownAttribute}
	}

	kind, _ := kindForDelimiter(delim)
	op, ok := parseOp(opText)
	if !ok || !kind.supports(op) {
		return Rule{}, valueError(text, "operator %q is not supported by %s rules", opText, kind)
	}

	r := Rule{
		text:   s,
		key:    kw.Canonical,
		attr:   kw.Attribute(),
		op:     op,
		kind:   kind,
		value:  value,
		flags:  rest,
		negate: strings.IndexByte(rest, 'n') >= 0,
	}

	switch kind {
	case KindRegex:
		err = r.initRegex()
	case KindNumber:
		err = r.initNumber()
	case KindTimeDelta:
		err = r.initTimeDelta(now)
	case KindTimeStamp:
		err = r.initTimeStamp()
	}
	if err != nil {
		return Rule{}, err
	}
	return r, nil
}

// scanValue reads up to the first unescaped delim. A backslash before the
// delimiter yields the delimiter itself; a doubled backslash is kept as is and
// never escapes what follows, so a value may end in a literal backslash.
func scanValue(s string, delim byte) (value, rest string, ok bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case delim:
				b.WriteByte(delim)
				i++
				continue
			case '\\':
				b.WriteString(`\\`)
				i++
				continue
			}
		}
		if c == delim {
			return b.String(), s[i+1:], true
		}
		b.WriteByte(c)
	}
	return "", "", false
}

// checkFlags rejects flags outside allowed; n is accepted by every kind.
func (r Rule) checkFlags(allowed string) error {
	for i := 0; i < len(r.flags); i++ {
		f := r.flags[i]
		if f != 'n' && strings.IndexByte(allowed, f) < 0 {
			return valueError(r.text, "flag %q is not supported by %s rules", f, r.kind)
		}
	}
	return nil
}

func isWord(c byte) bool {
	return isLetter(c) || c == '_' || (c >= '0' && c <= '9')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDelimiter(c byte) bool {
	_, ok := kindForDelimiter(c)
	return ok
}

func delimiterList() string {
	chars := make([]string, len(delimiters))
	for i, d := range delimiters {
		chars[i] = fmt.Sprintf("%q", d.char)
	}
	return strings.Join(chars, ", ")
}

// Syntax describes each delimiter for help output, one line per kind.
func Syntax() []string {
	lines := make([]string, len(delimiters))
	for i, d := range delimiters {
		lines[i] = fmt.Sprintf("'%c' -> %s", d.char, d.doc)
	}
	return lines
}
