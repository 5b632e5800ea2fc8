// Package rule implements the smart playlist rule language.
//
// A rule has the shape key<op><delim>value<delim>[flags]. The delimiter picks
// the rule kind:
//
//	/  regular expression   ar=/(Fred|George)/i
//	#  number               ra>=#4#
//	%  time delta           mt<%3days%
//	@  date                 mt<@2010-01-02@
//
// Rules are joined with commas into a Ruleset; a track matches a Ruleset when
// it matches every rule. The flag n negates a single rule.
package rule

import (
	"cmp"
	"regexp"
	"strings"
	"time"
)

// Kind identifies the value domain of a rule.
type Kind int

const (
	KindRegex Kind = iota
	KindNumber
	KindTimeDelta
	KindTimeStamp
)

func (k Kind) String() string {
	switch k {
	case KindRegex:
		return "regex"
	case KindNumber:
		return "number"
	case KindTimeDelta:
		return "timedelta"
	case KindTimeStamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Delimiter returns the character that brackets values of this kind.
func (k Kind) Delimiter() byte {
	for _, d := range delimiters {
		if d.kind == k {
			return d.char
		}
	}
	return 0
}

// delimiters is the fixed delimiter-to-kind table of the grammar.
var delimiters = [...]struct {
	char byte
	kind Kind
	doc  string
}{
	{'/', KindRegex, "search according to a regex: contains foo -> =/foo/, does not contain bar (any case) -> !/bar/i"},
	{'#', KindNumber, "compare a number: rated at least 4 -> >=#4#, played exactly once -> =#1#"},
	{'%', KindTimeDelta, "match according to a time delta: in the last 3 days -> <%3days%, before last month -> >%1month%"},
	{'@', KindTimeStamp, "match according to a date: before 2010-01-02 -> <@2010-01-02@, on 2009-11-18 -> =@2009-11-18@"},
}

func kindForDelimiter(c byte) (Kind, bool) {
	for _, d := range delimiters {
		if d.char == c {
			return d.kind, true
		}
	}
	return 0, false
}

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNotMatch
	OpLt
	OpGt
	OpLe
	OpGe
)

var opText = map[Op]string{
	OpEq:       "=",
	OpNotMatch: "!",
	OpLt:       "<",
	OpGt:       ">",
	OpLe:       "<=",
	OpGe:       ">=",
}

func (o Op) String() string {
	return opText[o]
}

func parseOp(s string) (Op, bool) {
	for op, text := range opText {
		if text == s {
			return op, true
		}
	}
	return 0, false
}

// supports reports whether op is valid for rules of kind k.
func (k Kind) supports(op Op) bool {
	if k == KindRegex {
		return op == OpEq || op == OpNotMatch
	}
	return op != OpNotMatch
}

// Track is the read-only view of a track that rules match against.
type Track interface {
	Attr(name string) string
}

// Rule is a parsed, validated rule. The kind tag selects which of the payload
// fields are set; a Rule never changes after construction.
type Rule struct {
	text    string
	key     string
	attr    string
	op      Op
	kind    Kind
	value   string
	flags   string
	negate  bool
	pattern *regexp.Regexp
	reFlags RegexFlag
	number  float64
	delta   time.Duration
	now     time.Time
	date    time.Time
}

func (r Rule) Key() string { return r.key }
func (r Rule) Attr() string { return r.attr }
func (r Rule) Op() Op { return r.op }
func (r Rule) Kind() Kind { return r.kind }
func (r Rule) Value() string { return r.value }
func (r Rule) Flags() string { return r.flags }
func (r Rule) Negate() bool { return r.negate }

// Text returns the rule as it was written.
func (r Rule) Text() string { return r.text }

// String renders the rule in canonical form.
func (r Rule) String() string {
	d := string(r.kind.Delimiter())
	value := strings.ReplaceAll(r.value, d, `\`+d)
	return r.key + r.op.String() + d + value + d + r.flags
}

// Match reports whether the track satisfies the rule, negation included.
func (r Rule) Match(t Track) bool {
	return r.baseMatch(t.Attr(r.attr)) != r.negate
}

func (r Rule) baseMatch(value string) bool {
	switch r.kind {
	case KindRegex:
		return r.matchRegex(value)
	case KindNumber:
		return r.matchNumber(value)
	case KindTimeDelta:
		return r.matchTimeDelta(value)
	case KindTimeStamp:
		return r.matchTimeStamp(value)
	}
	return false
}

// Ruleset is an ordered conjunction of rules.
type Ruleset []Rule

// Match reports whether t satisfies every rule. An empty Ruleset matches all tracks.
func (rs Ruleset) Match(t Track) bool {
	for _, r := range rs {
		if !r.Match(t) {
			return false
		}
	}
	return true
}

func (rs Ruleset) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func compareOrdered[T cmp.Ordered](op Op, a, b T) bool {
	return holds(op, cmp.Compare(a, b))
}

// holds interprets a three-way comparison result under op.
func holds(op Op, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpLt:
		return c < 0
	case OpGt:
		return c > 0
	case OpLe:
		return c <= 0
	case OpGe:
		return c >= 0
	}
	return false
}
