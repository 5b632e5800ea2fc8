package rule

import (
	"errors"
	"fmt"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

var (
	// ErrUnknownAttribute is returned when a rule key is not in the keyword table.
	ErrUnknownAttribute = keyword.ErrUnknownAttribute
	// ErrRuleSyntax is returned when a rule does not match the grammar.
	ErrRuleSyntax = errors.New("rule syntax error")
	// ErrRuleValue is returned when a rule's value or operator is invalid for its kind.
	ErrRuleValue = errors.New("invalid rule value")
)

// Error reports a problem with one rule of a ruleset. Err is one of the
// package sentinels so callers can use errors.Is.
type Error struct {
	Rule   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v in rule %q: %s", e.Err, e.Rule, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func syntaxError(text, format string, args ...any) error {
	return &Error{Rule: text, Reason: fmt.Sprintf(format, args...), Err: ErrRuleSyntax}
}

func valueError(text, format string, args ...any) error {
	return &Error{Rule: text, Reason: fmt.Sprintf(format, args...), Err: ErrRuleValue}
}
