package config

import (
	"errors"
	"fmt"
)

// ErrConfigParse matches every *ParseError via errors.Is. It is fatal for a run.
var ErrConfigParse = errors.New("config parse error")

// ParseError reports an invalid configuration document.
type ParseError struct {
	Section string // offending section, e.g. "leaderboards[1].sources", "" if unknown
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Section, e.Reason)
}

// Is makes errors.Is(err, ErrConfigParse) succeed.
func (e *ParseError) Is(target error) bool {
	return target == ErrConfigParse
}

func parseErrorf(section, format string, args ...interface{}) error {
	return &ParseError{Section: section, Reason: fmt.Sprintf(format, args...)}
}
