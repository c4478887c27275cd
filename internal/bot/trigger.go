package bot

import (
	"regexp"
	"slices"
	"strings"
)

// Trigger decides whether a command token selects a handler. It is one of
// Token, TokenSet or Pattern.
type Trigger interface {
	// Match reports whether command selects the trigger, returning named
	// captures for patterns.
	Match(command string) (map[string]string, bool)
	// Label is how the trigger is listed in help output.
	Label() string
	isTrigger()
}

// Token matches one exact command word.
type Token string

// Match implements Trigger.
func (t Token) Match(command string) (map[string]string, bool) {
	return nil, string(t) == command
}

// Label implements Trigger.
func (t Token) Label() string { return string(t) }

// TokenSet matches any of its words.
type TokenSet []string

// Match implements Trigger.
func (s TokenSet) Match(command string) (map[string]string, bool) {
	return nil, slices.Contains(s, command)
}

// Label implements Trigger.
func (s TokenSet) Label() string { return strings.Join(s, ", ") }

// Pattern matches a regular expression and exposes its named groups.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr. It panics on an invalid expression, since
// patterns are fixed at registration time.
func NewPattern(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(expr)}
}

// Match implements Trigger.
func (p Pattern) Match(command string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(command)
	if m == nil {
		return nil, false
	}
	captures := make(map[string]string)
	for i, name := range p.re.SubexpNames() {
		if name != "" && i < len(m) {
			captures[name] = m[i]
		}
	}
	return captures, true
}

// Label implements Trigger.
func (p Pattern) Label() string { return p.re.String() }

func (Token) isTrigger()    {}
func (TokenSet) isTrigger() {}
func (Pattern) isTrigger()  {}
