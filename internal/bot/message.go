package bot

import (
	"fmt"
	"slices"
	"strings"
)

// ChinaFlag routes a command to the Serenity host.
const ChinaFlag = "--china"

// Message is a parsed command addressed to the bot.
type Message struct {
	Speaker string
	Channel string
	Command string
	Args    []string
}

// Flag reports whether name appears among the arguments.
func (m Message) Flag(name string) bool {
	return slices.Contains(m.Args, name)
}

// Positional returns the arguments that are not "--" flags.
func (m Message) Positional() []string {
	out := make([]string, 0, len(m.Args))
	for _, a := range m.Args {
		if !strings.HasPrefix(a, "--") {
			out = append(out, a)
		}
	}
	return out
}

// Mention formats the speaker as a Slack user mention.
func (m Message) Mention() string {
	if m.Speaker == "" {
		return ""
	}
	return fmt.Sprintf("<@%s>", m.Speaker)
}

// ParseCommand splits text into a command and its arguments when it is
// addressed to prefix. Matching is case-insensitive and a lone prefix asks for
// help.
func ParseCommand(text, prefix string) (command string, args []string, ok bool) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || fields[0] != strings.ToLower(prefix) {
		return "", nil, false
	}
	if len(fields) == 1 {
		return HelpCommand, nil, true
	}
	return fields[1], fields[2:], true
}
