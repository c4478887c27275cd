package bot

import "regexp"

// ReactionTrigger adds Reaction to any non-command message matching Pattern.
type ReactionTrigger struct {
	Pattern  *regexp.Regexp
	Reaction string
}

// DefaultReactions are the built-in reaction triggers.
var DefaultReactions = []ReactionTrigger{
	{Pattern: regexp.MustCompile(`(?i)^(.*[ !])?crest([ !?.]|$)`), Reaction: "rip"},
	{Pattern: regexp.MustCompile(`(?i)^(.*[ !])?xml(api)?([ !?.]|$)`), Reaction: "wreck"},
}

// MatchReactions returns the reactions for text, in trigger order.
func MatchReactions(text string, triggers []ReactionTrigger) []string {
	var out []string
	for _, t := range triggers {
		if t.Pattern.MatchString(text) {
			out = append(out, t.Reaction)
		}
	}
	return out
}
