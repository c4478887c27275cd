package bot

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand is the entry every unmatched command falls back to.
const HelpCommand = "help"

// Request is what a handler receives: the parsed message plus any named
// captures from a Pattern trigger.
type Request struct {
	Message
	Captures map[string]string
}

// Handler produces the reply for one command. A returned error is turned
// into a reply by the Dispatcher.
type Handler func(ctx context.Context, req Request) (Reply, error)

// Entry is one registered command.
type Entry struct {
	Trigger Trigger
	Name    string
	Doc     string
	Handler Handler
}

// Registry holds commands in registration order, which is also match order.
// It is populated at startup and read-only afterwards.
type Registry struct {
	entries []Entry
	help    map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]Entry, 0),
		help:    make(map[string]string),
	}
}

// Register appends a command. Extended help is indexed by name and, for
// token triggers, by every token.
func (r *Registry) Register(trigger Trigger, name, doc string, h Handler) {
	if trigger == nil || h == nil || name == "" {
		panic(fmt.Sprintf("bot: invalid registration for %q", name))
	}
	r.entries = append(r.entries, Entry{Trigger: trigger, Name: name, Doc: doc, Handler: h})

	r.help[name] = doc
	switch t := trigger.(type) {
	case Token:
		r.help[string(t)] = doc
	case TokenSet:
		for _, tok := range t {
			r.help[tok] = doc
		}
	}
}

// Entries returns a copy of the registered commands in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Match returns the first entry whose trigger accepts command.
func (r *Registry) Match(command string) (Entry, map[string]string, bool) {
	for _, e := range r.entries {
		if captures, ok := e.Trigger.Match(command); ok {
			return e, captures, true
		}
	}
	return Entry{}, nil, false
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Help returns the extended help for a command name or token.
func (r *Registry) Help(key string) (string, bool) {
	doc, ok := r.help[key]
	return doc, ok
}

// Labels lists every command the way help shows it. Patterns are prefixed
// with their entry name.
func (r *Registry) Labels() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if _, ok := e.Trigger.(Pattern); ok {
			out = append(out, e.Name+": "+e.Trigger.Label())
			continue
		}
		out = append(out, e.Trigger.Label())
	}
	return out
}

// CommandList renders the enabled commands line.
func (r *Registry) CommandList() string {
	labels := r.Labels()
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "`" + l + "`"
	}
	return "The following commands are enabled: " + strings.Join(quoted, " ")
}
