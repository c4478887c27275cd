package handlers

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/esi/esi-bot/internal/bot"
)

//go:embed links.yaml
var linksYAML []byte

// Link is a command that answers with fixed text.
type Link struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Doc      string   `yaml:"doc"`
	Text     string   `yaml:"text"`
}

// LoadLinks parses the embedded link table.
func LoadLinks() ([]Link, error) {
	return parseLinks(linksYAML)
}

func parseLinks(raw []byte) ([]Link, error) {
	var links []Link
	if err := yaml.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("parse links: %w", err)
	}
	for i, l := range links {
		if l.Name == "" || len(l.Triggers) == 0 || l.Text == "" {
			return nil, fmt.Errorf("parse links: entry %d is incomplete", i)
		}
	}
	return links, nil
}

func (l Link) trigger() bot.Trigger {
	if len(l.Triggers) == 1 {
		return bot.Token(l.Triggers[0])
	}
	return bot.TokenSet(l.Triggers)
}

func (h *Handlers) link(l Link) bot.Handler {
	return func(_ context.Context, req bot.Request) (bot.Reply, error) {
		return bot.Text{Content: strings.ReplaceAll(l.Text, "{esi}", h.host(req.Message))}, nil
	}
}
