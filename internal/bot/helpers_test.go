package bot

import (
	"context"
	"io"
	"sync"

	"github.com/slack-go/slack"

	"github.com/esi/esi-bot/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

// call is one outbound action captured by fakeSender.
type call struct {
	Op          string
	Channel     string
	User        string
	Text        string
	Attachments []slack.Attachment
	Unfurl      bool
	File        File
	Timestamp   string
	Reaction    string
}

// fakeSender records outbound calls and optionally fails them.
type fakeSender struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeSender) add(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeSender) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSender) PostMessage(_ context.Context, channel, text string, attachments []slack.Attachment, unfurl bool) error {
	return f.add(call{Op: "post", Channel: channel, Text: text, Attachments: attachments, Unfurl: unfurl})
}

func (f *fakeSender) PostEphemeral(_ context.Context, channel, user, text string, attachments []slack.Attachment) error {
	return f.add(call{Op: "ephemeral", Channel: channel, User: user, Text: text, Attachments: attachments})
}

func (f *fakeSender) UploadFile(_ context.Context, channel string, file File) error {
	return f.add(call{Op: "upload", Channel: channel, File: file})
}

func (f *fakeSender) AddReaction(_ context.Context, channel, timestamp, name string) error {
	return f.add(call{Op: "reaction", Channel: channel, Timestamp: timestamp, Reaction: name})
}

// textHandler replies with a fixed string.
func textHandler(s string) Handler {
	return func(context.Context, Request) (Reply, error) {
		return Text{Content: s}, nil
	}
}

// helpHandler mimics the real help command: ephemeral when reached as a fallback.
func helpHandler(r *Registry) Handler {
	return func(_ context.Context, req Request) (Reply, error) {
		if req.Command != HelpCommand {
			return Ephemeral{Content: "I'm sorry, that's an unknown command. " + r.CommandList()}, nil
		}
		return Text{Content: r.CommandList()}, nil
	}
}
