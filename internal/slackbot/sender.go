package slackbot

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/esi/esi-bot/internal/bot"
)

// Sender implements bot.Sender on the Slack Web API.
type Sender struct {
	api API
}

var _ bot.Sender = (*Sender)(nil)

// NewSender creates a sender.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

func messageOptions(text string, attachments []slack.Attachment) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(attachments...))
	}
	return opts
}

// PostMessage posts to channel. Link previews are suppressed unless unfurl is set.
func (s *Sender) PostMessage(ctx context.Context, channel, text string, attachments []slack.Attachment, unfurl bool) error {
	opts := messageOptions(text, attachments)
	if unfurl {
		opts = append(opts, slack.MsgOptionEnableLinkUnfurl())
	} else {
		opts = append(opts, slack.MsgOptionDisableLinkUnfurl(), slack.MsgOptionDisableMediaUnfurl())
	}
	_, _, err := s.api.PostMessageContext(ctx, channel, opts...)
	return err
}

// PostEphemeral posts a message only user can see.
func (s *Sender) PostEphemeral(ctx context.Context, channel, user, text string, attachments []slack.Attachment) error {
	_, err := s.api.PostEphemeralContext(ctx, channel, user, messageOptions(text, attachments)...)
	return err
}

// UploadFile shares f in channel as a snippet of type f.Filetype.
func (s *Sender) UploadFile(ctx context.Context, channel string, f bot.File) error {
	_, err := s.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        channel,
		Content:        f.Content,
		FileSize:       len(f.Content),
		Filename:       f.Filename,
		Title:          f.Title,
		InitialComment: f.Comment,
		SnippetType:    f.Filetype,
	})
	return err
}

// AddReaction reacts to the message at timestamp.
func (s *Sender) AddReaction(ctx context.Context, channel, timestamp, name string) error {
	return s.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channel, timestamp))
}
