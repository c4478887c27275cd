// Package slackbot connects the bot to Slack: a Socket Mode event loop that
// feeds bot.Events to a handler, the Web API calls behind bot.Sender, and the
// channel allow-list.
package slackbot

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// API is the subset of the Slack Web API the bot uses.
type API interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
}

var _ API = (*slack.Client)(nil)

// SocketClient is the Socket Mode connection.
type SocketClient interface {
	RunContext(ctx context.Context) error
	Ack(req socketmode.Request, payload ...any)
}

var _ SocketClient = (*socketmode.Client)(nil)
