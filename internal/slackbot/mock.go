package slackbot

import (
	"context"

	"github.com/slack-go/slack"
)

// MockSlackClient is a test double for API. Unset funcs succeed.
type MockSlackClient struct {
	AuthTestFunc         func(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageFunc      func(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralFunc    func(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	UploadFileV2Func     func(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	AddReactionFunc      func(ctx context.Context, name string, item slack.ItemRef) error
	GetConversationsFunc func(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	JoinConversationFunc func(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
}

var _ API = (*MockSlackClient)(nil)

func (m *MockSlackClient) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	if m.AuthTestFunc != nil {
		return m.AuthTestFunc(ctx)
	}
	return &slack.AuthTestResponse{UserID: "UBOT", Team: "TestTeam"}, nil
}

func (m *MockSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if m.PostMessageFunc != nil {
		return m.PostMessageFunc(ctx, channelID, options...)
	}
	return channelID, "1234567890.123456", nil
}

func (m *MockSlackClient) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	if m.PostEphemeralFunc != nil {
		return m.PostEphemeralFunc(ctx, channelID, userID, options...)
	}
	return "1234567890.123456", nil
}

func (m *MockSlackClient) UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	if m.UploadFileV2Func != nil {
		return m.UploadFileV2Func(ctx, params)
	}
	return &slack.FileSummary{ID: "F12345", Title: params.Title}, nil
}

func (m *MockSlackClient) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error {
	if m.AddReactionFunc != nil {
		return m.AddReactionFunc(ctx, name, item)
	}
	return nil
}

func (m *MockSlackClient) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	if m.GetConversationsFunc != nil {
		return m.GetConversationsFunc(ctx, params)
	}
	return nil, "", nil
}

func (m *MockSlackClient) JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error) {
	if m.JoinConversationFunc != nil {
		return m.JoinConversationFunc(ctx, channelID)
	}
	ch := &slack.Channel{}
	ch.ID = channelID
	return ch, "", nil, nil
}
