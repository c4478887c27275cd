package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"

	domerrors "github.com/esi/esi-bot/internal/errors"
	"github.com/esi/esi-bot/internal/metrics"
)

// Outbound size limits.
const (
	// MaxTextLength is the longest message text posted, in characters.
	MaxTextLength = 2900
	// MaxInlineLines is the line count at which a snippet is uploaded instead of inlined.
	MaxInlineLines = 10
	// MaxUploadBytes caps uploaded file content.
	MaxUploadBytes = 1 << 20
)

const (
	codeFence      = "```"
	closingFence   = "\n```"
	textSnipped    = "\n<content snipped>"
	uploadSnipped  = "\n<snipped>"
	textCutLength  = MaxTextLength - len(textSnipped) - len(closingFence)
	uploadCutBytes = MaxUploadBytes - len(uploadSnipped)
)

// Reply kinds recorded after a successful outbound call.
const (
	KindText          = "text"
	KindRich          = "rich"
	KindEphemeral     = "ephemeral"
	KindSnippetInline = "snippet_inline"
	KindSnippetUpload = "snippet_upload"
	KindReaction      = "reaction"
)

// File is an upload request.
type File struct {
	Content  string
	Filename string
	Filetype string
	Comment  string
	Title    string
}

// Sender performs the outbound chat calls.
type Sender interface {
	PostMessage(ctx context.Context, channel, text string, attachments []slack.Attachment, unfurl bool) error
	PostEphemeral(ctx context.Context, channel, user, text string, attachments []slack.Attachment) error
	UploadFile(ctx context.Context, channel string, f File) error
	AddReaction(ctx context.Context, channel, timestamp, name string) error
}

// Router turns a Reply into exactly one outbound call.
type Router struct {
	sender  Sender
	metrics *metrics.Metrics
}

// NewRouter creates a router. metrics may be nil.
func NewRouter(sender Sender, m *metrics.Metrics) *Router {
	return &Router{sender: sender, metrics: m}
}

// Route emits reply to channel. user is the ephemeral target when the reply
// names none. Empty replies emit nothing. Failures wrap ErrTransport.
// Inline snippets skip CleanText: Inline already bounds their content.
func (r *Router) Route(ctx context.Context, channel, user string, reply Reply) error {
	if IsEmpty(reply) {
		return nil
	}

	switch v := reply.(type) {
	case Text:
		return r.done(KindText, r.sender.PostMessage(ctx, channel, CleanText(v.Content), nil, true))
	case Rich:
		return r.done(KindRich, r.sender.PostMessage(ctx, channel, CleanText(v.Content), v.Attachments, false))
	case Ephemeral:
		target := v.User
		if target == "" {
			target = user
		}
		return r.done(KindEphemeral, r.sender.PostEphemeral(ctx, channel, target, CleanText(v.Content), v.Attachments))
	case Snippet:
		if Inline(v.Content) {
			return r.done(KindSnippetInline, r.sender.PostMessage(ctx, channel, inlineText(v), nil, false))
		}
		return r.done(KindSnippetUpload, r.sender.UploadFile(ctx, channel, File{
			Content:  TruncateUpload(v.Content),
			Filename: v.Filename,
			Filetype: v.Filetype,
			Comment:  v.Comment,
			Title:    v.Title,
		}))
	default:
		return fmt.Errorf("unsupported reply %T", reply)
	}
}

// React adds a reaction to the message at timestamp.
func (r *Router) React(ctx context.Context, channel, timestamp, name string) error {
	return r.done(KindReaction, r.sender.AddReaction(ctx, channel, timestamp, name))
}

func (r *Router) done(kind string, err error) error {
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordTransportError(kind)
		}
		return fmt.Errorf("%w: %s: %w", domerrors.ErrTransport, kind, err)
	}
	if r.metrics != nil {
		r.metrics.RecordReply(kind)
	}
	return nil
}

// CleanText caps text at MaxTextLength characters, marking truncation, and
// closes an unterminated code fence. CleanText(CleanText(s)) == CleanText(s).
func CleanText(text string) string {
	n := utf8.RuneCountInString(text)
	open := strings.Count(text, codeFence)%2 != 0
	if n <= MaxTextLength && !open {
		return text
	}

	extra := 0
	if open {
		extra = len(closingFence)
	}
	if n+extra > MaxTextLength {
		text = truncateRunes(text, textCutLength) + textSnipped
	}
	if strings.Count(text, codeFence)%2 != 0 {
		text += closingFence
	}
	return text
}

// Inline reports whether snippet content is small enough to post as a code block.
func Inline(content string) bool {
	return utf8.RuneCountInString(content) <= MaxTextLength &&
		strings.Count(content, "\n")+1 < MaxInlineLines
}

// TruncateUpload caps content at MaxUploadBytes on a rune boundary.
func TruncateUpload(content string) string {
	if len(content) <= MaxUploadBytes {
		return content
	}
	n := uploadCutBytes
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + uploadSnipped
}

func inlineText(s Snippet) string {
	return s.Title + "\n" + s.Comment + "\n" + codeFence + s.Content + codeFence
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
