package bot

import "github.com/slack-go/slack"

// Reply is what a handler produces. It is one of Text, Rich, Ephemeral or
// Snippet; the Router emits each with exactly one outbound call.
type Reply interface {
	isReply()
}

// Text is a plain message. Links in it are unfurled.
type Text struct {
	Content string
}

// Rich is a message with color-coded attachments. Links are not unfurled.
type Rich struct {
	Content     string
	Attachments []slack.Attachment
}

// Ephemeral is shown only to User, or to the requesting user when User is empty.
type Ephemeral struct {
	Content     string
	Attachments []slack.Attachment
	User        string
}

// Snippet is large or multi-line content, inlined as a code block when small
// and uploaded as a file otherwise.
type Snippet struct {
	Content  string
	Filename string
	Filetype string
	Comment  string
	Title    string
}

func (Text) isReply()      {}
func (Rich) isReply()      {}
func (Ephemeral) isReply() {}
func (Snippet) isReply()   {}

// IsEmpty reports whether r would produce nothing visible.
func IsEmpty(r Reply) bool {
	switch v := r.(type) {
	case nil:
		return true
	case Text:
		return v.Content == ""
	case Rich:
		return v.Content == "" && len(v.Attachments) == 0
	case Ephemeral:
		return v.Content == "" && len(v.Attachments) == 0
	case Snippet:
		return v.Content == "" && v.Comment == "" && v.Title == ""
	default:
		return true
	}
}

// Kind names the reply variant for logs and metrics.
func Kind(r Reply) string {
	switch r.(type) {
	case Text:
		return "text"
	case Rich:
		return "rich"
	case Ephemeral:
		return "ephemeral"
	case Snippet:
		return "snippet"
	default:
		return "none"
	}
}
