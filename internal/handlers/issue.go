package handlers

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/esi/esi-bot/internal/bot"
	domerrors "github.com/esi/esi-bot/internal/errors"
)

const (
	esiIssues = "https://github.com/esi/esi-issues/"
	esiDocs   = "https://docs.esi.evetech.net/"

	issuePattern = `^#?(?P<gh_issue>[0-9]+)$`
)

// GitHubIssue is the subset of the GitHub issue payload the bot shows.
type GitHubIssue struct {
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	Title   string `json:"title"`
}

// issue looks up an esi-issues ticket on GitHub.
func (h *Handlers) issue(ctx context.Context, req bot.Request) (bot.Reply, error) {
	url := fmt.Sprintf("%s/issues/%s", h.issuesAPI, req.Captures["gh_issue"])
	res := h.api.Get(ctx, url)

	failed := fmt.Sprintf("failed to lookup details for issue %s", req.Command)
	if res.StatusCode >= 400 {
		return nil, domerrors.NewUserError(failed,
			domerrors.NewUpstreamError(url, res.StatusCode, fmt.Errorf("status %d", res.StatusCode)))
	}

	var details GitHubIssue
	if err := res.Decode(&details); err != nil {
		return nil, domerrors.NewUserError(failed, err)
	}
	return bot.Text{Content: fmt.Sprintf("%s (%s)", details.HTMLURL, details.State)}, nil
}

var (
	issueNew = slack.Attachment{
		Title:     "Opening a new issue",
		TitleLink: esiDocs + "#opening-a-new-issue",
		Text: "Before opening a new issue, please use the <" + esiIssues +
			"issues|search function> to see if a similar issue exists, or has already been closed.",
		Fallback: "Opening a new issue: " + esiDocs + "#opening-a-new-issue",
	}
	issueBug = slack.Attachment{
		Title: "Report a new bug",
		Text: "• unexpected 500 responses\n" +
			"• incorrect information in the swagger spec\n" +
			"• otherwise invalid or unexpected responses",
		Color:    "danger",
		Fallback: "Report a new bug: " + esiIssues + "issues/new?template=bug.md",
		Actions: []slack.AttachmentAction{{
			Type:  "button",
			Text:  "Report a bug",
			URL:   esiIssues + "issues/new?template=bug.md",
			Style: "danger",
		}},
	}
	issueFeature = slack.Attachment{
		Title: "Request a new feature",
		Text: "• adding an attribute to an existing route\n" +
			"• exposing other readily available client data\n" +
			"• meta requests, adding some global parameter to the specs",
		Color:    "good",
		Fallback: "Request a new feature: " + esiIssues + "issues/new?template=feature_request.md",
		Actions: []slack.AttachmentAction{{
			Type:  "button",
			Text:  "Request a feature",
			URL:   esiIssues + "issues/new?template=feature_request.md",
			Style: "primary",
		}},
	}
	issueInconsistency = slack.Attachment{
		Title: "Report an inconsistency",
		Text: "• two endpoints returning slightly different names for the same attribute\n" +
			"• attribute values are returned with different formats for different routes",
		Color:    "warning",
		Fallback: "Report an inconsistency: " + esiIssues + "issues/new?template=inconsistency.md",
		Actions: []slack.AttachmentAction{{
			Type: "button",
			Text: "Report an inconsistency",
			URL:  esiIssues + "issues/new?template=inconsistency.md",
		}},
	}
)

func (h *Handlers) newIssue(context.Context, bot.Request) (bot.Reply, error) {
	return bot.Rich{Attachments: []slack.Attachment{issueNew, issueBug, issueFeature, issueInconsistency}}, nil
}

func (h *Handlers) bug(context.Context, bot.Request) (bot.Reply, error) {
	return bot.Rich{Attachments: []slack.Attachment{issueNew, issueBug}}, nil
}

func (h *Handlers) feature(context.Context, bot.Request) (bot.Reply, error) {
	return bot.Rich{Attachments: []slack.Attachment{issueNew, issueFeature}}, nil
}

func (h *Handlers) inconsistency(context.Context, bot.Request) (bot.Reply, error) {
	return bot.Rich{Attachments: []slack.Attachment{issueNew, issueInconsistency}}, nil
}
