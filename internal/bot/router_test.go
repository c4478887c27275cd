package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/esi/esi-bot/internal/errors"
	"github.com/esi/esi-bot/internal/metrics"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 5000)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "hello", "hello"},
		{"empty", "", ""},
		{"balanced fence", "```x```", "```x```"},
		{"open fence", "```x", "```x\n```"},
		{"exact limit", strings.Repeat("a", MaxTextLength), strings.Repeat("a", MaxTextLength)},
		{"over limit", long, strings.Repeat("a", textCutLength) + "\n<content snipped>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"plain",
		"```open",
		"````",
		"```a``` ```b",
		strings.Repeat("a", MaxTextLength),
		strings.Repeat("a", MaxTextLength+1),
		strings.Repeat("a", MaxTextLength-2) + "```",
		"```" + strings.Repeat("b", MaxTextLength-3),
		"```" + strings.Repeat("é", 6000),
		strings.Repeat("`", 3*MaxTextLength),
		strings.Repeat("x`", 4000),
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once))
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxTextLength)
		assert.Zero(t, strings.Count(once, codeFence)%2, "fences balanced")
	}
}

func TestInline(t *testing.T) {
	t.Parallel()

	assert.True(t, Inline(strings.Repeat("a", 2899)))
	assert.True(t, Inline(strings.Repeat("a", 2900)))
	assert.False(t, Inline(strings.Repeat("a", 2901)))
	assert.True(t, Inline(strings.Repeat("line\n", 8)+"last"), "nine lines")
	assert.False(t, Inline(strings.Repeat("line\n", 9)+"last"), "ten lines")
}

func TestTruncateUpload(t *testing.T) {
	t.Parallel()

	small := strings.Repeat("a", 2901)
	assert.Equal(t, small, TruncateUpload(small))

	big := strings.Repeat("a", MaxUploadBytes+10)
	got := TruncateUpload(big)
	assert.True(t, strings.HasSuffix(got, "\n<snipped>"))
	assert.LessOrEqual(t, len(got), MaxUploadBytes)

	multi := strings.Repeat("日", MaxUploadBytes/3+10)
	got = TruncateUpload(multi)
	assert.True(t, utf8.ValidString(got), "cut on a rune boundary")
	assert.True(t, strings.HasSuffix(got, "\n<snipped>"))
}

func TestRouteVariants(t *testing.T) {
	t.Parallel()

	att := []slack.Attachment{{Color: "good", Text: ":ok_hand:"}}
	tests := []struct {
		name  string
		reply Reply
		want  call
	}{
		{"text unfurls", Text{Content: "https://example.com"},
			call{Op: "post", Channel: "C1", Text: "https://example.com", Unfurl: true}},
		{"rich", Rich{Attachments: att},
			call{Op: "post", Channel: "C1", Attachments: att}},
		{"ephemeral defaults to speaker", Ephemeral{Content: "psst"},
			call{Op: "ephemeral", Channel: "C1", User: "U1", Text: "psst"}},
		{"ephemeral explicit user", Ephemeral{Content: "psst", User: "U2"},
			call{Op: "ephemeral", Channel: "C1", User: "U2", Text: "psst"}},
		{"small snippet inline", Snippet{Content: `{"a": 1}`, Comment: "200", Title: "https://esi/x/"},
			call{Op: "post", Channel: "C1", Text: "https://esi/x/\n200\n```{\"a\": 1}```"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &fakeSender{}
			r := NewRouter(s, nil)
			require.NoError(t, r.Route(context.Background(), "C1", "U1", tt.reply))
			calls := s.recorded()
			require.Len(t, calls, 1, "exactly one outbound call")
			assert.Equal(t, tt.want, calls[0])
		})
	}
}

func TestRouteSnippetSizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantOp     string
		wantMarker bool
	}{
		{"2899 chars inline", strings.Repeat("a", 2899), "post", false},
		{"2900 chars inline", strings.Repeat("a", 2900), "post", false},
		{"2901 chars upload", strings.Repeat("a", 2901), "upload", false},
		{"over 1 MiB upload snipped", strings.Repeat("a", MaxUploadBytes+1), "upload", true},
		{"many lines upload", strings.Repeat("x\n", 20), "upload", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &fakeSender{}
			m := metrics.New(prometheus.NewRegistry())
			r := NewRouter(s, m)

			require.NoError(t, r.Route(context.Background(), "C1", "U1", Snippet{
				Content: tt.content, Filename: "x.json", Filetype: "json", Comment: "c", Title: "t",
			}))
			calls := s.recorded()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantOp, calls[0].Op)
			if tt.wantOp == "upload" {
				assert.Equal(t, tt.wantMarker, strings.HasSuffix(calls[0].File.Content, "<snipped>"))
				assert.Equal(t, "x.json", calls[0].File.Filename)
				assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues(KindSnippetUpload)))
			} else {
				assert.Equal(t, "t\nc\n```"+tt.content+"```", calls[0].Text)
				assert.NotContains(t, calls[0].Text, "<content snipped>")
				assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues(KindSnippetInline)))
			}
		})
	}
}

func TestRouteEmptyEmitsNothing(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := NewRouter(s, nil)
	require.NoError(t, r.Route(context.Background(), "C1", "U1", nil))
	require.NoError(t, r.Route(context.Background(), "C1", "U1", Text{}))
	assert.Empty(t, s.recorded())
}

func TestRouteTransportError(t *testing.T) {
	t.Parallel()

	s := &fakeSender{err: errors.New("channel_not_found")}
	m := metrics.New(prometheus.NewRegistry())
	r := NewRouter(s, m)

	err := r.Route(context.Background(), "C1", "U1", Text{Content: "hi"})
	require.Error(t, err)
	assert.True(t, domerrors.IsTransport(err))
	assert.Contains(t, err.Error(), "channel_not_found")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransportErrorsTotal.WithLabelValues(KindText)))
}
