package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esi/esi-bot/internal/bot"
)

func TestItemExpandsDogma(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.tqMux.Handle("/v3/universe/types/34/", jsonHandler(200, `{
		"name": "Tritanium",
		"type_id": 34,
		"dogma_attributes": [{"attribute_id": 4, "value": 5.0}, {"attribute_id": 9, "value": 1}],
		"dogma_effects": [{"effect_id": 11, "is_default": false}]
	}`))
	f.tqMux.Handle("/v1/dogma/attributes/4/", jsonHandler(200, `{"attribute_id": 4, "name": "mass"}`))
	f.tqMux.Handle("/v1/dogma/effects/11/", jsonHandler(200, `{"effect_id": 11, "effect_name": "loPower"}`))

	res := f.run(t, "!esi item 34")
	snip, ok := res.Reply.(bot.Snippet)
	require.True(t, ok)

	assert.Equal(t, f.tq.URL+"/v3/universe/types/34/", snip.Title)
	assert.Equal(t, "34.json", snip.Filename)
	assert.True(t, strings.HasPrefix(snip.Comment, "Item 34: Tritanium (4 requests in "), snip.Comment)
	assert.Contains(t, snip.Content, `"mass": 5.0`)

	var body struct {
		Name       string             `json:"name"`
		Attributes map[string]float64 `json:"dogma_attributes"`
		Effects    []map[string]any   `json:"dogma_effects"`
	}
	require.NoError(t, json.Unmarshal([]byte(snip.Content), &body))
	assert.Equal(t, "Tritanium", body.Name)
	assert.Equal(t, map[string]float64{"mass": 5, "failed to lookup attr: 9": 1}, body.Attributes)
	require.Len(t, body.Effects, 1)
	assert.Equal(t, map[string]any{"effect_name": "loPower"}, body.Effects[0]["effect"])
	assert.Equal(t, false, body.Effects[0]["is_default"])
}

func TestItemWithoutDogma(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cnMux.Handle("/v3/universe/types/587/", jsonHandler(200, `{"name": "Rifter", "type_id": 587}`))

	snip, ok := f.run(t, "!esi type_id 587 --china").Reply.(bot.Snippet)
	require.True(t, ok)
	assert.Equal(t, f.cn.URL+"/v3/universe/types/587/", snip.Title)
	assert.True(t, strings.HasPrefix(snip.Comment, "Item 587: Rifter (1 request in "), snip.Comment)
	assert.Equal(t, 0, f.hitCount("tq /v3/universe/types/587/"))
}

func TestItemUnknownType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.tqMux.Handle("/v3/universe/types/99/", jsonHandler(404, `{"error":"Type not found"}`))

	snip, ok := f.run(t, "!esi item 99").Reply.(bot.Snippet)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(snip.Comment, "Item 99: Error (1 request in "), snip.Comment)
	assert.Equal(t, "{\n    \"error\": \"Type not found\"\n}", snip.Content)
}

func TestItemRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res := f.run(t, "!esi item")
	assert.False(t, res.Failed)
	assert.Equal(t, "usage: !esi item <id>", textOf(t, res.Reply))

	res = f.run(t, "!esi type 34;drop")
	assert.False(t, res.Failed)
	assert.Equal(t, "get outta here hackerman", textOf(t, res.Reply))
}
