package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/esi/esi-bot/internal/bot"
	domerrors "github.com/esi/esi-bot/internal/errors"
	"github.com/esi/esi-bot/internal/esi"
)

// dogmaRef ties a fan-out request back to the entry it expands.
type dogmaRef struct {
	attribute bool
	id        string
	raw       map[string]any
}

// item looks up a type and expands its dogma attributes and effects.
func (h *Handlers) item(ctx context.Context, req bot.Request) (bot.Reply, error) {
	start := time.Now()

	args := req.Positional()
	if len(args) == 0 {
		return nil, domerrors.NewUserError(fmt.Sprintf("usage: !esi %s <id>", req.Command), nil)
	}
	id := args[0]
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, domerrors.NewUserError("get outta here hackerman", domerrors.ErrInvalidInput)
	}

	base := h.host(req.Message)
	typeURL := fmt.Sprintf("%s/v3/universe/types/%s/", base, id)
	res := h.api.Get(ctx, typeURL)

	name := "Error"
	extra := 0
	content := res.Pretty()
	if body := decodeObject(res.Body); body != nil {
		if n, ok := body["name"].(string); ok && res.OK() {
			name = n
		}
		extra = h.expandDogma(ctx, base, body)
		content = esi.MarshalPretty(body)
	}

	s := "s"
	if extra == 0 {
		s = ""
	}
	p := message.NewPrinter(language.English)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)

	return bot.Snippet{
		Content:  content,
		Filename: id + ".json",
		Filetype: "json",
		Comment:  p.Sprintf("Item %s: %s (%d request%s in %.0fms)", id, name, extra+1, s, elapsed),
		Title:    typeURL,
	}, nil
}

// expandDogma replaces dogma attribute and effect ids in body with their
// details, fetched in parallel. Failed lookups stay visible inline. It returns
// the number of extra requests made.
func (h *Handlers) expandDogma(ctx context.Context, base string, body map[string]any) int {
	var refs []dogmaRef
	var urls []string

	attrs, _ := body["dogma_attributes"].([]any)
	delete(body, "dogma_attributes")
	for _, a := range attrs {
		raw, ok := a.(map[string]any)
		if !ok {
			continue
		}
		id := fmt.Sprint(raw["attribute_id"])
		refs = append(refs, dogmaRef{attribute: true, id: id, raw: raw})
		urls = append(urls, fmt.Sprintf("%s/v1/dogma/attributes/%s/", base, id))
	}

	effects, _ := body["dogma_effects"].([]any)
	delete(body, "dogma_effects")
	for _, e := range effects {
		raw, ok := e.(map[string]any)
		if !ok {
			continue
		}
		id := fmt.Sprint(raw["effect_id"])
		refs = append(refs, dogmaRef{id: id, raw: raw})
		urls = append(urls, fmt.Sprintf("%s/v1/dogma/effects/%s/", base, id))
	}

	if len(urls) == 0 {
		return 0
	}

	dogmaAttrs := make(map[string]any)
	var dogmaEffects []any
	for i, res := range h.api.MultiGet(ctx, urls) {
		ref := refs[i]
		detail := decodeObject(res.Body)
		if !res.OK() {
			detail = nil
		}

		if ref.attribute {
			title := "failed to lookup attr: " + ref.id
			if n, ok := detail["name"].(string); ok {
				title = n
			}
			dogmaAttrs[title] = ref.raw["value"]
			continue
		}
		if detail != nil {
			delete(detail, "effect_id")
			ref.raw["effect"] = detail
		}
		dogmaEffects = append(dogmaEffects, ref.raw)
	}

	if len(dogmaAttrs) > 0 {
		body["dogma_attributes"] = dogmaAttrs
	}
	if len(dogmaEffects) > 0 {
		body["dogma_effects"] = dogmaEffects
	}
	return len(urls)
}

// decodeObject parses a JSON object, keeping numbers as written. It returns
// nil for anything else.
func decodeObject(raw []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}
