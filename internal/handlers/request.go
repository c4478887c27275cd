package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/esi/esi-bot/internal/bot"
	"github.com/esi/esi-bot/internal/esi"
)

// HeadersFlag adds the response headers to a proxied request.
const HeadersFlag = "--headers"

const requestPattern = `^<?(https://esi\.(evetech\.net|tech\.ccp\.is))?/(?P<esi_path>.+?)>?$`

// request proxies a GET to ESI when the cached spec documents the path.
func (h *Handlers) request(ctx context.Context, req bot.Request) (bot.Reply, error) {
	target, err := h.resolver.Resolve(req.Captures["esi_path"], esi.DefaultVersion, h.host(req.Message))
	if err != nil {
		return nil, err
	}

	url := target.URL()
	res := h.api.Get(ctx, url)

	content := res.Pretty()
	if req.Flag(HeadersFlag) {
		content = withHeaders(res)
	}

	return bot.Snippet{
		Content:  content,
		Filename: snippetName(target.Path),
		Filetype: "json",
		Comment:  strconv.Itoa(res.StatusCode),
		Title:    url,
	}, nil
}

// withHeaders renders the response headers followed by the body.
func withHeaders(res *esi.Response) string {
	headers := make(map[string]string, len(res.Header))
	for k, v := range res.Header {
		headers[k] = strings.Join(v, ", ")
	}

	var body any = string(res.Body)
	dec := json.NewDecoder(bytes.NewReader(res.Body))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err == nil {
		body = decoded
	}

	return esi.MarshalPretty(map[string]any{
		"headers":  headers,
		"response": body,
	})
}

// snippetName derives an upload filename from the last path segment.
func snippetName(p string) string {
	segments := slices.DeleteFunc(strings.Split(p, "/"), func(s string) bool { return s == "" })
	if len(segments) == 0 {
		return "response.json"
	}
	return path.Base(segments[len(segments)-1]) + ".json"
}
