package esi

import (
	"html"
	"strings"

	domerrors "github.com/esi/esi-bot/internal/errors"
)

// DefaultVersion is used when a path does not name a known version.
const DefaultVersion = "latest"

// Request is a path that the cached spec documents as a GET operation.
type Request struct {
	Host     string
	Version  string
	Path     string // normalized, with leading and trailing slash
	Params   string // unescaped query string without the leading "?"
	Template string // matching swagger path template
}

// URL returns the concrete request URL.
func (r *Request) URL() string {
	u := r.Host + "/" + r.Version + r.Path
	if r.Params != "" {
		u += "?" + r.Params
	}
	return u
}

// Resolver validates free-form paths against a SpecCache.
type Resolver struct {
	cache *SpecCache
}

// NewResolver creates a resolver over cache.
func NewResolver(cache *SpecCache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve turns a slash-delimited fragment such as "dev/universe/types/34/"
// or "markets/10000002/orders?type_id=34" into a request for host. The first
// segment is taken as the version only when host knows it; otherwise
// defaultVersion applies. Unless a GET operation is documented for the path in
// that version's spec, a *domerrors.NotFoundError is returned.
func (r *Resolver) Resolve(fragment, defaultVersion, host string) (*Request, error) {
	segments := strings.Split(fragment, "/")

	version := defaultVersion
	if len(segments) > 0 && r.cache.IsVersion(host, segments[0]) {
		version, segments = segments[0], segments[1:]
	}

	var params string
	if n := len(segments); n > 0 {
		if last, query, ok := strings.Cut(segments[n-1], "?"); ok {
			params = query
			if last == "" {
				segments = segments[:n-1]
			} else {
				segments[n-1] = last
			}
		}
	}
	params = html.UnescapeString(params)

	path := normalizePath(segments)
	notFound := &domerrors.NotFoundError{Method: "GET", Path: path, Version: version}

	entry, ok := r.cache.Entry(host, version)
	if !ok || entry.Empty() {
		return nil, notFound
	}

	for _, op := range entry.Doc.Paths {
		if op.Matches(path) && op.Has("get") {
			return &Request{
				Host:     host,
				Version:  version,
				Path:     path,
				Params:   params,
				Template: op.Template,
			}, nil
		}
	}
	return nil, notFound
}

func normalizePath(segments []string) string {
	var kept []string
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "/"
	}
	return "/" + strings.Join(kept, "/") + "/"
}
