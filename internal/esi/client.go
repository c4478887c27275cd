// Package esi talks to the EVE Swagger Interface: a pooled, retrying HTTP
// client, a per-host cache of swagger documents and the resolver that turns
// free-form paths into documented GET requests.
package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"

	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
)

// StatusRequestFailed is reported when no HTTP response could be obtained.
const StatusRequestFailed = 499

// StatusErrorLimited is ESI's answer once a client exhausts its error budget.
const StatusErrorLimited = 420

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// Response is the outcome of a GET. It is never nil; failures carry
// StatusRequestFailed and a short description in Body.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the request succeeded with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body as JSON into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.URL, err)
	}
	return nil
}

// Pretty renders the body as indented JSON with sorted keys, falling back to
// the raw text when the body is not JSON.
func (r *Response) Pretty() string {
	return PrettyJSON(r.Body)
}

// PrettyJSON indents raw JSON with 4 spaces and sorted object keys.
func PrettyJSON(raw []byte) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return MarshalPretty(v)
}

// MarshalPretty encodes v like PrettyJSON, without escaping HTML characters.
func MarshalPretty(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Workers    int    // MultiGet concurrency limit
	UserAgent  string // sent on every request
	ChinaHost  string // requests to this host default to Accept-Language: zh
}

// Client is a pooled HTTP client for ESI and other JSON APIs.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a client. metrics may be nil.
func NewClient(cfg ClientConfig, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.ESIRequest
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = config.ESIRetryInitial
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 100
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.Workers,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: gzhttp.Transport(transport),
		},
		cfg:     cfg,
		log:     log.WithModule("esi"),
		metrics: m,
	}
}

// Get performs a GET with retries. Transport failures and exhausted retries
// never surface as errors: the returned Response carries the last status seen,
// or StatusRequestFailed when the host could not be reached at all.
func (c *Client) Get(ctx context.Context, rawURL string) *Response {
	start := time.Now()
	var resp *Response

	err := RetryWithBackoff(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func() error {
		resp = nil

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")
		if c.cfg.ChinaHost != "" && strings.HasPrefix(rawURL, c.cfg.ChinaHost) && !strings.Contains(rawURL, "language") {
			req.Header.Set("Accept-Language", "zh")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = res.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		resp = &Response{
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Header:     res.Header,
			Body:       body,
		}

		switch res.StatusCode {
		case StatusErrorLimited, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			err := fmt.Errorf("server error for %s: status %d", rawURL, res.StatusCode)
			wait := serverWait(res.StatusCode, res.Header)
			if wait > config.ESIRetryAfterMax {
				return Permanent(err)
			}
			return RetryAfter(err, wait)
		}
		return nil
	})

	if resp == nil {
		c.log.WithError(err).WithField("url", rawURL).Warn("Failed to request")
		resp = &Response{
			URL:        rawURL,
			StatusCode: StatusRequestFailed,
			Header:     http.Header{},
			Body:       []byte("failed to request " + rawURL),
		}
	} else if !resp.OK() {
		c.log.WithField("url", rawURL).WithField("status", resp.StatusCode).Warn("Request failed")
	} else {
		c.log.WithField("url", rawURL).Debug("Requested")
	}

	if c.metrics != nil {
		c.metrics.RecordESIRequest(hostLabel(rawURL), strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	}
	return resp
}

// serverWait returns how long ESI asked clients to back off: the error-limit
// reset window on 420, Retry-After otherwise. Zero when no hint is given.
func serverWait(status int, h http.Header) time.Duration {
	name := "Retry-After"
	if status == StatusErrorLimited {
		name = "X-Esi-Error-Limit-Reset"
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get(name)))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// MultiGet requests every url in parallel, bounded by the worker limit, and
// waits for all of them. Results are returned in input order.
func (c *Client) MultiGet(ctx context.Context, urls []string) []*Response {
	results := make([]*Response, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.Get(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
