package esi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Operation is one documented path template and the HTTP methods it accepts.
type Operation struct {
	Template string
	Methods  []string // lower-case, document order
	pattern  *regexp.Regexp
}

// Has reports whether the template documents method.
func (o *Operation) Has(method string) bool {
	method = strings.ToLower(method)
	for _, m := range o.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Matches reports whether path fits the template, with each {placeholder}
// standing for exactly one path segment.
func (o *Operation) Matches(path string) bool {
	return o.pattern.MatchString(path)
}

// Document is the part of a swagger document the resolver needs: the path
// templates in the order the document lists them.
type Document struct {
	Paths []*Operation
	Raw   []byte
}

// Empty reports whether the document has no paths. A nil Document is empty.
func (d *Document) Empty() bool {
	return d == nil || len(d.Paths) == 0
}

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true,
}

var placeholder = regexp.MustCompile(`\{[^}]*\}`)

func compileTemplate(template string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholder.FindAllStringIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		b.WriteString("[^/]+")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// ParseDocument decodes a swagger document. encoding/json maps lose key order,
// so the paths object is walked token by token.
func ParseDocument(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	doc := &Document{Raw: raw}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "paths" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		if doc.Paths, err = readPaths(dec); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return doc, nil
}

func readPaths(dec *json.Decoder) ([]*Operation, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("paths: %w", err)
	}

	var ops []*Operation
	for dec.More() {
		template, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("path %s: %w", template, err)
		}

		op := &Operation{Template: template}
		for dec.More() {
			method, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			if method = strings.ToLower(method); httpMethods[method] {
				op.Methods = append(op.Methods, method)
			}
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}

		if op.pattern, err = compileTemplate(template); err != nil {
			return nil, fmt.Errorf("path %s: %w", template, err)
		}
		ops = append(ops, op)
	}

	return ops, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read swagger: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("read swagger: expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read swagger: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.New("read swagger: expected object key")
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var discard json.RawMessage
	if err := dec.Decode(&discard); err != nil {
		return fmt.Errorf("read swagger: %w", err)
	}
	return nil
}
