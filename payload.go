package main

import (
	"bytes"
	"encoding/json"
	"net/http"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// This file contains the builders for the JSON documents every endpoint emits.
// A Payload is an ordered string-keyed document: keys appear on the wire in the
// order they were set, which keeps responses deterministic and diffable.

// Payload is the response document under construction. It also carries the
// pending HTTP status code, which the emitter applies when the response is
// finally written.
type Payload struct {
	pairs  *orderedmap.OrderedMap[string, any]
	status int
}

// NewResponse returns an empty payload. A non-zero code becomes the pending
// HTTP status for the response; zero leaves the status to default to 200 OK.
func NewResponse(code int) *Payload {
	return &Payload{
		pairs:  orderedmap.New[string, any](),
		status: code,
	}
}

// NewErrorResponse builds a standard error payload with the conventional
// "status" and "response" fields. A zero code defaults to 400 Bad Request.
// The "message" and "data" fields are only set when provided.
func NewErrorResponse(code int, message string, data any) *Payload {
	if code == 0 {
		code = http.StatusBadRequest
	}
	p := NewResponse(code)
	p.Set("status", code)
	p.Set("response", http.StatusText(code))
	if message != "" {
		p.Set("message", message)
	}
	if data != nil {
		p.Set("data", data)
	}
	return p
}

// Set adds or replaces a field. Replacing keeps the key's original position.
func (p *Payload) Set(key string, value any) {
	p.pairs.Set(key, value)
}

// Get returns a field's value and whether it is present.
func (p *Payload) Get(key string) (any, bool) {
	return p.pairs.Get(key)
}

// Len returns the number of fields.
func (p *Payload) Len() int {
	return p.pairs.Len()
}

// MarshalJSON serializes the fields in insertion order. It bypasses the
// ordered map's own marshaler because that one HTML-escapes values; here
// "<", ">", "&", forward slashes and non-ASCII text must all reach the wire
// literally.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for pair := p.pairs.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(pair.Key); err != nil {
			return nil, err
		}
		// Encode appends a trailing newline after every value.
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(pair.Value); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
