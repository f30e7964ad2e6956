// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the activity record body (JSON or form encoded) and the list query.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fieldlog/internal/core"
)

// maxBodyBytes bounds request bodies read by the parser.
const maxBodyBytes = 64 << 10

// ErrBodyTooLarge is returned when the request body exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// ListQuery holds the optional filters of GET /records/{company}.
type ListQuery struct {
	Date   string
	Newest bool
}

// ParseListQuery reads ?date=YYYY-MM-DD and ?sort=newest|stored.
func ParseListQuery(query url.Values) (ListQuery, error) {
	var q ListQuery
	if v := strings.TrimSpace(query.Get("date")); v != "" {
		if _, err := core.ParseDate(v); err != nil {
			return q, err
		}
		q.Date = v
	}
	switch strings.ToLower(strings.TrimSpace(query.Get("sort"))) {
	case "", "stored":
	case "newest":
		q.Newest = true
	default:
		return q, errors.New("sort must be newest or stored")
	}
	return q, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("expected a JSON object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Has reports whether key is present in the parsed data.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form). JSON
// values that are not strings read as empty.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key].(string); ok {
			return sanitizeInput(val)
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Int returns the integer stored under key. JSON values must be integral
// numbers, never quoted; form values must parse with strconv.Atoi.
func (p *RequestBodyParser) Int(key string) (int, error) {
	if p.jsonData != nil {
		v, ok := p.jsonData[key].(float64)
		if !ok || v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, errors.New("not an integer")
		}
		return int(v), nil
	}
	return strconv.Atoi(p.Get(key))
}

// isText reports whether key holds text. Form values always do.
func (p *RequestBodyParser) isText(key string) bool {
	if p.jsonData == nil {
		return true
	}
	_, ok := p.jsonData[key].(string)
	return ok
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ActivityRecord builds a record from the parsed body. Shape problems (a
// missing field, a non integer qty) are reported next to the record's own
// validation errors so the caller gets every problem at once.
func (p *RequestBodyParser) ActivityRecord() (core.ActivityRecord, error) {
	if err := p.Parse(); err != nil {
		return core.ActivityRecord{}, err
	}

	verr := core.ValidationErrors{}
	for _, field := range []string{"id", "date", "type", "qty"} {
		if !p.Has(field) {
			verr.Add(field, "required")
		}
	}
	for _, field := range []string{"id", "date", "type", "notes"} {
		if p.Has(field) && !p.isText(field) {
			verr.Add(field, "must be a string")
		}
	}

	rec := core.ActivityRecord{
		ID:    p.Get("id"),
		Date:  p.Get("date"),
		Type:  core.ActivityType(p.Get("type")),
		Notes: p.Get("notes"),
	}
	if p.Has("qty") {
		qty, err := p.Int("qty")
		if err != nil {
			verr.Add("qty", "must be an integer")
		} else {
			rec.Quantity = qty
		}
	}

	rec = rec.Normalize()
	var recErr core.ValidationErrors
	if err := rec.Validate(); errors.As(err, &recErr) {
		for field, msgs := range recErr.FieldErrors {
			if _, seen := verr.FieldErrors[field]; seen {
				continue
			}
			for _, m := range msgs {
				verr.Add(field, m)
			}
		}
		for _, m := range recErr.FormErrors {
			verr.Add("", m)
		}
	}

	if len(verr.FieldErrors) > 0 || len(verr.FormErrors) > 0 {
		return rec, verr
	}
	return rec, nil
}
