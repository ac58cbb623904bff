// Package http exposes the budget store as a JSON API with an event stream
// and a spreadsheet export.
//
// This file implements utilities for parsing and validating request bodies.
// Forms and JSON clients send the same field names, so handlers read both
// through one parser.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"budget/internal/core"
)

const maxBodyBytes = 64 << 10

// fieldError ties a validation failure to the input field that caused it.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *fieldError) Unwrap() error { return e.Err }

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(r.Body)
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

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body, writing a 400 and reporting
// false when that fails.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
		} else {
			ErrorResponse(http.StatusBadRequest, "malformed request body").Write(w)
		}
		return nil, false
	}
	return p, true
}

// parseNewExpense validates the amount, category and description fields.
// Amounts must be strictly positive.
func parseNewExpense(p *RequestBodyParser) (core.NewExpense, error) {
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return core.NewExpense{}, &fieldError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.NewExpense{}, &fieldError{Field: "category", Err: err}
	}
	description := p.Get("description")
	if utf8.RuneCountInString(description) > core.MaxDescriptionLength {
		return core.NewExpense{}, &fieldError{Field: "description", Err: core.ErrDescriptionTooLong}
	}

	return core.NewExpense{
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: description,
	}, nil
}

// parseIncome accepts zero and rejects negative or unparsable input.
func parseIncome(p *RequestBodyParser) (core.Money, error) {
	cents, err := core.ParseCents(p.Get("income"))
	if err != nil {
		return core.Money{}, &fieldError{Field: "income", Err: core.ErrInvalidAmount}
	}
	return core.Money{Cents: cents}, nil
}
