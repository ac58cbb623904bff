package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"amount": 12.5, "category": "want", "description": "  Cinema\u0007 ", "flag": true}`)

	if !p.IsJSON() {
		t.Fatal("IsJSON() = false, want true")
	}
	if got := p.Get("amount"); got != "12.5" {
		t.Errorf("amount = %q, want 12.5", got)
	}
	if got := p.Get("description"); got != "Cinema" {
		t.Errorf("description = %q, want control characters stripped", got)
	}
	if got := p.Get("flag"); got != "true" {
		t.Errorf("flag = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("missing = %q, want empty", got)
	}
}

func TestRequestBodyParser_LargeJSONNumberKeepsPrecision(t *testing.T) {
	p := newParser(t, "application/json", `{"amount": 12345678901234.57}`)
	if got := p.Get("amount"); got != "12345678901234.57" {
		t.Errorf("amount = %q", got)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "amount=3%2C50&category=necessity&description=Bus+ticket")

	if p.IsJSON() {
		t.Fatal("IsJSON() = true for form body")
	}
	if got := p.Get("amount"); got != "3,50" {
		t.Errorf("amount = %q", got)
	}
	if got := p.Get("description"); got != "Bus ticket" {
		t.Errorf("description = %q", got)
	}
}

func TestRequestBodyParser_EmptyAndInvalid(t *testing.T) {
	p := newParser(t, "", "")
	if got := p.Get("anything"); got != "" {
		t.Errorf("empty body Get = %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": `))
	req.Header.Set("Content-Type", "application/json")
	bad := NewRequestBodyParser(req)
	if err := bad.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if err := bad.Parse(); err == nil {
		t.Fatal("Parse should keep returning the first error")
	}
}

func TestParseNewExpense(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantErr   error
		want      core.NewExpense
	}{
		{
			name: "valid with comma decimal",
			body: "amount=12,345&category=Want&description=Books",
			want: core.NewExpense{Amount: core.Money{Cents: 1235}, Category: core.Want, Description: "Books"},
		},
		{
			name: "description optional",
			body: "amount=1&category=saving",
			want: core.NewExpense{Amount: core.Money{Cents: 100}, Category: core.Saving},
		},
		{name: "zero amount", body: "amount=0&category=want", wantField: "amount", wantErr: core.ErrInvalidAmount},
		{name: "negative amount", body: "amount=-4&category=want", wantField: "amount", wantErr: core.ErrInvalidAmount},
		{name: "unparsable amount", body: "amount=abc&category=want", wantField: "amount", wantErr: core.ErrInvalidAmount},
		{name: "missing amount", body: "category=want", wantField: "amount", wantErr: core.ErrInvalidAmount},
		{name: "unknown category", body: "amount=5&category=luxury", wantField: "category", wantErr: core.ErrInvalidCategory},
		{
			name:      "description too long",
			body:      "amount=5&category=want&description=" + strings.Repeat("é", core.MaxDescriptionLength+1),
			wantField: "description",
			wantErr:   core.ErrDescriptionTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNewExpense(newParser(t, "application/x-www-form-urlencoded", tt.body))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Fatalf("got %+v, want %+v", got, tt.want)
				}
				return
			}

			var fe *fieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error %v is not a field error", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("field = %q, want %q", fe.Field, tt.wantField)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseIncome(t *testing.T) {
	tests := []struct {
		body    string
		want    int64
		wantErr bool
	}{
		{body: `{"income": 4200}`, want: 420000},
		{body: `{"income": "3100,75"}`, want: 310075},
		{body: `{"income": 0}`, want: 0},
		{body: `{"income": -1}`, wantErr: true},
		{body: `{"income": "lots"}`, wantErr: true},
		{body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := parseIncome(newParser(t, "application/json", tt.body))
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Fatalf("error = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("cents = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}

func TestRequestLocale(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?lang=pt-BR", nil)
	req.Header.Set("Accept-Language", "en-GB")
	if got := requestLocale(req, "en"); got != "pt-BR" {
		t.Errorf("query should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	if got := requestLocale(req, "en"); got != "pt-BR,pt;q=0.9" {
		t.Errorf("Accept-Language should be used, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := requestLocale(req, "en"); got != "en" {
		t.Errorf("fallback expected, got %q", got)
	}
}
