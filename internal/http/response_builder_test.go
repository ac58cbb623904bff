package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/1").
		JSON(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/expenses/1" {
		t.Errorf("Location = %q", got)
	}
	if got := w.Body.String(); got != "{\"n\":1}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("204 must not carry a content type")
	}
}

func TestValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationError("amount", errors.New("invalid amount")).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status code = %d, want 422", w.Code)
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid amount" || body.Field != "amount" {
		t.Errorf("body = %+v", body)
	}
}

func TestErrorResponseOmitsField(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, "malformed request body").Write(w)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status code = %d", w.Code)
	}
	if got := w.Body.String(); got != "{\"error\":\"malformed request body\"}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestResponseBuilder_UnencodableBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(make(chan int)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}
