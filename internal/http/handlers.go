package http

import (
	"errors"
	"net/http"
	"strings"

	"budget/internal/budget"
	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(newSnapshotResponse(s.store.Snapshot())).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	income, err := parseIncome(p)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := s.store.UpdateIncome(r.Context(), income); err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Income updated", applog.FieldIncome, income.String())
	NewResponse().JSON(newSnapshotResponse(s.store.Snapshot())).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	n, err := parseNewExpense(p)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	e, err := s.store.AddExpense(r.Context(), n)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense added",
		applog.NewFields().WithExpense(e.ID, e.Amount.String(), e.Category.String()).ToSlice()...)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(newExpenseResponse(e)).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	removed, err := s.store.DeleteExpense(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense delete handled",
		applog.FieldExpenseID, id, "removed", removed)
	NoContent().Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		writeStoreError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget reset to defaults")
	NewResponse().JSON(newSnapshotResponse(s.store.Snapshot())).Write(w)
}

// writeStoreError maps input and store errors onto status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fieldError
	switch {
	case errors.As(err, &fe):
		ValidationError(fe.Field, fe.Err).Write(w)
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidCategory), errors.Is(err, core.ErrDescriptionTooLong):
		ValidationError("", err).Write(w)
	case errors.Is(err, budget.ErrClosed):
		ErrorResponse(http.StatusServiceUnavailable, "budget store is closed").Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "internal error").Write(w)
	}
}
