package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength is the longest description, in characters, an expense may carry.
const MaxDescriptionLength = 200

const (
	Necessity Category = "necessity"
	Want      Category = "want"
	Saving    Category = "saving"
)

type (
	// Category tags an expense with one of the three 50-30-20 buckets.
	Category string

	Money struct {
		Cents int64
	}

	// Expense is an immutable spending record. Only the budget store creates
	// and removes them; ID and Date are assigned there.
	Expense struct {
		ID          string
		Amount      Money
		Category    Category
		Description string
		Date        time.Time
	}

	// NewExpense is the caller-supplied part of an expense.
	NewExpense struct {
		Amount      Money
		Category    Category
		Description string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
)

// Categories returns the closed set of categories in display order.
func Categories() []Category {
	return []Category{Necessity, Want, Saving}
}

// ParseCategory maps a tag to a Category, rejecting anything outside the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case Necessity, Want, Saving:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// Validate checks the amount is strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (n NewExpense) Validate() error {
	if !n.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(n.Category))
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(n.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
