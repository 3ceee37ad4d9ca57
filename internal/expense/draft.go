package expense

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrValidation = errors.New("invalid expense")
	ErrNotFound   = errors.New("expense not found")
)

// ValidationError lists the required fields a draft is missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid expense: missing %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Draft is the user input for a new expense.
type Draft struct {
	Amount      float64
	Description string
	Category    string
	// OccurredAt is optional; the zero value means "now".
	OccurredAt time.Time
}

func (d Draft) Validate() error {
	var missing []string
	if d.Amount == 0 || math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Record builds a pending record from the draft. The caller is expected to
// have validated it.
func (d Draft) Record(localID string, now time.Time) Record {
	occurred := d.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	return Record{
		LocalID:     localID,
		Amount:      d.Amount,
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
		OccurredAt:  occurred.UTC(),
		State:       Pending,
	}
}
