// Package apperr defines the error conditions raised by the domain layer.
// The HTTP layer maps each type to a status code; nothing here knows about HTTP.
package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicatePeerError reports peer ids listed more than once in one request.
type DuplicatePeerError struct {
	Peer string // e.g. "subject"
	IDs  []int
}

func (e *DuplicatePeerError) Error() string {
	return fmt.Sprintf("duplicate %s ids in request: %s", e.Peer, joinIDs(e.IDs))
}

// InvalidPeerError reports referenced ids that do not exist.
type InvalidPeerError struct {
	Peer string
	IDs  []int
}

func (e *InvalidPeerError) Error() string {
	return fmt.Sprintf("invalid %s ids: %s", e.Peer, joinIDs(e.IDs))
}

// DuplicateNameError reports that another entity of the same type already uses the name.
type DuplicateNameError struct {
	Entity string
	Name   string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Name)
}

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports request fields rejected by the schema layer.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func joinIDs(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
