// Package repository persists contacts. It translates domain operations into store queries and
// store failures into the domain errors declared below.
package repository

import (
	"context"
	"errors"
	"strings"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

//go:generate mockgen -destination=mock/repository_mock.go -package=mock . Repository

var (
	// ErrNotFound is returned when an id does not resolve to a live contact.
	ErrNotFound = errors.New("contact not found")

	// ErrStorageUnavailable is returned when the store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError is returned when a draft violates the contact schema. It carries one message
// per violated field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Repository is the durable store of contacts.
type Repository interface {
	// ListAll returns all contacts in no particular order.
	ListAll(ctx context.Context) ([]model.Contact, error)
	// Get returns the contact with the given id.
	Get(ctx context.Context, id string) (model.Contact, error)
	// Create persists a new contact and returns it with its newly assigned id.
	Create(ctx context.Context, draft model.Draft) (model.Contact, error)
	// Update replaces all fields of the contact with the given id and returns the result.
	Update(ctx context.Context, id string, patch model.Draft) (model.Contact, error)
	// Delete removes the contact with the given id.
	Delete(ctx context.Context, id string) error
	// Ping returns nil if the store can be reached.
	Ping(ctx context.Context) error
}

// checkDraft runs the schema validation that every store applies before writing.
func checkDraft(d model.Draft) error {
	if messages := model.Validate(d); len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}
