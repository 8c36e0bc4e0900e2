package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
)

// API is the part of the contacts API a Session needs.
type API interface {
	List(ctx context.Context) ([]model.Contact, error)
	Create(ctx context.Context, draft model.Draft) (model.Contact, error)
	Update(ctx context.Context, id string, patch model.Draft) (model.Contact, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Session holds the contact list of one client and applies every successful mutation to it
// without reloading from the server.
//
// A failed request is logged and otherwise ignored: the list keeps its previous state and may
// differ from the server until the next Reload.
type Session struct {
	api API
	log *zap.SugaredLogger

	mu   sync.Mutex
	list presenter.List
}

// NewSession returns a session with an empty list.
func NewSession(api API, log *zap.SugaredLogger) *Session {
	return &Session{api: api, log: log, list: presenter.NewList(nil)}
}

// List returns the current list.
func (s *Session) List() presenter.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

// Apply replaces the list with the result of f, for changes of sort, page or filter.
func (s *Session) Apply(f func(presenter.List) presenter.List) presenter.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = f(s.list)
	return s.list
}

// Reload replaces the collection with the contacts on the server. It reports whether the server
// could be read.
func (s *Session) Reload(ctx context.Context) bool {
	contacts, err := s.api.List(ctx)
	if err != nil {
		s.log.Errorw("reload", "error", err.Error())
		return false
	}
	s.Apply(func(l presenter.List) presenter.List { return l.Replace(contacts) })
	return true
}

// Create stores a new contact and appends it to the list.
func (s *Session) Create(ctx context.Context, draft model.Draft) (model.Contact, bool) {
	contact, err := s.api.Create(ctx, draft)
	if err != nil {
		s.log.Errorw("create", "error", err.Error())
		return contact, false
	}
	s.Apply(func(l presenter.List) presenter.List { return l.Created(contact) })
	return contact, true
}

// Update replaces the contact on the server and in the list.
func (s *Session) Update(ctx context.Context, id string, patch model.Draft) (model.Contact, bool) {
	contact, err := s.api.Update(ctx, id, patch)
	if err != nil {
		s.log.Errorw("update", "id", id, "error", err.Error())
		return contact, false
	}
	s.Apply(func(l presenter.List) presenter.List { return l.Updated(contact) })
	return contact, true
}

// Delete removes the contact from the server and from the list.
func (s *Session) Delete(ctx context.Context, id string) bool {
	if _, err := s.api.Delete(ctx, id); err != nil {
		s.log.Errorw("delete", "id", id, "error", err.Error())
		return false
	}
	s.Apply(func(l presenter.List) presenter.List { return l.Deleted(id) })
	return true
}
