package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
)

// fakeAPI answers from fixed values and counts the calls it receives.
type fakeAPI struct {
	contacts []model.Contact
	created  model.Contact
	updated  model.Contact
	err      error
	calls    int
}

func (f *fakeAPI) List(context.Context) ([]model.Contact, error) {
	f.calls++
	return f.contacts, f.err
}

func (f *fakeAPI) Create(context.Context, model.Draft) (model.Contact, error) {
	f.calls++
	return f.created, f.err
}

func (f *fakeAPI) Update(context.Context, string, model.Draft) (model.Contact, error) {
	f.calls++
	return f.updated, f.err
}

func (f *fakeAPI) Delete(context.Context, string) (string, error) {
	f.calls++
	return "Contact deleted successfully", f.err
}

func newSession(api API) (*Session, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewSession(api, zap.New(core).Sugar()), logs
}

func sessionIDs(s *Session) []string {
	var result []string
	for _, c := range s.List().Contacts() {
		result = append(result, c.ID)
	}
	return result
}

// TestSessionMutations expects successful calls to be applied to the list without reloading.
func TestSessionMutations(t *testing.T) {
	api := &fakeAPI{contacts: []model.Contact{{ID: "1", Draft: annLee}, {ID: "2", Draft: annLee}}}
	session, logs := newSession(api)

	assert.True(t, session.Reload(context.Background()))
	assert.Equal(t, []string{"1", "2"}, sessionIDs(session))

	api.created = model.Contact{ID: "3", Draft: annLee}
	_, ok := session.Create(context.Background(), annLee)
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, sessionIDs(session))

	changed := annLee
	changed.JobTitle = "CTO"
	api.updated = model.Contact{ID: "2", Draft: changed}
	session.Apply(func(l presenter.List) presenter.List { return l.Edit("2") })
	_, ok = session.Update(context.Background(), "2", changed)
	assert.True(t, ok)
	got, _ := session.List().Find("2")
	assert.Equal(t, "CTO", got.JobTitle)
	assert.Equal(t, "", session.List().Editing())

	assert.True(t, session.Delete(context.Background(), "1"))
	assert.Equal(t, []string{"2", "3"}, sessionIDs(session))

	assert.Equal(t, 5, api.calls)
	assert.Equal(t, 0, logs.Len())
}

// TestSessionFailuresAreSwallowed expects failed calls to be logged and to leave the list as it
// was.
func TestSessionFailuresAreSwallowed(t *testing.T) {
	api := &fakeAPI{contacts: []model.Contact{{ID: "1", Draft: annLee}}}
	session, logs := newSession(api)
	session.Reload(context.Background())
	session.Apply(func(l presenter.List) presenter.List { return l.Edit("1") })
	before := session.List()

	api.err = errors.New("error making http request: connection refused")
	api.contacts = nil
	_, created := session.Create(context.Background(), annLee)
	_, updated := session.Update(context.Background(), "1", annLee)
	deleted := session.Delete(context.Background(), "1")
	reloaded := session.Reload(context.Background())

	assert.False(t, created)
	assert.False(t, updated)
	assert.False(t, deleted)
	assert.False(t, reloaded)
	assert.Equal(t, before, session.List())
	assert.Equal(t, 4, logs.FilterLevelExact(zap.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("delete").FilterField(zap.String("id", "1")).Len())
}

// TestSessionApply expects view changes to be kept across mutations.
func TestSessionApply(t *testing.T) {
	api := &fakeAPI{created: model.Contact{ID: "9", Draft: annLee}}
	session, _ := newSession(api)

	session.Apply(func(l presenter.List) presenter.List { return l.ToggleSort(model.FieldEmail).WithPage(2) })
	session.Create(context.Background(), annLee)

	list := session.List()
	assert.Equal(t, model.FieldEmail, list.SortField())
	assert.Equal(t, 2, list.PageIndex())
	assert.Equal(t, 1, list.Len())
}
