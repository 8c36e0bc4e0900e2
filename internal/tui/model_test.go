package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/client"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
)

// stubAPI serves a fixed list and records deletions.
type stubAPI struct {
	contacts  []model.Contact
	deleted   []string
	deleteErr error
}

func (s *stubAPI) List(context.Context) ([]model.Contact, error) { return s.contacts, nil }

func (s *stubAPI) Create(_ context.Context, d model.Draft) (model.Contact, error) {
	return model.Contact{Draft: d}, nil
}

func (s *stubAPI) Update(_ context.Context, id string, d model.Draft) (model.Contact, error) {
	return model.Contact{ID: id, Draft: d}, nil
}

func (s *stubAPI) Delete(_ context.Context, id string) (string, error) {
	if s.deleteErr != nil {
		return "", s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return "Contact deleted successfully", nil
}

func contacts(n int) []model.Contact {
	result := make([]model.Contact, 0, n)
	for i := range n {
		result = append(result, model.Contact{ID: fmt.Sprint(i), Draft: model.Draft{
			FirstName: fmt.Sprintf("First%02d", i),
			LastName:  fmt.Sprintf("Last%02d", n-i),
			Email:     fmt.Sprintf("user%02d@example.com", i),
			PhoneNo:   "5550000000",
		}})
	}
	return result
}

// loaded returns a model whose initial reload has completed.
func loaded(t *testing.T, api *stubAPI) (Model, *client.Session) {
	session := client.NewSession(api, zap.NewNop().Sugar())
	m := NewModel(context.Background(), session)
	cmd := m.Init()
	require.NotNil(t, cmd)
	return update(t, m, cmd()), session
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoadsFirstPage(t *testing.T) {
	m, _ := loaded(t, &stubAPI{contacts: contacts(12)})

	assert.Len(t, m.view, 5)
	assert.Equal(t, "0", m.view[0].ID)
	assert.Equal(t, "loaded", m.status)
	assert.Contains(t, m.View(), "page 1/3")
	assert.Contains(t, m.View(), "12 contacts")
}

func TestModelToggleSort(t *testing.T) {
	m, session := loaded(t, &stubAPI{contacts: contacts(12)})

	m = update(t, m, key("1"))
	assert.Equal(t, presenter.Descending, session.List().SortDirection())
	assert.Equal(t, "11", m.view[0].ID)

	m = update(t, m, key("2"))
	assert.Equal(t, model.FieldLastName, session.List().SortField())
	assert.Equal(t, presenter.Ascending, session.List().SortDirection())
	assert.Equal(t, "11", m.view[0].ID)
	assert.Contains(t, m.View(), "lastName asc")
}

func TestModelPaging(t *testing.T) {
	m, session := loaded(t, &stubAPI{contacts: contacts(12)})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, session.List().PageIndex())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, session.List().PageIndex())
	assert.Len(t, m.view, 2)
}

func TestModelPageSizeCycles(t *testing.T) {
	m, session := loaded(t, &stubAPI{contacts: contacts(30)})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	m = update(t, m, key("+"))
	assert.Equal(t, 10, session.List().PageSize())
	assert.Equal(t, 0, session.List().PageIndex())
	m = update(t, m, key("+"))
	m = update(t, m, key("+"))
	assert.Equal(t, 5, session.List().PageSize())
	m = update(t, m, key("-"))
	assert.Equal(t, 25, session.List().PageSize())
	assert.Len(t, m.view, 25)
}

func TestModelDeleteSelected(t *testing.T) {
	api := &stubAPI{contacts: contacts(3)}
	m, session := loaded(t, api)

	next, cmd := m.Update(key("d"))
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())

	assert.Equal(t, []string{"0"}, api.deleted)
	assert.Equal(t, 2, session.List().Len())
	assert.Equal(t, "deleted 0", m.status)
	assert.False(t, m.failed)
}

func TestModelDeleteFailureKeepsList(t *testing.T) {
	api := &stubAPI{contacts: contacts(3), deleteErr: errors.New("connection refused")}
	m, session := loaded(t, api)

	next, cmd := m.Update(key("d"))
	m = update(t, next.(Model), cmd())

	assert.Equal(t, 3, session.List().Len())
	assert.True(t, m.failed)
	assert.Contains(t, m.View(), "could not delete 0")
}

func TestModelDeleteOnEmptyPage(t *testing.T) {
	m, _ := loaded(t, &stubAPI{})
	_, cmd := m.Update(key("d"))
	assert.Nil(t, cmd)
}

func TestModelQuit(t *testing.T) {
	m, _ := loaded(t, &stubAPI{})
	next, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestRender(t *testing.T) {
	session := client.NewSession(&stubAPI{contacts: contacts(7)}, zap.NewNop().Sugar())
	session.Reload(context.Background())
	var out bytes.Buffer

	require.NoError(t, Render(&out, session.List().WithPage(1)))

	text := out.String()
	assert.Contains(t, text, "1 firstName ↑")
	assert.Contains(t, text, "First05")
	assert.Contains(t, text, "First06")
	assert.NotContains(t, text, "First04")
	assert.True(t, strings.HasSuffix(text, "firstName asc · page 2/2 · 5 per page · 7 contacts\n"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
