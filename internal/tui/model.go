// Package tui shows the contact list as an interactive terminal table, or as plain text when
// the output is not a terminal.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/dirk.krummacker/contact-manager/internal/client"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
)

// columnWidths follow the order of model.Fields.
var columnWidths = []int{14, 14, 28, 12, 16, 16}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const helpText = "1-6 sort · ←/→ page · +/- rows · d delete · r reload · q quit"

// reloadedMsg reports the end of a reload from the server.
type reloadedMsg struct{ ok bool }

// deletedMsg reports the end of a delete request.
type deletedMsg struct {
	id string
	ok bool
}

// Model is the Bubble Tea model of the contact browser.
type Model struct {
	ctx      context.Context
	session  *client.Session
	table    table.Model
	view     []model.Contact
	status   string
	failed   bool
	quitting bool
}

// NewModel returns a browser over the session's list.
func NewModel(ctx context.Context, session *client.Session) Model {
	t := table.New(
		table.WithColumns(columns(session.List())),
		table.WithFocused(true),
		table.WithHeight(presenter.DefaultPageSize+1),
	)
	m := Model{ctx: ctx, session: session, table: t, status: "loading"}
	m.refresh()
	return m
}

// Init loads the contacts from the server.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

// Update handles key presses and the results of server requests.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reloadedMsg:
		m.failed = !msg.ok
		m.status = "loaded"
		if !msg.ok {
			m.status = "could not load contacts"
		}
		m.refresh()
		return m, nil

	case deletedMsg:
		m.failed = !msg.ok
		m.status = "deleted " + msg.id
		if !msg.ok {
			m.status = "could not delete " + msg.id
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6":
			field := model.Fields[int(key[0]-'1')]
			m.apply(func(l presenter.List) presenter.List { return l.ToggleSort(field) })
			return m, nil
		case "left", "h":
			m.apply(func(l presenter.List) presenter.List { return l.WithPage(l.PageIndex() - 1) })
			return m, nil
		case "right", "l":
			m.apply(func(l presenter.List) presenter.List {
				if l.PageIndex()+1 >= l.PageCount() {
					return l
				}
				return l.WithPage(l.PageIndex() + 1)
			})
			return m, nil
		case "+", "-":
			step := 1
			if key == "-" {
				step = -1
			}
			m.apply(func(l presenter.List) presenter.List { return cyclePageSize(l, step) })
			return m, nil
		case "d":
			cursor := m.table.Cursor()
			if cursor < 0 || cursor >= len(m.view) {
				return m, nil
			}
			m.status = "deleting"
			return m, m.delete(m.view[cursor].ID)
		case "r":
			m.status = "loading"
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table with a status line and the key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	list := m.session.List()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Contacts"))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(summary(list)))
	b.WriteString("\n")
	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(helpText))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) apply(f func(presenter.List) presenter.List) {
	m.session.Apply(f)
	m.refresh()
}

// refresh copies the current page of the list into the table.
func (m *Model) refresh() {
	list := m.session.List()
	m.view = list.View()
	m.table.SetColumns(columns(list))
	m.table.SetRows(rows(m.view))
	m.table.SetHeight(list.PageSize() + 1)
	if m.table.Cursor() >= len(m.view) {
		m.table.SetCursor(max(len(m.view)-1, 0))
	}
}

func (m Model) reload() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return reloadedMsg{ok: session.Reload(ctx)}
	}
}

func (m Model) delete(id string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return deletedMsg{id: id, ok: session.Delete(ctx, id)}
	}
}

// cyclePageSize moves to the next or previous supported page size, wrapping around.
func cyclePageSize(l presenter.List, step int) presenter.List {
	sizes := presenter.PageSizes
	i := slices.Index(sizes, l.PageSize())
	next := sizes[((i+step)%len(sizes)+len(sizes))%len(sizes)]
	resized, err := l.WithPageSize(next)
	if err != nil {
		return l
	}
	return resized
}

// columns returns the table columns with an arrow on the sorted one.
func columns(l presenter.List) []table.Column {
	result := make([]table.Column, 0, len(model.Fields))
	for i, field := range model.Fields {
		result = append(result, table.Column{Title: heading(l, i, field), Width: columnWidths[i]})
	}
	return result
}

func heading(l presenter.List, i int, field string) string {
	title := fmt.Sprintf("%d %s", i+1, field)
	if l.SortField() != field {
		return title
	}
	if l.SortDirection() == presenter.Descending {
		return title + " ↓"
	}
	return title + " ↑"
}

func rows(contacts []model.Contact) []table.Row {
	result := make([]table.Row, 0, len(contacts))
	for _, c := range contacts {
		result = append(result, table.Row(cells(c)))
	}
	return result
}

func cells(c model.Contact) []string {
	values := make([]string, 0, len(model.Fields))
	for _, field := range model.Fields {
		values = append(values, c.Field(field))
	}
	return values
}

// summary describes the sort and page state, e.g. "firstName asc · page 1/3 · 5 per page · 12 contacts".
func summary(l presenter.List) string {
	pages := max(l.PageCount(), 1)
	return fmt.Sprintf("%s %s · page %d/%d · %d per page · %d contacts",
		l.SortField(), l.SortDirection(), l.PageIndex()+1, pages, l.PageSize(), l.Len())
}
