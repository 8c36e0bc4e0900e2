package tui

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
)

// Render writes the current page of the list as a bordered text table followed by the summary
// line.
func Render(w io.Writer, l presenter.List) error {
	headers := make([]string, 0, len(model.Fields))
	for i, field := range model.Fields {
		headers = append(headers, heading(l, i, field))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for _, c := range l.View() {
		t.Row(cells(c)...)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(), summary(l))
	return err
}

// IsTerminal reports whether w is connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run starts the interactive browser and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}
