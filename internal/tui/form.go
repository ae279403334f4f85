package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/movie"
)

// form edits the seven descriptive fields of a movie. id is zero when adding.
type form struct {
	id     int64
	inputs []textinput.Model
	focus  int
	saving bool
}

func newForm(rec *movie.Record) form {
	f := form{inputs: make([]textinput.Model, len(movie.FieldColumns))}
	for i, column := range movie.FieldColumns {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = label(column)
		in.Width = 48
		if rec != nil {
			value, _ := rec.Get(column)
			in.SetValue(value)
		}
		f.inputs[i] = in
	}
	if rec != nil {
		f.id = rec.ID
	}
	return f
}

func (f *form) adding() bool {
	return f.id == 0
}

// fields collects the current input values.
func (f *form) fields() movie.Fields {
	var out movie.Fields
	for i, column := range movie.FieldColumns {
		out.Set(column, f.inputs[i].Value())
	}
	return out
}

func (f *form) focused() int {
	return f.focus
}

func (f *form) last() bool {
	return f.focus == len(f.inputs)-1
}

// focusOn moves focus to input i, wrapping around.
func (f *form) focusOn(i int) tea.Cmd {
	n := len(f.inputs)
	i = ((i % n) + n) % n

	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

func (f *form) next() tea.Cmd { return f.focusOn(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.focusOn(f.focus - 1) }

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	title := "Edit movie"
	if f.adding() {
		title = "Add movie"
	}

	rows := []string{headerStyle.Render(title)}
	for i, column := range movie.FieldColumns {
		style := labelStyle
		if i == f.focus {
			style = focusedLabelStyle
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left, style.Render(label(column)), f.inputs[i].View()))
	}
	if f.saving {
		rows = append(rows, emptyStyle.Render("Saving..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
