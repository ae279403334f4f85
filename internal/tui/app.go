// Package tui is the interactive terminal front end for the movie collection.
package tui

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/movie"
)

var runProgram = func(p *tea.Program) (tea.Model, error) {
	return p.Run()
}

type screen int

const (
	screenList screen = iota
	screenDetails
	screenForm
	screenConfirmDelete
	screenAlert
)

type movieItem struct {
	movie.Summary
}

func (i movieItem) Title() string       { return i.Name }
func (i movieItem) Description() string { return "" }
func (i movieItem) FilterValue() string { return i.Name }

// Model is the bubbletea model for the list, details and form screens. It is
// attached to the coordinator as an Observer so views stay current after
// writes made from any screen.
type Model struct {
	coord  *coordinator.Coordinator
	detach func()

	screen   screen
	previous screen
	list     list.Model
	movies   []movie.Summary
	current  movie.Record
	loaded   bool
	form     form
	alert    string
	status   string

	// inflight counts submitted operations whose result has not arrived yet
	inflight int
	cmds     []tea.Cmd
}

// NewModel creates the UI model and attaches it to coord. Call Close when
// the model is no longer used.
func NewModel(coord *coordinator.Coordinator) *Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, defaultListWidth, defaultListHeight)
	l.Title = "Movies"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	m := &Model{coord: coord, list: l}
	m.detach = coord.Attach(m)
	return m
}

// Close detaches the model from the coordinator.
func (m *Model) Close() {
	m.detach()
}

// Run shows the terminal UI for store and blocks until the user quits.
// Operations still running at exit finish before Run returns.
func Run(ctx context.Context, store datastore.Store, opts ...coordinator.Option) error {
	pump := coordinator.NewLoop()
	dispatcher := &programDispatcher{pump: pump}
	coord := coordinator.New(store, dispatcher, opts...)

	m := NewModel(coord)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	dispatcher.program = p

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = pump.Run(pumpCtx) }()

	_, err := runProgram(p)
	cancel()
	coord.Wait()

	if err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	m.refresh()
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case dispatchMsg:
		msg()
	case tea.WindowSizeMsg:
		m.list.SetSize(clamp(defaultListWidth, msg.Width-4, 20), clamp(defaultListHeight, msg.Height-6, 5))
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenList:
			cmd = m.updateList(msg)
		case screenDetails:
			cmd = m.updateDetails(msg)
		case screenForm:
			cmd = m.updateForm(msg)
		case screenConfirmDelete:
			cmd = m.updateConfirm(msg)
		case screenAlert:
			m.updateAlert(msg)
		}
	}

	cmds := append(m.cmds, cmd)
	m.cmds = nil
	return m, batch(cmds)
}

// batch drops nil commands and avoids wrapping a single command.
func batch(cmds []tea.Cmd) tea.Cmd {
	valid := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return tea.Batch(valid...)
	}
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "a":
		return m.openForm(nil)
	case "enter":
		if item, ok := m.list.SelectedItem().(movieItem); ok {
			m.openDetails(item.ID)
		}
		return nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) updateDetails(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "esc", "backspace", "left":
		m.screen = screenList
	case "e":
		if m.loaded {
			rec := m.current
			return m.openForm(&rec)
		}
	case "d":
		if m.loaded {
			m.screen = screenConfirmDelete
		}
	}
	return nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y":
		m.remove(m.current.ID)
	case "n", "esc":
		m.screen = screenDetails
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	if m.form.saving {
		return nil
	}

	switch msg.String() {
	case "esc":
		m.closeForm()
		return nil
	case "tab", "down":
		return m.form.next()
	case "shift+tab", "up":
		return m.form.prev()
	case "ctrl+s":
		m.save()
		return nil
	case "enter":
		if m.form.last() {
			m.save()
			return nil
		}
		return m.form.next()
	}
	return m.form.update(msg)
}

func (m *Model) updateAlert(msg tea.KeyMsg) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.alert = ""
		m.screen = m.previous
	}
}

func (m *Model) openForm(rec *movie.Record) tea.Cmd {
	m.form = newForm(rec)
	m.screen = screenForm
	m.status = ""
	return m.form.focusOn(0)
}

func (m *Model) closeForm() {
	if m.form.adding() {
		m.screen = screenList
		return
	}
	m.screen = screenDetails
}

func (m *Model) openDetails(id int64) {
	m.current = movie.Record{ID: id}
	m.loaded = false
	m.screen = screenDetails
	m.status = ""
	m.loadDetails(id)
}

// refresh reloads the movie list.
func (m *Model) refresh() {
	m.inflight++
	m.coord.ListAll(func(movies []movie.Summary, err error) {
		m.inflight--
		if err != nil {
			m.showError(err)
			return
		}
		m.setMovies(movies)
	})
}

func (m *Model) setMovies(movies []movie.Summary) {
	m.movies = movies
	items := make([]list.Item, len(movies))
	for i, s := range movies {
		items[i] = movieItem{Summary: s}
	}
	m.cmds = append(m.cmds, m.list.SetItems(items))
}

func (m *Model) loadDetails(id int64) {
	m.inflight++
	m.coord.GetDetails(id, func(rec movie.Record, err error) {
		m.inflight--
		if m.current.ID != id {
			return
		}
		switch {
		case errors.IsRecordNotFound(err):
			m.gone()
		case err != nil:
			m.showError(err)
		default:
			m.current = rec
			m.loaded = true
		}
	})
}

func (m *Model) save() {
	fields := m.form.fields().Normalized()
	if err := m.coord.Validate(fields); err != nil {
		m.showError(err)
		return
	}

	m.form.saving = true
	m.inflight++

	if m.form.adding() {
		m.coord.Add(fields, func(_ int64, err error) {
			m.inflight--
			m.form.saving = false
			if err != nil {
				m.showError(err)
				return
			}
			m.screen = screenList
			m.status = "Movie added"
		})
		return
	}

	id := m.form.id
	m.coord.Edit(id, fields, func(found bool, err error) {
		m.inflight--
		m.form.saving = false
		if err != nil {
			m.showError(err)
			return
		}
		if !found {
			m.gone()
			return
		}
		m.screen = screenDetails
		m.status = "Movie saved"
	})
}

func (m *Model) remove(id int64) {
	m.inflight++
	m.coord.Remove(id, func(found bool, err error) {
		m.inflight--
		if err != nil {
			m.showError(err)
			return
		}
		if !found {
			m.gone()
			return
		}
		m.deleted()
	})
}

// gone handles a movie that disappeared while it was being viewed or edited.
func (m *Model) gone() {
	m.current = movie.Record{}
	m.loaded = false
	m.screen = screenList
	m.status = "Movie no longer exists"
}

func (m *Model) deleted() {
	m.current = movie.Record{}
	m.loaded = false
	m.screen = screenList
	m.status = "Movie deleted"
}

func (m *Model) showError(err error) {
	var validationErr *errors.ValidationError
	if stdErrors.As(err, &validationErr) {
		m.alert = validationErr.Message
	} else {
		m.alert = err.Error()
	}
	if m.screen != screenAlert {
		m.previous = m.screen
	}
	m.screen = screenAlert
}

// ListChanged reloads the list.
func (m *Model) ListChanged() {
	m.refresh()
}

// RecordChanged reloads the details screen when it shows id.
func (m *Model) RecordChanged(id int64) {
	if m.current.ID != id {
		return
	}
	if m.screen == screenDetails || m.screen == screenConfirmDelete {
		m.loadDetails(id)
	}
}

// RecordDeleted leaves any screen that shows or edits id.
func (m *Model) RecordDeleted(id int64) {
	editing := m.screen == screenForm && m.form.id == id
	if m.current.ID != id && !editing {
		return
	}
	switch m.screen {
	case screenDetails, screenConfirmDelete, screenForm:
		m.deleted()
	default:
		m.current = movie.Record{}
		m.loaded = false
	}
}

func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenList:
		body = m.listView()
	case screenDetails:
		body = m.detailsView()
	case screenForm:
		body = m.form.view()
	case screenConfirmDelete:
		body = m.confirmView()
	case screenAlert:
		body = m.alertView()
	}

	parts := []string{body}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, helpStyle.Render(m.help()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) listView() string {
	if len(m.movies) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render("Movies"), emptyStyle.Render("No movies"))
	}
	return m.list.View()
}

func (m *Model) detailsView() string {
	if !m.loaded {
		return emptyStyle.Render("Loading...")
	}

	rows := []string{headerStyle.Render(m.current.Name)}
	for _, column := range movie.FieldColumns[1:] {
		value, _ := m.current.Get(column)
		rendered := valueStyle.Render(truncate(value, defaultListWidth-12))
		if strings.TrimSpace(value) == "" {
			rendered = emptyStyle.Render("-")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label(column)), rendered))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) confirmView() string {
	question := headerStyle.Render(fmt.Sprintf("Delete %q?", m.current.Name))
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		dangerButtonStyle.Render(" Yes (y) "),
		lipgloss.NewStyle().Padding(0, 2).Render(""),
		buttonStyle.Render(" No (n) "),
	)
	return lipgloss.JoinVertical(lipgloss.Left, question, buttons)
}

func (m *Model) alertView() string {
	content := lipgloss.JoinVertical(lipgloss.Left, m.alert, buttonStyle.Render(" OK "))
	return alertStyle.Render(content)
}

func (m *Model) help() string {
	switch m.screen {
	case screenDetails:
		return "e edit | d delete | esc back | q quit"
	case screenForm:
		return "tab/up/down move | enter next | ctrl+s save | esc cancel"
	case screenConfirmDelete:
		return "y delete | n cancel"
	case screenAlert:
		return "enter OK"
	default:
		return "up/down navigate | enter open | a add | q quit"
	}
}
