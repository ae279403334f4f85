package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/movie"
	"github.com/lepinkainen/marquee/internal/testutil"
)

type harness struct {
	t     *testing.T
	m     *Model
	loop  *coordinator.Loop
	coord *coordinator.Coordinator
	ids   []int64
}

func newHarness(t *testing.T, seed ...movie.Fields) *harness {
	t.Helper()

	store := testutil.NewTestStore(t)
	return newHarnessWithStore(t, store, seed...)
}

func newHarnessWithStore(t *testing.T, store datastore.Store, seed ...movie.Fields) *harness {
	t.Helper()

	h := &harness{t: t, loop: coordinator.NewLoop()}
	if len(seed) > 0 {
		require.NoError(t, store.Open(context.Background()))
		h.ids = testutil.SeedMovies(t, store, seed...)
		require.NoError(t, store.Close())
	}

	// deliveries go through Update, as they do under a running program
	dispatcher := coordinator.DispatchFunc(func(fn func()) {
		h.loop.Dispatch(func() { h.m.Update(dispatchMsg(fn)) })
	})
	h.coord = coordinator.New(store, dispatcher)
	h.m = NewModel(h.coord)
	t.Cleanup(h.m.Close)

	h.m.Init()
	h.settle()
	return h
}

// settle runs the interactive loop until no operation is outstanding.
func (h *harness) settle() {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for round := 0; ; round++ {
		require.Less(h.t, round, 20, "model did not settle")
		h.coord.Wait()
		h.loop.Stop()
		require.NoError(h.t, h.loop.Run(ctx))
		if h.m.inflight == 0 {
			return
		}
	}
}

func (h *harness) press(keys ...string) tea.Cmd {
	h.t.Helper()

	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = h.m.Update(keyMsg(k))
		h.settle()
	}
	return cmd
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func names(movies []movie.Summary) []string {
	out := make([]string, len(movies))
	for i, s := range movies {
		out[i] = s.Name
	}
	return out
}

func TestModel_EmptyList(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, screenList, h.m.screen)
	assert.Empty(t, h.m.movies)
	assert.Contains(t, h.m.View(), "No movies")
}

func TestModel_ListsSeededMovies(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"}, movie.Fields{Name: "Heat"})

	assert.Equal(t, []string{"Alien", "Heat"}, names(h.m.movies))
	assert.Len(t, h.m.list.Items(), 2)
	assert.NotContains(t, h.m.View(), "No movies")
}

func TestModel_AddMovie(t *testing.T) {
	h := newHarness(t)

	h.press("a")
	require.Equal(t, screenForm, h.m.screen)
	assert.Contains(t, h.m.View(), "Add movie")

	h.typeText("  Inception ")
	h.press("tab")
	h.typeText("Christopher Nolan")
	h.press("ctrl+s")

	assert.Equal(t, screenList, h.m.screen)
	assert.Equal(t, "Movie added", h.m.status)
	require.Equal(t, []string{"Inception"}, names(h.m.movies))

	h.press("enter")
	require.Equal(t, screenDetails, h.m.screen)
	assert.Equal(t, "Inception", h.m.current.Name, "form values are trimmed")
	assert.Equal(t, "Christopher Nolan", h.m.current.Director)
}

func TestModel_AddRequiresName(t *testing.T) {
	h := newHarness(t)

	h.press("a", "tab")
	h.typeText("Nobody")
	h.press("ctrl+s")

	require.Equal(t, screenAlert, h.m.screen)
	view := h.m.View()
	assert.Contains(t, view, "please enter the movie's name")
	assert.Contains(t, view, "OK")

	h.press("enter")
	assert.Equal(t, screenForm, h.m.screen)
	assert.Equal(t, "Nobody", h.m.form.fields().Director, "form keeps its values")
	assert.Empty(t, h.m.movies)
}

func TestModel_EnterOnLastFieldSaves(t *testing.T) {
	h := newHarness(t)

	h.press("a")
	h.typeText("Heat")
	for range len(movie.FieldColumns) - 1 {
		h.press("enter")
	}
	require.True(t, h.m.form.last())
	h.press("enter")

	assert.Equal(t, []string{"Heat"}, names(h.m.movies))
}

func TestModel_FormFocusWraps(t *testing.T) {
	h := newHarness(t)

	h.press("a", "shift+tab")
	assert.Equal(t, len(movie.FieldColumns)-1, h.m.form.focused())
	h.press("down")
	assert.Equal(t, 0, h.m.form.focused())
}

func TestModel_CancelForm(t *testing.T) {
	h := newHarness(t)

	h.press("a")
	h.typeText("Discarded")
	h.press("esc")

	assert.Equal(t, screenList, h.m.screen)
	assert.Empty(t, h.m.movies)
}

func TestModel_DetailsAndEdit(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien", Director: "Ridley Scott"})

	h.press("enter")
	require.Equal(t, screenDetails, h.m.screen)
	require.True(t, h.m.loaded)
	view := h.m.View()
	assert.Contains(t, view, "Alien")
	assert.Contains(t, view, "Ridley Scott")

	h.press("e")
	require.Equal(t, screenForm, h.m.screen)
	assert.Contains(t, h.m.View(), "Edit movie")
	assert.Equal(t, movie.Fields{Name: "Alien", Director: "Ridley Scott"}, h.m.form.fields())

	h.typeText(" (1979)")
	h.press("ctrl+s")

	assert.Equal(t, screenDetails, h.m.screen)
	assert.Equal(t, "Movie saved", h.m.status)
	assert.Equal(t, "Alien (1979)", h.m.current.Name, "details reload after the change")
	assert.Equal(t, []string{"Alien (1979)"}, names(h.m.movies), "list reloads after the change")
}

func TestModel_CancelEditReturnsToDetails(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"})

	h.press("enter", "e", "esc")
	assert.Equal(t, screenDetails, h.m.screen)
}

func TestModel_DeleteWithConfirmation(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"}, movie.Fields{Name: "Heat"})

	h.press("enter", "d")
	require.Equal(t, screenConfirmDelete, h.m.screen)
	assert.Contains(t, h.m.View(), `Delete "Alien"?`)

	h.press("n")
	assert.Equal(t, screenDetails, h.m.screen)
	assert.Len(t, h.m.movies, 2)

	h.press("d", "y")
	assert.Equal(t, screenList, h.m.screen)
	assert.Equal(t, "Movie deleted", h.m.status)
	assert.Equal(t, []string{"Heat"}, names(h.m.movies))
}

func TestModel_BackFromDetails(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"})

	h.press("enter", "esc")
	assert.Equal(t, screenList, h.m.screen)
}

func TestModel_ObservesChangesFromElsewhere(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"})
	h.press("enter")
	require.Equal(t, screenDetails, h.m.screen)

	// another view edits the movie being shown
	h.coord.Edit(h.ids[0], movie.Fields{Name: "Aliens", Director: "James Cameron"}, nil)
	h.settle()
	assert.Equal(t, "Aliens", h.m.current.Name)
	assert.Equal(t, []string{"Aliens"}, names(h.m.movies))

	// and then deletes it
	h.coord.Remove(h.ids[0], nil)
	h.settle()
	assert.Equal(t, screenList, h.m.screen)
	assert.Equal(t, "Movie deleted", h.m.status)
	assert.Empty(t, h.m.movies)
}

func TestModel_DeletedWhileEditing(t *testing.T) {
	h := newHarness(t, movie.Fields{Name: "Alien"})
	h.press("enter", "e")

	h.coord.Remove(h.ids[0], nil)
	h.settle()

	assert.Equal(t, screenList, h.m.screen)
	assert.Equal(t, "Movie deleted", h.m.status)
}

func TestModel_StorageUnavailable(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("blocker", "x")
	store := datastore.NewSQLiteStore(filepath.Join(env.Path("blocker"), "movies.db"))

	h := newHarnessWithStore(t, store)

	require.Equal(t, screenAlert, h.m.screen)
	assert.Contains(t, h.m.View(), "storage unavailable")

	h.press("enter")
	assert.Equal(t, screenList, h.m.screen)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t)

	for _, k := range []string{"ctrl+c", "q"} {
		cmd := h.press(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestModel_WindowSize(t *testing.T) {
	h := newHarness(t)

	h.m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	assert.Equal(t, 36, h.m.list.Width())
	assert.Equal(t, 6, h.m.list.Height())
}

func TestRun_ReturnsWhenProgramExits(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })

	var called bool
	runProgram = func(p *tea.Program) (tea.Model, error) {
		called = true
		return nil, nil
	}

	require.NoError(t, Run(context.Background(), testutil.NewTestStore(t)))
	assert.True(t, called)
}

func TestRun_WrapsProgramError(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })

	runProgram = func(p *tea.Program) (tea.Model, error) {
		return nil, os.ErrClosed
	}

	err := Run(context.Background(), testutil.NewTestStore(t))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a   b\n c", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "anything", truncate("anything", 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 72, clamp(72, 0, 20))
	assert.Equal(t, 50, clamp(72, 50, 20))
	assert.Equal(t, 20, clamp(72, 10, 20))
	assert.Equal(t, 72, clamp(72, 100, 20))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Director", label(movie.ColumnDirector))
	assert.Equal(t, "", label(""))
}
