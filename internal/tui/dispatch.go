package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/marquee/internal/coordinator"
)

// dispatchMsg carries a coordinator callback into the bubbletea event loop.
type dispatchMsg func()

// programDispatcher makes a bubbletea program the coordinator's interactive
// context. Program.Send blocks until the event loop receives the message, so
// sends are queued on a pump Loop and Dispatch never blocks, even when called
// from inside Update.
type programDispatcher struct {
	pump    *coordinator.Loop
	program *tea.Program
}

func (d *programDispatcher) Dispatch(fn func()) {
	d.pump.Dispatch(func() {
		d.program.Send(dispatchMsg(fn))
	})
}
