package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Bridge is a session.Dispatcher that delivers work to a bubbletea program
// as DispatchMsg. Work dispatched before Attach is held and sent afterwards.
//
// Dispatch blocks until the program receives the message, so it must not be
// called from inside Update.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// Attach binds the bridge to p. It may be called before p.Run.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(pending) > 0 {
		go func() {
			for _, fn := range pending {
				p.Send(DispatchMsg{Fn: fn})
			}
		}()
	}
}

// Dispatch sends fn to the program's update loop.
func (b *Bridge) Dispatch(fn func()) {
	b.mu.Lock()
	p := b.program
	if p == nil {
		b.pending = append(b.pending, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	p.Send(DispatchMsg{Fn: fn})
}
