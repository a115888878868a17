package surge

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// Event is an inbound signal from the host.
type Event int

const (
	// EventMapLoaded fires once the map has finished its first load.
	EventMapLoaded Event = iota + 1
	// EventAdvance fires when the user asks for the next zone.
	EventAdvance
)

func (e Event) String() string {
	switch e {
	case EventMapLoaded:
		return "map_loaded"
	case EventAdvance:
		return "advance"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Dispatch maps an event to its transition.
func (m *Manager) Dispatch(ev Event) error {
	switch ev {
	case EventMapLoaded:
		return m.MapLoaded()
	case EventAdvance:
		_, err := m.Advance()
		return err
	default:
		return eris.Errorf("surge: unknown event %s", ev)
	}
}

type request struct {
	ev   Event
	done chan error
}

// Loop executes events one at a time on a single goroutine, the way a UI
// dispatch queue would. Hosts with concurrent callers (HTTP handlers) submit
// through it instead of calling the manager directly.
type Loop struct {
	m        *Manager
	requests chan request
}

// NewLoop creates a loop for m. buffer bounds how many events may wait.
func NewLoop(m *Manager, buffer int) *Loop {
	return &Loop{m: m, requests: make(chan request, buffer)}
}

// Run processes events until ctx is done. Events still queued at that point
// are answered with the context error instead of being dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.drain(ctx.Err())
			return nil
		case req := <-l.requests:
			if err := ctx.Err(); err != nil {
				req.done <- err
				continue
			}
			req.done <- l.m.Dispatch(req.ev)
		}
	}
}

func (l *Loop) drain(err error) {
	for {
		select {
		case req := <-l.requests:
			req.done <- err
		default:
			return
		}
	}
}

// Submit queues ev and waits for its transition to finish.
func (l *Loop) Submit(ctx context.Context, ev Event) error {
	req := request{ev: ev, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
