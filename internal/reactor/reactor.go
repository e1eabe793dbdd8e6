// Package reactor runs the single goroutine that owns the window graph.
// Server events and control calls arrive on channels and are handled one
// at a time.
package reactor

import (
	"context"
	"errors"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/wm"
)

// ErrConnectionLost is returned by Run when the event channel closes.
var ErrConnectionLost = errors.New("connection to the X server lost")

// Handler is the state the reactor drives; *wm.Manager implements it.
type Handler interface {
	Dispatch(ev *wm.Event)
	Execute(req *ipc.Request) *ipc.Response
	ShuttingDown() bool
}

// Reactor multiplexes events and calls onto one Handler.
type Reactor struct {
	h      Handler
	events <-chan *wm.Event
	calls  <-chan *ipc.Call
	log    *log.Entry
}

// New builds a reactor. A nil calls channel disables control requests.
func New(h Handler, events <-chan *wm.Event, calls <-chan *ipc.Call, logger *log.Entry) *Reactor {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Reactor{h: h, events: events, calls: calls, log: logger.WithField("component", "reactor")}
}

// Run handles events and calls until ctx is done, the handler shuts down,
// or the event channel closes. Events already queued are handled before a
// control call so replies reflect them.
func (r *Reactor) Run(ctx context.Context) error {
	for !r.h.ShuttingDown() {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-r.events:
			if !ok {
				return ErrConnectionLost
			}
			r.dispatch(ev)
			if err := r.drain(); err != nil {
				return err
			}
		case call := <-r.calls:
			if err := r.drain(); err != nil {
				call.Reply(ipc.NewErrorResponse("shutting down"))
				return err
			}
			call.Reply(r.h.Execute(call.Request))
		}
	}
	r.log.Info("shutting down")
	return nil
}

// drain handles every event that is ready without blocking.
func (r *Reactor) drain() error {
	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				return ErrConnectionLost
			}
			r.dispatch(ev)
		default:
			return nil
		}
	}
}

// dispatch keeps a failing handler from taking the loop down.
func (r *Reactor) dispatch(ev *wm.Event) {
	defer func() {
		if v := recover(); v != nil {
			r.log.WithFields(log.Fields{
				"event": ev.Name,
				"stack": string(debug.Stack()),
			}).Errorf("event handler panicked: %v", v)
		}
	}()
	r.h.Dispatch(ev)
}
