package reactor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/wm"
)

type recorder struct {
	seen     []string
	shutdown bool
}

func (r *recorder) Dispatch(ev *wm.Event) {
	if ev.Name == "Boom" {
		panic("boom")
	}
	r.seen = append(r.seen, ev.Name)
}

func (r *recorder) Execute(req *ipc.Request) *ipc.Response {
	r.seen = append(r.seen, "call:"+req.Name)
	if req.Name == "shutdown" {
		r.shutdown = true
	}
	resp, _ := ipc.NewSuccessResponse(len(r.seen))
	return resp
}

func (r *recorder) ShuttingDown() bool { return r.shutdown }

func quiet() *log.Entry {
	l := log.New()
	l.Out = io.Discard
	return log.NewEntry(l)
}

func run(t *testing.T, r *Reactor) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("reactor did not stop")
		return nil
	}
}

func TestQueuedEventsPrecedeCalls(t *testing.T) {
	h := &recorder{}
	events := make(chan *wm.Event, 4)
	calls := make(chan *ipc.Call, 1)
	events <- &wm.Event{Name: wm.EvMapRequest}
	events <- &wm.Event{Name: wm.EvPropertyNotify}
	call := ipc.NewCall(&ipc.Request{Name: "status"})
	calls <- call

	done := run(t, New(h, events, calls, quiet()))

	stop := ipc.NewCall(&ipc.Request{Name: "shutdown"})
	calls <- stop
	if err := wait(t, done); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{wm.EvMapRequest, wm.EvPropertyNotify, "call:status", "call:shutdown"}
	if len(h.seen) != len(want) {
		t.Fatalf("seen = %v, want %v", h.seen, want)
	}
	for i := range want {
		if h.seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", h.seen, want)
		}
	}
}

func TestConnectionLost(t *testing.T) {
	events := make(chan *wm.Event)
	done := run(t, New(&recorder{}, events, nil, quiet()))
	close(events)
	if err := wait(t, done); !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Run = %v, want ErrConnectionLost", err)
	}
}

func TestPanickingHandlerKeepsRunning(t *testing.T) {
	h := &recorder{}
	events := make(chan *wm.Event, 2)
	events <- &wm.Event{Name: "Boom"}
	events <- &wm.Event{Name: wm.EvKeyPress}
	close(events)

	err := wait(t, run(t, New(h, events, nil, quiet())))
	if !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Run = %v", err)
	}
	if len(h.seen) != 1 || h.seen[0] != wm.EvKeyPress {
		t.Fatalf("seen = %v", h.seen)
	}
}

func TestContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&recorder{}, make(chan *wm.Event), nil, quiet()).Run(ctx) }()
	cancel()
	if err := wait(t, done); err != nil {
		t.Fatalf("Run = %v", err)
	}
}
