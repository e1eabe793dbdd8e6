package wm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/orionwm/orion/internal/ipc"
)

// serveControl puts m behind a control socket and returns a connected
// client. Calls are executed on one goroutine, as the reactor does.
func serveControl(t *testing.T, m *Manager) *ipc.Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orion.sock")
	srv, err := ipc.Listen(path, ipc.ServerOptions{Timeout: 2 * time.Second, SameUserOnly: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()
	go func() {
		for {
			select {
			case call := <-srv.Calls():
				call.Reply(m.Execute(call.Request))
			case <-ctx.Done():
				return
			}
		}
	}()

	client, err := ipc.Dial(path, 2*time.Second)
	if err != nil {
		cancel()
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		cancel()
		if err := <-served; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return client
}

func TestControlSocketUnknownCommandThenReuse(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	m := startManager(t, conn, testOptions())
	client := serveControl(t, m)

	resp, err := client.Command(nil, "no_such_thing")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if resp.Status != ipc.StatusError || resp.Error != "no such command" {
		t.Fatalf("reply = %s %q, want ERROR no such command", resp.Status, resp.Error)
	}

	// same connection
	resp, err = client.Command(nil, "groups")
	if err != nil {
		t.Fatalf("Command after error: %v", err)
	}
	if resp.Status != ipc.StatusSuccess {
		t.Fatalf("reply = %s %q, want SUCCESS", resp.Status, resp.Error)
	}
	var groups map[string]map[string]any
	if err := resp.Decode(&groups); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(groups) != 3 || groups["a"] == nil {
		t.Fatalf("groups = %v, want a, b and c", groups)
	}

	resp, err = client.Command([]ipc.Selector{{Kind: ipc.KindWindow, Key: int64(10)}}, "togroup", "b")
	if err != nil || resp.Status != ipc.StatusSuccess {
		t.Fatalf("togroup = %v, %v", resp, err)
	}
	if got := m.Window(10).Group().Name(); got != "b" {
		t.Fatalf("window 10 in %s, want b", got)
	}
}
