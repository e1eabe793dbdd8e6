package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func quietLogger() *log.Entry {
	l := log.New()
	l.Out = io.Discard
	return log.NewEntry(l)
}

// startServer runs a server in the background. The returned stop function
// is also registered as cleanup.
func startServer(t *testing.T, timeout time.Duration) (*Server, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orion.sock")
	srv, err := Listen(path, ServerOptions{Timeout: timeout, SameUserOnly: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	}
	t.Cleanup(stop)
	return srv, stop
}

// echo answers every call with the command name until ctx is done.
func echo(ctx context.Context, srv *Server) {
	for {
		select {
		case call := <-srv.Calls():
			resp, _ := NewSuccessResponse(call.Request.Name)
			call.Reply(resp)
		case <-ctx.Done():
			return
		}
	}
}

func TestServerRoundTrip(t *testing.T) {
	srv, _ := startServer(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go echo(ctx, srv)

	client, err := Dial(srv.Path(), 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	for _, name := range []string{"status", "groups"} {
		resp, err := client.Command([]Selector{{Kind: KindGroup, Key: "a"}}, name)
		if err != nil {
			t.Fatalf("Call(%s): %v", name, err)
		}
		var got string
		if resp.Status != StatusSuccess || resp.Decode(&got) != nil || got != name {
			t.Fatalf("reply to %s = %+v", name, resp)
		}
	}
}

func TestServerTimesOut(t *testing.T) {
	srv, _ := startServer(t, 50*time.Millisecond)

	client, err := Dial(srv.Path(), 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Command(nil, "status")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Status != StatusError || resp.Error != "timed out" {
		t.Fatalf("reply = %+v, want a timeout error", resp)
	}
}

func TestServerLateReplyIsDropped(t *testing.T) {
	srv, _ := startServer(t, 50*time.Millisecond)
	late := make(chan *Call, 1)
	go func() { late <- <-srv.Calls() }()

	client, err := Dial(srv.Path(), 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Command(nil, "sync")
	if err != nil || resp.Error != "timed out" {
		t.Fatalf("reply = %+v, %v", resp, err)
	}
	call := <-late
	ok, _ := NewSuccessResponse(nil)
	call.Reply(ok)
	call.Reply(ok)
}

func TestServerMalformedLine(t *testing.T) {
	srv, _ := startServer(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go echo(ctx, srv)

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil || resp.Status != StatusError {
		t.Fatalf("reply = %s", line)
	}

	if _, err := conn.Write([]byte(`{"name":"info"}` + "\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	line, err = reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if err := json.Unmarshal(line, &resp); err != nil || resp.Status != StatusSuccess {
		t.Fatalf("connection not reusable after a bad line: %s", line)
	}
}

func TestServeRemovesSocket(t *testing.T) {
	srv, stop := startServer(t, time.Second)
	if _, err := os.Stat(srv.Path()); err != nil {
		t.Fatalf("socket missing while serving: %v", err)
	}
	stop()
	if _, err := os.Stat(srv.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket left behind: %v", err)
	}
	if _, err := Dial(srv.Path(), 100*time.Millisecond); err == nil {
		t.Fatalf("dial succeeded after shutdown")
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orion.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	srv, err := Listen(path, ServerOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Listen over a stale file: %v", err)
	}
	defer srv.listener.Close()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 || info.Mode().Perm() != 0o600 {
		t.Fatalf("socket mode = %v", info.Mode())
	}
}
