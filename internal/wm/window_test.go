package wm

import (
	"errors"
	"testing"

	"github.com/orionwm/orion/internal/prop"
)

func manageOne(t *testing.T) (*fakeConn, *Manager, *Window) {
	t.Helper()
	conn := newFakeConn(t)
	conn.addWindow(10, "one")
	m := startManager(t, conn, testOptions())
	w := m.Window(10)
	if w == nil {
		t.Fatalf("window 10 not managed")
	}
	return conn, m, w
}

func TestFloatingRoundTripRestoresSize(t *testing.T) {
	_, _, w := manageOne(t)
	before := w.Geometry()

	if err := w.EnableFloating(); err != nil {
		t.Fatalf("EnableFloating: %v", err)
	}
	if w.State() != Floating {
		t.Fatalf("state = %v, want floating", w.State())
	}
	if err := w.SetPositionFloating(50, 60); err != nil {
		t.Fatalf("SetPositionFloating: %v", err)
	}
	if err := w.DisableFloating(); err != nil {
		t.Fatalf("DisableFloating: %v", err)
	}
	after := w.Geometry()
	if w.State() != NotFloating {
		t.Fatalf("state = %v, want not_floating", w.State())
	}
	if after.Width != before.Width || after.Height != before.Height {
		t.Fatalf("size = %dx%d, want %dx%d", after.Width, after.Height, before.Width, before.Height)
	}
}

func TestFloatTransitions(t *testing.T) {
	tests := []struct {
		name    string
		steps   []func(*Window) error
		want    FloatState
		wantErr bool
	}{
		{
			name:  "minimize from tiled",
			steps: []func(*Window) error{(*Window).EnableMinimize},
			want:  Minimized,
		},
		{
			name:  "minimize from floating",
			steps: []func(*Window) error{(*Window).EnableFloating, (*Window).EnableMinimize},
			want:  Minimized,
		},
		{
			name:    "maximize while minimized is refused",
			steps:   []func(*Window) error{(*Window).EnableMinimize, (*Window).EnableMaximize},
			want:    Minimized,
			wantErr: true,
		},
		{
			name:    "fullscreen toggle while minimized is refused",
			steps:   []func(*Window) error{(*Window).EnableMinimize, (*Window).ToggleFullscreen},
			want:    Minimized,
			wantErr: true,
		},
		{
			name:    "minimize while maximized is refused",
			steps:   []func(*Window) error{(*Window).EnableMaximize, (*Window).EnableMinimize},
			want:    Maximized,
			wantErr: true,
		},
		{
			name:  "disable floating from minimized tiles again",
			steps: []func(*Window) error{(*Window).EnableMinimize, (*Window).DisableFloating},
			want:  NotFloating,
		},
		{
			name:  "unminimize goes to floating",
			steps: []func(*Window) error{(*Window).EnableMinimize, (*Window).DisableMinimize},
			want:  Floating,
		},
		{
			name:  "fullscreen off returns to floating",
			steps: []func(*Window) error{(*Window).EnableFullscreen, (*Window).DisableFullscreen},
			want:  Floating,
		},
		{
			name:  "toggle maximize twice",
			steps: []func(*Window) error{(*Window).ToggleMaximize, (*Window).ToggleMaximize},
			want:  Floating,
		},
		{
			name:  "maximize to fullscreen",
			steps: []func(*Window) error{(*Window).EnableMaximize, (*Window).EnableFullscreen},
			want:  Fullscreen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, w := manageOne(t)
			var err error
			for _, step := range tt.steps {
				if err = step(w); err != nil {
					break
				}
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.State() != tt.want {
				t.Fatalf("state = %v, want %v", w.State(), tt.want)
			}
		})
	}
}

func TestMinimizeHidesAndRestoreShows(t *testing.T) {
	conn, _, w := manageOne(t)

	if err := w.EnableMinimize(); err != nil {
		t.Fatalf("EnableMinimize: %v", err)
	}
	if !w.Hidden() || conn.wins[10].mapped {
		t.Fatalf("minimized window still mapped")
	}
	if got := conn.wmState(t, 10); got != prop.IconicState {
		t.Fatalf("WM_STATE = %d, want Iconic", got)
	}

	if err := w.DisableMinimize(); err != nil {
		t.Fatalf("DisableMinimize: %v", err)
	}
	if w.Hidden() || !conn.wins[10].mapped {
		t.Fatalf("restored window not mapped")
	}
	if got := conn.wmState(t, 10); got != prop.NormalState {
		t.Fatalf("WM_STATE = %d, want Normal", got)
	}
}

func TestPlaceTwiceSendsTwoConfigures(t *testing.T) {
	conn, _, w := manageOne(t)
	conn.configured = nil

	w.Place(5, 6, 70, 80, 2, 0, false, true)
	if len(conn.configured) != 2 {
		t.Fatalf("configure calls = %d, want 2", len(conn.configured))
	}
	if conn.configured[0].ch.Y != 5 || conn.configured[1].ch.Y != 6 {
		t.Fatalf("y values = %d, %d, want 5, 6", conn.configured[0].ch.Y, conn.configured[1].ch.Y)
	}
}

func TestPlaceClampsSize(t *testing.T) {
	_, _, w := manageOne(t)
	w.Place(0, 0, 0, -5, 0, 0, false, false)
	g := w.Geometry()
	if g.Width != 1 || g.Height != 1 {
		t.Fatalf("size = %dx%d, want 1x1", g.Width, g.Height)
	}
}

func TestKillPrefersDeleteWindow(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "polite").protocols = []string{"WM_DELETE_WINDOW"}
	conn.addWindow(11, "rude")
	m := startManager(t, conn, testOptions())

	if err := m.Window(10).Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if err := m.Window(11).Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if len(conn.messages) != 1 || conn.messages[0].win != 10 || conn.messages[0].msgType != "WM_PROTOCOLS" {
		t.Fatalf("messages = %+v, want one WM_PROTOCOLS to 10", conn.messages)
	}
	if len(conn.killed) != 1 || conn.killed[0] != 11 {
		t.Fatalf("killed = %v, want [11]", conn.killed)
	}
}

func TestSetOpacityClamps(t *testing.T) {
	conn, _, w := manageOne(t)
	w.SetOpacity(5)
	if w.opacity != 1 {
		t.Fatalf("opacity = %v, want 1", w.opacity)
	}
	w.SetOpacity(0)
	if w.opacity != 0.1 {
		t.Fatalf("opacity = %v, want 0.1", w.opacity)
	}
	if conn.wins[10].props["_NET_WM_WINDOW_OPACITY"] == nil {
		t.Fatalf("_NET_WM_WINDOW_OPACITY not written")
	}
}

func TestMatch(t *testing.T) {
	conn := newFakeConn(t)
	fw := conn.addWindow(10, "Mozilla Firefox")
	fw.instance, fw.class, fw.role = "Navigator", "firefox", "browser"
	m := startManager(t, conn, testOptions())
	w := m.Window(10)

	tests := []struct {
		class, instance, role, title string
		want                         bool
	}{
		{"Firefox", "", "", "", true},
		{"", "navigator", "", "", true},
		{"", "", "browser", "Firefox", true},
		{"chromium", "", "", "", false},
		{"", "", "Browser", "", false},
		{"", "", "", "Chrome", false},
	}
	for _, tt := range tests {
		if got := w.Match(tt.class, tt.instance, tt.role, tt.title); got != tt.want {
			t.Errorf("Match(%q, %q, %q, %q) = %v, want %v", tt.class, tt.instance, tt.role, tt.title, got, tt.want)
		}
	}
}

func TestUrgencyHookFires(t *testing.T) {
	conn, m, w := manageOne(t)
	var fired int
	m.Subscribe(HookUrgentChange, func(ev HookEvent) {
		if ev.Window == w {
			fired++
		}
	})

	conn.wins[10].props["WM_HINTS"] = prop.WMHints{Flags: prop.UrgencyHint}.Encode()
	atom, _ := conn.Intern("WM_HINTS")
	m.Dispatch(&Event{Name: EvPropertyNotify, Fields: HasWindow, Window: 10, Atom: atom})

	if fired != 1 || !w.Hints().Urgent {
		t.Fatalf("urgent hook fired %d times, urgent=%v", fired, w.Hints().Urgent)
	}
}
