package wm

import (
	"testing"

	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/prop"
)

func TestTargetPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		ev     Event
		want   XID
		wantOK bool
	}{
		{"window wins", Event{Name: EvConfigureRequest, Fields: HasWindow | HasEvent, Window: 5, EventWin: 6}, 5, true},
		{"drawable next", Event{Name: "Expose", Fields: HasDrawable | HasEvent, Drawable: 7, EventWin: 6}, 7, true},
		{"event for pointer", Event{Name: EvEnterNotify, Fields: HasEvent, EventWin: 8}, 8, true},
		{"event for keys", Event{Name: EvKeyPress, Fields: HasEvent, EventWin: 9}, 9, true},
		{"event for key release", Event{Name: EvKeyRelease, Fields: HasEvent, EventWin: 9}, 9, true},
		{"event for motion", Event{Name: EvMotionNotify, Fields: HasEvent, EventWin: 4}, 4, true},
		{"event ignored otherwise", Event{Name: "FocusIn", Fields: HasEvent, EventWin: 9}, 0, false},
		{"nothing", Event{Name: EvMappingNotify}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ev.targetID()
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("targetID = %d, %v, want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIgnoredEventsAreDropped(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	opts := testOptions()
	opts.IgnoreEvents = []string{EvDestroyNotify}
	m := startManager(t, conn, opts)

	m.Dispatch(&Event{Name: EvDestroyNotify, Fields: HasWindow | HasEvent, Window: 10, EventWin: testRoot})
	if m.Window(10) == nil {
		t.Fatalf("ignored DestroyNotify unmanaged the window")
	}
}

func TestDestroyAndUnmapNotify(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	conn.addWindow(11, "w")
	m := startManager(t, conn, testOptions())

	m.Dispatch(&Event{Name: EvDestroyNotify, Fields: HasWindow | HasEvent, Window: 10, EventWin: testRoot})
	if m.Window(10) != nil {
		t.Fatalf("DestroyNotify did not unmanage")
	}

	// the root copy of an unmap is ours, from Hide
	m.Dispatch(&Event{Name: EvUnmapNotify, Fields: HasWindow | HasEvent, Window: 11, EventWin: testRoot})
	if m.Window(11) == nil {
		t.Fatalf("UnmapNotify seen on the root unmanaged the window")
	}
	m.Dispatch(&Event{Name: EvUnmapNotify, Fields: HasWindow | HasEvent, Window: 11, EventWin: 11})
	if m.Window(11) != nil {
		t.Fatalf("client UnmapNotify did not unmanage")
	}
}

func TestManagedConfigureRequestStopsChain(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	m := startManager(t, conn, testOptions())
	conn.configured = nil

	m.Dispatch(&Event{
		Name: EvConfigureRequest, Fields: HasWindow, Window: 10,
		X: -50, Y: 3, Width: 10, Height: 10,
		ValueMask: ChangeX | ChangeY | ChangeWidth | ChangeHeight,
	})
	if len(conn.configured) != 2 {
		t.Fatalf("configure calls = %d, want the two of a forced re-place", len(conn.configured))
	}
	last := conn.configured[1].ch
	if last.X != 0 || last.Y != 0 || last.Width != 1000 || last.Height != 800 {
		t.Fatalf("tiled window configured to %+v, want its layout slot", last)
	}
}

func TestOffscreenConfigureRequestGetsNotify(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	m := startManager(t, conn, testOptions())
	w := m.Window(10)
	if err := w.ToGroup("b"); err != nil {
		t.Fatalf("ToGroup: %v", err)
	}
	conn.configured = nil

	m.Dispatch(&Event{
		Name: EvConfigureRequest, Fields: HasWindow, Window: 10,
		ValueMask: ChangeWidth | ChangeHeight, Width: 300, Height: 200,
	})
	if len(conn.configured) != 0 {
		t.Fatalf("hidden window was configured: %+v", conn.configured)
	}
	if len(conn.notified) != 1 || conn.notified[0].win != 10 || conn.notified[0].geom != w.Geometry() {
		t.Fatalf("configure notifies = %+v, want one with %+v", conn.notified, w.Geometry())
	}
}

func TestFloatingConfigureRequestObeys(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	m := startManager(t, conn, testOptions())
	w := m.Window(10)
	w.EnableFloating()

	m.Dispatch(&Event{
		Name: EvConfigureRequest, Fields: HasWindow, Window: 10,
		ValueMask: ChangeWidth | ChangeHeight, Width: 320, Height: 240,
	})
	g := w.Geometry()
	if g.Width != 320 || g.Height != 240 {
		t.Fatalf("floating window is %dx%d, want 320x240", g.Width, g.Height)
	}
}

func TestUnmanagedConfigureRequestClamps(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, testOptions())
	conn.addWindow(50, "unmanaged")

	m.Dispatch(&Event{
		Name: EvConfigureRequest, Fields: HasWindow, Window: 50,
		ValueMask: ChangeX | ChangeY, X: -10, Y: 5,
	})
	if len(conn.configured) == 0 {
		t.Fatalf("no configure issued")
	}
	ch := conn.configured[len(conn.configured)-1].ch
	if ch.X != 0 || ch.Y != 5 {
		t.Fatalf("configured to %d,%d, want 0,5", ch.X, ch.Y)
	}
}

func TestMapRequestManages(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, testOptions())
	fw := conn.addWindow(10, "new")
	fw.attrs.MapState = MapStateUnmapped
	fw.mapped = false

	m.Dispatch(&Event{Name: EvMapRequest, Fields: HasWindow, Window: 10})
	w := m.Window(10)
	if w == nil || w.Group().Name() != "a" {
		t.Fatalf("window not managed into the current group")
	}
	if !fw.mapped || w.Hidden() {
		t.Fatalf("managed window not mapped")
	}
	if conn.wmState(t, 10) != prop.NormalState {
		t.Fatalf("WM_STATE not Normal")
	}
}

func keyOptions() Options {
	opts := testOptions()
	opts.Keys = []KeyBinding{
		{Key: "Mod4-Return", Commands: []ipc.Request{{Name: "addgroup", Args: []any{"x"}}}},
		{Key: "Mod4-bogus", Commands: []ipc.Request{{Name: "shutdown"}}},
	}
	return opts
}

func TestKeyPressRunsBinding(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, keyOptions())

	for _, mods := range []uint16{mod4, mod4 | ModLock, mod4 | numLockBit, mod4 | numLockBit | ModLock} {
		if !conn.keyGrabs[keyGrab{codeReturn, mods}] {
			t.Fatalf("key not grabbed with mods %#x", mods)
		}
	}

	m.Dispatch(&Event{Name: EvKeyPress, Fields: HasEvent, EventWin: testRoot, Detail: uint32(codeReturn), State: mod4 | numLockBit})
	if m.GroupByName("x") == nil {
		t.Fatalf("binding did not run")
	}
	if m.ShuttingDown() {
		t.Fatalf("unparseable binding was registered")
	}
}

func TestMappingNotifyRegrabs(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, keyOptions())
	conn.keyGrabs = make(map[keyGrab]bool)

	m.Dispatch(&Event{Name: EvMappingNotify, Request: MappingKeyboard, FirstKeycode: 8, Count: 80})
	if conn.keymapRefresh != 1 {
		t.Fatalf("keymap refreshed %d times, want 1", conn.keymapRefresh)
	}
	if !conn.keyGrabs[keyGrab{codeReturn, mod4}] {
		t.Fatalf("keys not grabbed again")
	}
}

func TestFullscreenClientMessage(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "video")
	m := startManager(t, conn, testOptions())
	w := m.Window(10)
	netState, _ := conn.Intern("_NET_WM_STATE")
	fullscreen, _ := conn.Intern("_NET_WM_STATE_FULLSCREEN")

	ev := &Event{Name: EvClientMessage, Fields: HasWindow, Window: 10, MessageType: netState}
	ev.Data = [5]uint32{netWMStateAdd, fullscreen}
	m.Dispatch(ev)
	if w.State() != Fullscreen {
		t.Fatalf("state = %v, want fullscreen", w.State())
	}
	atoms, err := prop.DecodeAtoms(conn.wins[10].props["_NET_WM_STATE"])
	if err != nil || len(atoms) != 1 || atoms[0] != fullscreen {
		t.Fatalf("_NET_WM_STATE = %v (%v)", atoms, err)
	}

	ev.Data = [5]uint32{netWMStateToggle, fullscreen}
	m.Dispatch(ev)
	if w.State() != Floating {
		t.Fatalf("state = %v, want floating", w.State())
	}
	if len(conn.wins[10].props["_NET_WM_STATE"]) != 0 {
		t.Fatalf("_NET_WM_STATE still set")
	}
}

func TestCurrentDesktopClientMessage(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, testOptions())
	desktop, _ := conn.Intern("_NET_CURRENT_DESKTOP")

	m.Dispatch(&Event{Name: EvClientMessage, Fields: HasWindow, Window: testRoot, MessageType: desktop, Data: [5]uint32{2}})
	if m.CurrentGroup().Name() != "c" {
		t.Fatalf("current group = %s, want c", m.CurrentGroup().Name())
	}
	if conn.currentDesktop != 2 {
		t.Fatalf("_NET_CURRENT_DESKTOP = %d, want 2", conn.currentDesktop)
	}
}

func TestEnterNotifyFollowsMouse(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	conn.addWindow(11, "w")
	opts := testOptions()
	opts.FollowMouseFocus = true
	m := startManager(t, conn, opts)

	m.Dispatch(&Event{Name: EvEnterNotify, Fields: HasEvent, EventWin: 10})
	if m.CurrentWindow() != m.Window(10) {
		t.Fatalf("focus did not follow the pointer")
	}

	// crossings caused by grabs are ignored
	m.Dispatch(&Event{Name: EvEnterNotify, Fields: HasEvent, EventWin: 11, Mode: 1})
	if m.CurrentWindow() != m.Window(10) {
		t.Fatalf("grab crossing moved focus")
	}
}

func TestDragMovesWindow(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	opts := testOptions()
	current := []ipc.Selector{{Kind: ipc.KindWindow}}
	opts.Mouse = []MouseBinding{{
		Button:   "Mod4-1",
		Drag:     true,
		Start:    &ipc.Request{Selectors: current, Name: "get_position"},
		Commands: []ipc.Request{{Selectors: current, Name: "set_position_floating"}},
	}}
	m := startManager(t, conn, opts)
	w := m.Window(10)

	m.Dispatch(&Event{Name: EvButtonPress, Fields: HasEvent, EventWin: testRoot, Child: 10, Detail: 1, State: mod4, RootX: 100, RootY: 100})
	if !conn.pointerGrabbed {
		t.Fatalf("pointer not grabbed for the drag")
	}
	m.Dispatch(&Event{Name: EvMotionNotify, Fields: HasEvent, EventWin: testRoot, RootX: 130, RootY: 150})
	g := w.Geometry()
	if !w.Floating() || g.X != 30 || g.Y != 50 {
		t.Fatalf("window at %d,%d floating=%v, want 30,50 floating", g.X, g.Y, w.Floating())
	}
	m.Dispatch(&Event{Name: EvButtonRelease, Fields: HasEvent, EventWin: testRoot, Detail: 1})
	if conn.pointerGrabbed {
		t.Fatalf("pointer still grabbed after release")
	}
}

func TestUnknownEventIsDropped(t *testing.T) {
	conn := newFakeConn(t)
	m := startManager(t, conn, testOptions())
	m.Dispatch(&Event{Name: "Expose", Fields: HasWindow, Window: 99})
	m.Dispatch(&Event{Name: "Expose", Fields: HasWindow, Window: 99})
	if !m.unknown["Expose"] {
		t.Fatalf("unknown event not recorded")
	}
}
