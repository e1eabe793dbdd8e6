package wm

import "testing"

func TestMembershipSurvivesMoves(t *testing.T) {
	conn := newFakeConn(t)
	for id := XID(10); id < 16; id++ {
		conn.addWindow(id, "w")
	}
	m := startManager(t, conn, testOptions())
	checkMembership(t, m)

	moves := []struct {
		id    XID
		group string
	}{
		{10, "b"},
		{11, "c"},
		{10, "c"},
		{12, "b"},
		{10, "a"},
		{13, "a"}, // already there
	}
	for _, mv := range moves {
		if err := m.Window(mv.id).ToGroup(mv.group); err != nil {
			t.Fatalf("ToGroup(%d, %s): %v", mv.id, mv.group, err)
		}
		checkMembership(t, m)
		if got := m.Window(mv.id).Group().Name(); got != mv.group {
			t.Fatalf("window %d in %s, want %s", mv.id, got, mv.group)
		}
	}

	m.Unmanage(11)
	checkMembership(t, m)
	if m.GroupByName("c").Contains(m.Window(10)) {
		t.Fatalf("window 10 still listed in c")
	}
}

func TestToGroupUnknownGroup(t *testing.T) {
	_, _, w := manageOne(t)
	err := w.ToGroup("nope")
	if _, ok := err.(*CommandError); !ok {
		t.Fatalf("err = %v, want *CommandError", err)
	}
}

func TestToGroupHidesOffscreen(t *testing.T) {
	conn, _, w := manageOne(t)
	if err := w.ToGroup("b"); err != nil {
		t.Fatalf("ToGroup: %v", err)
	}
	if !w.Hidden() || conn.wins[10].mapped {
		t.Fatalf("window moved to a hidden group is still mapped")
	}
}

func TestAddMakesWindowCurrent(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "first")
	conn.addWindow(11, "second")
	m := startManager(t, conn, testOptions())

	g := m.GroupByName("a")
	if g.Current() != m.Window(11) {
		t.Fatalf("current = %v, want the last added window", g.Current())
	}
	if conn.focus != 11 {
		t.Fatalf("input focus on %d, want 11", conn.focus)
	}
}

func TestRemoveRefocus(t *testing.T) {
	conn := newFakeConn(t)
	for id := XID(10); id < 14; id++ {
		conn.addWindow(id, "w")
	}
	m := startManager(t, conn, testOptions())
	g := m.GroupByName("a")

	// 12 and 13 float, 10 and 11 tile; 13 is current
	m.Window(12).EnableFloating()
	m.Window(13).EnableFloating()
	g.Focus(m.Window(13), false)

	m.Unmanage(13)
	if g.Current() != m.Window(12) {
		t.Fatalf("after removing a floating window current = %v, want 12", g.Current())
	}

	g.Focus(m.Window(11), false)
	m.Unmanage(11)
	if g.Current() != m.Window(10) {
		t.Fatalf("after removing a tiled window current = %v, want 10", g.Current())
	}

	m.Unmanage(10)
	m.Unmanage(12)
	if g.Current() != nil || len(g.Windows()) != 0 {
		t.Fatalf("empty group still has current %v", g.Current())
	}
	if conn.focus != testRoot {
		t.Fatalf("focus = %d, want root", conn.focus)
	}
}

func TestFocusCycleSkipsMinimized(t *testing.T) {
	conn := newFakeConn(t)
	for id := XID(10); id < 13; id++ {
		conn.addWindow(id, "w")
	}
	m := startManager(t, conn, testOptions())
	g := m.GroupByName("a")

	m.Window(11).EnableMinimize()
	g.Focus(m.Window(10), false)
	g.FocusNext()
	if g.Current() != m.Window(12) {
		t.Fatalf("FocusNext landed on %v, want 12", g.Current())
	}
	g.FocusPrev()
	if g.Current() != m.Window(10) {
		t.Fatalf("FocusPrev landed on %v, want 10", g.Current())
	}
}

func TestFocusCycleWithoutCurrentWindow(t *testing.T) {
	for _, tt := range []struct {
		name  string
		cycle func(*Group)
	}{
		{"next", (*Group).FocusNext},
		{"prev", (*Group).FocusPrev},
	} {
		conn := newFakeConn(t)
		conn.addWindow(10, "w")
		conn.addWindow(11, "w")
		m := startManager(t, conn, testOptions())
		g := m.GroupByName("a")

		m.Window(11).EnableMinimize()
		m.Window(10).EnableMinimize()
		m.Window(11).DisableMinimize()
		if g.Current() != nil {
			t.Fatalf("%s: current = %v, want none", tt.name, g.Current())
		}

		tt.cycle(g)
		if g.Current() != m.Window(11) {
			t.Fatalf("%s: current = %v, want the only visible window 11", tt.name, g.Current())
		}
	}
}

func TestMinimizeCurrentFiresFocusChange(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	conn.addWindow(11, "w")
	m := startManager(t, conn, testOptions())
	g := m.GroupByName("a")

	var focused []*Window
	m.Subscribe(HookFocusChange, func(ev HookEvent) { focused = append(focused, ev.Window) })

	m.Window(11).EnableMinimize()
	if g.Current() != m.Window(10) {
		t.Fatalf("current = %v, want 10", g.Current())
	}
	if len(focused) != 1 || focused[0] != m.Window(10) {
		t.Fatalf("focus hooks = %v, want one for window 10", focused)
	}
}

func TestLayoutCycling(t *testing.T) {
	_, m, _ := manageOne(t)
	g := m.GroupByName("a")
	var changes int
	m.Subscribe(HookLayoutChange, func(HookEvent) { changes++ })

	g.NextLayout()
	if g.Layout().Name() != "other" {
		t.Fatalf("layout = %s, want other", g.Layout().Name())
	}
	g.NextLayout()
	if g.Layout().Name() != "stack" {
		t.Fatalf("layout = %s, want stack", g.Layout().Name())
	}
	g.PrevLayout()
	if g.Layout().Name() != "other" {
		t.Fatalf("layout = %s, want other", g.Layout().Name())
	}
	if err := g.SetLayout("stack"); err != nil {
		t.Fatalf("SetLayout: %v", err)
	}
	if err := g.SetLayout("missing"); err == nil {
		t.Fatalf("SetLayout accepted an unknown layout")
	}
	if changes != 4 {
		t.Fatalf("layout hooks = %d, want 4", changes)
	}
}

func TestGroupsOwnLayoutInstances(t *testing.T) {
	_, m, _ := manageOne(t)
	a, b := m.GroupByName("a"), m.GroupByName("b")
	if a.Layout() == b.Layout() {
		t.Fatalf("groups share a layout instance")
	}
}

func TestUnminimizeAll(t *testing.T) {
	conn := newFakeConn(t)
	conn.addWindow(10, "w")
	conn.addWindow(11, "w")
	m := startManager(t, conn, testOptions())
	m.Window(10).EnableMinimize()
	m.Window(11).EnableMinimize()

	m.GroupByName("a").UnminimizeAll()
	for _, id := range []XID{10, 11} {
		if w := m.Window(id); w.State() != Floating || w.Hidden() {
			t.Fatalf("window %d state=%v hidden=%v", id, w.State(), w.Hidden())
		}
	}
}
