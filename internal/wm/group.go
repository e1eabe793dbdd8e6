package wm

// Group is a named workspace: a set of windows with its own layouts.
type Group struct {
	name string
	m    *Manager

	windows   []*Window
	layouts   []Layout
	layoutIdx int
	floating  Layout
	current   *Window
	screen    *Screen
}

func newGroup(m *Manager, name string) *Group {
	g := &Group{name: name, m: m}
	for _, l := range m.opts.Layouts {
		g.layouts = append(g.layouts, l.Clone())
	}
	if m.opts.Floating != nil {
		g.floating = m.opts.Floating.Clone()
	}
	return g
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Screen returns the screen showing the group, or nil.
func (g *Group) Screen() *Screen { return g.screen }

// Current returns the focused member, or nil.
func (g *Group) Current() *Window { return g.current }

// Windows returns the members in insertion order.
func (g *Group) Windows() []*Window {
	out := make([]*Window, len(g.windows))
	copy(out, g.windows)
	return out
}

// Layout returns the active tiling layout, or nil when none is configured.
func (g *Group) Layout() Layout {
	if len(g.layouts) == 0 {
		return nil
	}
	return g.layouts[g.layoutIdx]
}

// Contains reports membership.
func (g *Group) Contains(w *Window) bool {
	return g.indexOf(w) >= 0
}

func (g *Group) indexOf(w *Window) int {
	for i, member := range g.windows {
		if member == w {
			return i
		}
	}
	return -1
}

// Add makes w a member and the current window. A window in another group
// is removed from it first, so membership stays exclusive.
func (g *Group) Add(w *Window) {
	if w.group == g {
		return
	}
	if w.floatAbsolute {
		origin := g.screen
		if origin == nil {
			origin = g.m.current
		}
		if origin != nil {
			w.float.X -= origin.rect.X
			w.float.Y -= origin.rect.Y
		}
		w.floatAbsolute = false
	}
	if prev := w.group; prev != nil {
		prev.Remove(w)
	}

	w.group = g
	g.windows = append(g.windows, w)
	if w.state == NotFloating && g.m.shouldFloat(w) {
		w.snapshotFloat()
		w.state = Floating
	}
	g.publishDesktop(w)
	g.m.hooks.fire(HookEvent{Kind: HookSetGroup, Window: w, Group: g})
	g.Focus(w, true)
}

// publishDesktop stores the group's index in the member's _NET_WM_DESKTOP.
func (g *Group) publishDesktop(w *Window) {
	if idx := g.m.groupIndex(g); idx >= 0 {
		w.check("set _NET_WM_DESKTOP", g.m.conn.SetProperty(w.ID, "_NET_WM_DESKTOP", uint32(idx), "", 0))
	}
}

// Remove drops w from the group and picks a new current window if w was
// focused: the next floating member for a floating window, otherwise the
// first tiled member, otherwise any visible floating member.
func (g *Group) Remove(w *Window) {
	idx := g.indexOf(w)
	if idx < 0 {
		return
	}
	g.windows = append(g.windows[:idx], g.windows[idx+1:]...)
	w.group = nil

	if g.current == w {
		g.setCurrent(g.nextFocus(w, idx))
	}
	g.layoutAll(false)
}

func (g *Group) nextFocus(removed *Window, idx int) *Window {
	n := len(g.windows)
	if n == 0 {
		return nil
	}
	if removed.Floating() {
		for i := 0; i < n; i++ {
			w := g.windows[(idx+i)%n]
			if w.Floating() && w.state != Minimized {
				return w
			}
		}
	}
	for _, w := range g.windows {
		if !w.Floating() {
			return w
		}
	}
	for _, w := range g.windows {
		if w.state != Minimized {
			return w
		}
	}
	return nil
}

// Focus makes w the current window and relayouts. A nil w clears the
// focus; a window from another group is ignored.
func (g *Group) Focus(w *Window, warp bool) {
	if w != nil && w.group != g {
		return
	}
	g.setCurrent(w)
	g.layoutAll(warp)
}

func (g *Group) setCurrent(w *Window) {
	if g.current == w {
		return
	}
	g.current = w
	g.m.hooks.fire(HookEvent{Kind: HookFocusChange, Window: w, Group: g})
}

// FocusNext moves focus to the next visible member.
func (g *Group) FocusNext() { g.cycleFocus(1) }

// FocusPrev moves focus to the previous visible member.
func (g *Group) FocusPrev() { g.cycleFocus(-1) }

func (g *Group) cycleFocus(step int) {
	n := len(g.windows)
	if n == 0 {
		return
	}
	start := g.indexOf(g.current)
	if start < 0 {
		// no current window: walk every member from the matching end
		start = -1
		if step < 0 {
			start = n
		}
	}
	for i := 1; i <= n; i++ {
		w := g.windows[((start+step*i)%n+n)%n]
		if w.state != Minimized {
			g.Focus(w, true)
			return
		}
	}
}

// layoutAll places every visible member on the group's screen and
// focuses the current window when the group is on the current screen.
func (g *Group) layoutAll(warp bool) {
	if g.screen == nil {
		return
	}
	onCurrent := g.screen == g.m.current
	if len(g.windows) == 0 {
		if onCurrent {
			g.m.clearFocus()
		}
		return
	}

	area := g.screen.Usable()
	var tiled, floating []*Window
	for _, w := range g.windows {
		switch {
		case !w.Floating():
			tiled = append(tiled, w)
		case w.state != Minimized:
			floating = append(floating, w)
		}
	}

	// placing windows under the pointer must not steal focus
	g.setEventMask(ClientEventMask &^ MaskEnterWindow)
	if l := g.Layout(); l != nil && len(tiled) > 0 {
		l.Arrange(tiled, area)
	}
	if g.floating != nil && len(floating) > 0 {
		g.floating.Arrange(floating, area)
	}
	for _, w := range tiled {
		w.Unhide()
	}
	for _, w := range floating {
		w.Unhide()
	}
	g.setEventMask(ClientEventMask)

	if onCurrent {
		if g.current != nil && !g.current.hidden {
			g.current.Focus(warp)
		} else {
			g.m.clearFocus()
		}
	}
}

func (g *Group) setEventMask(mask uint32) {
	for _, w := range g.windows {
		if w.hidden && w.state == Minimized {
			continue
		}
		w.check("mask", g.m.conn.SetEventMask(w.ID, mask))
	}
}

// floatChanged reacts to a member's float state change.
func (g *Group) floatChanged(w *Window, old FloatState) {
	if w.state == Minimized {
		w.Hide()
		if g.current == w {
			g.setCurrent(g.nextFocus(w, g.indexOf(w)+1))
		}
	}
	g.layoutAll(false)
}

// setScreen attaches the group to s, or detaches it for a nil s.
func (g *Group) setScreen(s *Screen) {
	if g.screen == s {
		return
	}
	g.screen = s
	if s == nil {
		for _, w := range g.windows {
			w.Hide()
		}
		return
	}
	g.layoutAll(false)
}

// SetLayout activates the layout with the given name.
func (g *Group) SetLayout(name string) error {
	for i, l := range g.layouts {
		if l.Name() == name {
			g.useLayout(i)
			return nil
		}
	}
	return commandErrorf("no such layout: %s", name)
}

// NextLayout cycles forward through the configured layouts.
func (g *Group) NextLayout() {
	if len(g.layouts) > 0 {
		g.useLayout((g.layoutIdx + 1) % len(g.layouts))
	}
}

// PrevLayout cycles backward through the configured layouts.
func (g *Group) PrevLayout() {
	if n := len(g.layouts); n > 0 {
		g.useLayout((g.layoutIdx - 1 + n) % n)
	}
}

func (g *Group) useLayout(idx int) {
	g.layoutIdx = idx
	g.m.hooks.fire(HookEvent{Kind: HookLayoutChange, Group: g})
	g.layoutAll(false)
}

// UnminimizeAll restores every minimized member.
func (g *Group) UnminimizeAll() {
	for _, w := range g.Windows() {
		if w.state == Minimized {
			w.state = Floating
			g.m.hooks.fire(HookEvent{Kind: HookFloatChange, Window: w, Group: g})
		}
	}
	g.layoutAll(false)
}

// Info describes the group for the control socket.
func (g *Group) Info() map[string]any {
	names := make([]string, 0, len(g.windows))
	var floating []string
	for _, w := range g.windows {
		names = append(names, w.name)
		if w.Floating() {
			floating = append(floating, w.name)
		}
	}
	layouts := make([]string, 0, len(g.layouts))
	for _, l := range g.layouts {
		layouts = append(layouts, l.Name())
	}
	info := map[string]any{
		"name":             g.name,
		"windows":          names,
		"floating_windows": floating,
		"layouts":          layouts,
		"focus":            nil,
		"layout":           nil,
		"screen":           nil,
	}
	if g.current != nil {
		info["focus"] = g.current.name
	}
	if l := g.Layout(); l != nil {
		info["layout"] = l.Name()
	}
	if g.screen != nil {
		info["screen"] = g.screen.index
	}
	return info
}
