package wm

// Gaps are regions along the screen edges reserved for bars.
type Gaps struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Screen is one physical display region.
type Screen struct {
	index int
	m     *Manager
	rect  Rect
	gaps  Gaps
	group *Group
}

// Index returns the screen number.
func (s *Screen) Index() int { return s.index }

// Rect returns the full screen rectangle.
func (s *Screen) Rect() Rect { return s.rect }

// Group returns the group shown on the screen.
func (s *Screen) Group() *Group { return s.group }

// Usable returns the screen rectangle minus the bar gaps.
func (s *Screen) Usable() Rect {
	return Rect{
		X:      s.rect.X + s.gaps.Left,
		Y:      s.rect.Y + s.gaps.Top,
		Width:  s.rect.Width - s.gaps.Left - s.gaps.Right,
		Height: s.rect.Height - s.gaps.Top - s.gaps.Bottom,
	}
}

// SetGroup shows g on the screen. If g is already shown on another screen
// the two screens swap groups; otherwise the previous group is hidden.
func (s *Screen) SetGroup(g *Group) {
	if g == nil || s.group == g {
		return
	}
	old := s.group
	if other := g.screen; other != nil && other != s && old != nil {
		s.group, other.group = g, old
		// detach both before attaching so neither sees a stale screen
		g.screen, old.screen = nil, nil
		g.setScreen(s)
		old.setScreen(other)
	} else {
		if other != nil && other != s {
			other.group = nil
		}
		s.group = g
		if old != nil {
			old.setScreen(nil)
		}
		g.screen = nil
		g.setScreen(s)
	}
	s.m.hooks.fire(HookEvent{Kind: HookSetGroup, Group: g, Screen: s})
	s.m.publishDesktops()
}

// Resize changes the screen rectangle and relayouts its group.
func (s *Screen) Resize(r Rect) {
	s.rect = r
	if s.group != nil {
		s.group.layoutAll(false)
	}
}

// NextGroup shows the group after the current one.
func (s *Screen) NextGroup() { s.cycleGroup(1) }

// PrevGroup shows the group before the current one.
func (s *Screen) PrevGroup() { s.cycleGroup(-1) }

func (s *Screen) cycleGroup(step int) {
	groups := s.m.groups
	n := len(groups)
	if n == 0 {
		return
	}
	idx := s.m.groupIndex(s.group)
	s.SetGroup(groups[((idx+step)%n+n)%n])
}

// Info describes the screen for the control socket.
func (s *Screen) Info() map[string]any {
	var group any
	if s.group != nil {
		group = s.group.name
	}
	return map[string]any{
		"index":  s.index,
		"x":      s.rect.X,
		"y":      s.rect.Y,
		"width":  s.rect.Width,
		"height": s.rect.Height,
		"usable": s.Usable(),
		"gaps":   s.gaps,
		"group":  group,
	}
}
