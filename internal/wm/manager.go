// Package wm implements the window graph: managed windows, groups and
// screens, the event handlers that keep them in sync with the server, and
// the command surface exposed on the control socket.
//
// Everything in this package runs on the reactor goroutine. No type here
// is safe for concurrent use.
package wm

import (
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/prop"
)

// FloatRule starts matching windows floating. Empty fields match anything.
type FloatRule struct {
	Class    string
	Instance string
	Role     string
	Title    string
}

// GroupRule sends new windows matching Class/Instance/Role to Group.
type GroupRule struct {
	Class    string
	Instance string
	Role     string
	Group    string
}

// Options configure a Manager.
type Options struct {
	Groups           []string
	Layouts          []Layout
	Floating         Layout
	Gaps             Gaps
	FollowMouseFocus bool
	CursorWarp       bool
	Keys             []KeyBinding
	Mouse            []MouseBinding
	FloatRules       []FloatRule
	GroupRules       []GroupRule
	IgnoreEvents     []string
	// Display is exported to spawned processes.
	Display string
	Logger  *log.Entry
}

// Manager owns the registry, the groups and the screens.
type Manager struct {
	conn Conn
	opts Options
	log  *log.Entry
	root XID

	registry map[XID]*Window
	order    []XID
	groups   []*Group
	screens  []*Screen
	current  *Screen
	active   *Window

	hooks   hooks
	ignore  map[string]bool
	winH    map[string]func(*Window, *Event) Propagation
	rootH   map[string]func(*Manager, *Event) Propagation
	unknown map[string]bool

	bindings

	shutdown bool
	spawn    func(cmd string) (int, error)
}

// New builds a manager. Start must be called before events are dispatched.
func New(conn Conn, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if len(opts.Groups) == 0 {
		opts.Groups = []string{"a"}
	}
	ignored := opts.IgnoreEvents
	if ignored == nil {
		ignored = DefaultIgnoredEvents
	}

	m := &Manager{
		conn:     conn,
		opts:     opts,
		log:      logger,
		root:     conn.Root(),
		registry: make(map[XID]*Window),
		ignore:   make(map[string]bool),
		unknown:  make(map[string]bool),
	}
	for _, name := range ignored {
		m.ignore[name] = true
	}
	m.spawn = m.defaultSpawn
	m.winH = windowHandlers()
	m.rootH = managerHandlers()

	for _, name := range opts.Groups {
		if m.GroupByName(name) == nil {
			m.groups = append(m.groups, newGroup(m, name))
		}
	}
	if len(opts.GroupRules) > 0 {
		m.Subscribe(HookClientNew, m.applyGroupRules)
	}
	return m
}

// Start configures screens, grabs bindings and adopts existing windows.
func (m *Manager) Start() error {
	if err := m.setupScreens(); err != nil {
		return err
	}
	m.refreshModifiers()
	m.registerBindings()
	m.grabBindings()
	if err := m.Scan(); err != nil {
		return err
	}
	m.publishDesktops()
	m.publishClients()
	return nil
}

func (m *Manager) setupScreens() error {
	rects, err := m.conn.Screens()
	if err != nil {
		return fmt.Errorf("enumerating screens: %w", err)
	}
	if len(rects) == 0 {
		return errors.New("no screens reported")
	}
	for i := len(m.groups); i < len(rects); i++ {
		m.groups = append(m.groups, newGroup(m, fmt.Sprintf("%d", i+1)))
	}
	m.screens = nil
	for i, r := range rects {
		m.screens = append(m.screens, &Screen{index: i, m: m, rect: r, gaps: m.opts.Gaps})
	}
	m.current = m.screens[0]
	for i, s := range m.screens {
		s.SetGroup(m.groups[i])
	}
	return nil
}

// Subscribe registers fn for a hook kind.
func (m *Manager) Subscribe(kind HookKind, fn HookFunc) {
	m.hooks.subscribe(kind, fn)
}

// Scan adopts the mapped, non-withdrawn children of the root.
func (m *Manager) Scan() error {
	children, err := m.conn.Children(m.root)
	if err != nil {
		return fmt.Errorf("querying root children: %w", err)
	}
	for _, id := range children {
		attrs, err := m.conn.Attributes(id)
		if err != nil {
			m.log.WithError(err).WithField("window", id).Debug("scan: skipping window")
			continue
		}
		if attrs.MapState == MapStateUnmapped {
			continue
		}
		if raw, err := m.conn.GetProperty(id, "WM_STATE", "WM_STATE"); err == nil && raw != nil {
			if st, err := prop.DecodeWMState(raw); err == nil && st.State == prop.WithdrawnState {
				continue
			}
		}
		m.Manage(id)
	}
	return nil
}

// Manage starts managing id and returns its Window. Already managed ids
// return the existing Window. Override-redirect windows and windows that
// vanish while being probed return nil.
func (m *Manager) Manage(id XID) *Window {
	if w, ok := m.registry[id]; ok {
		return w
	}
	attrs, err := m.conn.Attributes(id)
	if err != nil {
		m.log.WithError(err).WithField("window", id).Debug("manage: attributes failed")
		return nil
	}
	if attrs.OverrideRedirect {
		return nil
	}

	w := newWindow(m, id)
	w.hidden = attrs.MapState != MapStateViewable
	if err := w.init(); err != nil {
		w.log.WithError(err).Debug("manage: window vanished")
		return nil
	}
	m.registry[id] = w
	m.order = append(m.order, id)

	m.hooks.fire(HookEvent{Kind: HookClientNew, Window: w})
	if w.group == nil && m.current != nil && m.current.group != nil {
		m.current.group.Add(w)
	}
	m.hooks.fire(HookEvent{Kind: HookClientManaged, Window: w, Group: w.group})
	m.publishClients()
	w.log.WithField("name", w.name).Debug("managing window")
	return w
}

// Unmanage forgets id. Unknown ids are ignored.
func (m *Manager) Unmanage(id XID) {
	w, ok := m.registry[id]
	if !ok {
		return
	}
	m.hooks.fire(HookEvent{Kind: HookClientKilled, Window: w, Group: w.group})
	if g := w.group; g != nil {
		w.check("unmap", m.conn.Unmap(id))
		w.setWMState(prop.WithdrawnState)
		w.hidden = true
		g.Remove(w)
	}
	delete(m.registry, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.active == w {
		m.active = nil
	}
	m.publishClients()
	w.log.Debug("unmanaged window")
}

// Window returns the managed window with id, or nil.
func (m *Manager) Window(id XID) *Window {
	return m.registry[id]
}

// Windows returns managed windows in the order they were adopted.
func (m *Manager) Windows() []*Window {
	out := make([]*Window, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.registry[id])
	}
	return out
}

// Groups returns the groups in order.
func (m *Manager) Groups() []*Group {
	out := make([]*Group, len(m.groups))
	copy(out, m.groups)
	return out
}

// Screens returns the screens in order.
func (m *Manager) Screens() []*Screen {
	out := make([]*Screen, len(m.screens))
	copy(out, m.screens)
	return out
}

// CurrentScreen returns the focused screen.
func (m *Manager) CurrentScreen() *Screen { return m.current }

// CurrentGroup returns the group on the focused screen.
func (m *Manager) CurrentGroup() *Group {
	if m.current == nil {
		return nil
	}
	return m.current.group
}

// CurrentWindow returns the focused window of the current group.
func (m *Manager) CurrentWindow() *Window {
	if g := m.CurrentGroup(); g != nil {
		return g.current
	}
	return nil
}

// GroupByName looks up a group.
func (m *Manager) GroupByName(name string) *Group {
	for _, g := range m.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}

func (m *Manager) groupIndex(g *Group) int {
	for i, other := range m.groups {
		if other == g {
			return i
		}
	}
	return -1
}

// AddGroup creates an empty group.
func (m *Manager) AddGroup(name string) error {
	if name == "" {
		return commandErrorf("group name must not be empty")
	}
	if m.GroupByName(name) != nil {
		return commandErrorf("group %s already exists", name)
	}
	g := newGroup(m, name)
	m.groups = append(m.groups, g)
	m.hooks.fire(HookEvent{Kind: HookAddGroup, Group: g})
	m.publishDesktops()
	return nil
}

// DelGroup deletes a group, moving its windows to the previous group. A
// group on a screen is first replaced there by a group that is not shown.
func (m *Manager) DelGroup(name string) error {
	g := m.GroupByName(name)
	if g == nil {
		return commandErrorf("no such group: %s", name)
	}
	if len(m.groups) <= len(m.screens) {
		return commandErrorf("cannot delete %s: every remaining group is needed for a screen", name)
	}

	if s := g.screen; s != nil {
		for _, spare := range m.groups {
			if spare != g && spare.screen == nil {
				s.SetGroup(spare)
				break
			}
		}
	}

	idx := m.groupIndex(g)
	target := m.groups[(idx-1+len(m.groups))%len(m.groups)]
	for _, w := range g.Windows() {
		target.Add(w)
		if target.screen == nil {
			w.Hide()
		}
	}
	m.groups = append(m.groups[:idx], m.groups[idx+1:]...)
	// later groups moved down one desktop
	for _, later := range m.groups[idx:] {
		for _, w := range later.windows {
			later.publishDesktop(w)
		}
	}
	m.hooks.fire(HookEvent{Kind: HookDelGroup, Group: g})
	m.publishDesktops()
	return nil
}

// ToScreen focuses screen n.
func (m *Manager) ToScreen(n int) error {
	if n < 0 || n >= len(m.screens) {
		return commandErrorf("no such screen: %d", n)
	}
	s := m.screens[n]
	if s == m.current {
		return nil
	}
	m.current = s
	m.hooks.fire(HookEvent{Kind: HookScreenChange, Screen: s, Group: s.group})
	if s.group != nil {
		s.group.Focus(s.group.current, true)
	}
	m.publishDesktops()
	return nil
}

// FindScreen returns the screen containing the point, or nil.
func (m *Manager) FindScreen(x, y int) *Screen {
	for _, s := range m.screens {
		if s.rect.Contains(x, y) {
			return s
		}
	}
	return nil
}

// FindClosestScreen returns the screen whose centre is nearest the point.
func (m *Manager) FindClosestScreen(x, y int) *Screen {
	var best *Screen
	bestDist := -1
	for _, s := range m.screens {
		cx := s.rect.X + s.rect.Width/2
		cy := s.rect.Y + s.rect.Height/2
		d := (cx-x)*(cx-x) + (cy-y)*(cy-y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

// refreshScreens re-reads screen geometry after the root changed size.
func (m *Manager) refreshScreens() {
	rects, err := m.conn.Screens()
	if err != nil || len(rects) == 0 {
		m.log.WithError(err).Warn("re-reading screens")
		return
	}
	for i, r := range rects {
		if i < len(m.screens) {
			m.screens[i].Resize(r)
			continue
		}
		s := &Screen{index: i, m: m, rect: r, gaps: m.opts.Gaps}
		m.screens = append(m.screens, s)
		for _, g := range m.groups {
			if g.screen == nil {
				s.SetGroup(g)
				break
			}
		}
		if s.group == nil {
			g := newGroup(m, fmt.Sprintf("%d", len(m.groups)+1))
			m.groups = append(m.groups, g)
			s.SetGroup(g)
		}
	}
	for len(m.screens) > len(rects) {
		last := m.screens[len(m.screens)-1]
		m.screens = m.screens[:len(m.screens)-1]
		if last.group != nil {
			last.group.setScreen(nil)
			last.group = nil
		}
		if m.current == last {
			m.current = m.screens[0]
		}
	}
	m.hooks.fire(HookEvent{Kind: HookScreenChange, Screen: m.current})
	m.publishDesktops()
}

func (m *Manager) shouldFloat(w *Window) bool {
	switch w.windowType {
	case "dialog", "utility", "toolbar", "splash":
		return true
	}
	if w.transientFor != 0 || w.hints.FixedSize() {
		return true
	}
	for _, r := range m.opts.FloatRules {
		if w.Match(r.Class, r.Instance, r.Role, r.Title) {
			return true
		}
	}
	return false
}

func (m *Manager) applyGroupRules(ev HookEvent) {
	w := ev.Window
	if w == nil || w.group != nil {
		return
	}
	for _, r := range m.opts.GroupRules {
		if !w.Match(r.Class, r.Instance, r.Role, "") {
			continue
		}
		if g := m.GroupByName(r.Group); g != nil {
			g.Add(w)
			if g.screen == nil {
				w.Hide()
			}
			return
		}
	}
}

func (m *Manager) setActive(w *Window) {
	if m.active == w {
		return
	}
	m.active = w
	m.publishClients()
}

// clearFocus gives the focus back to the root window.
func (m *Manager) clearFocus() {
	if err := m.conn.Focus(m.root); err != nil {
		m.log.WithError(err).Debug("focusing root")
	}
	m.setActive(nil)
}

func (m *Manager) publishDesktops() {
	if len(m.groups) == 0 {
		return
	}
	names := make([]string, len(m.groups))
	for i, g := range m.groups {
		names[i] = g.name
	}
	current := 0
	if g := m.CurrentGroup(); g != nil {
		current = m.groupIndex(g)
	}
	if err := m.conn.PublishDesktops(names, current); err != nil {
		m.log.WithError(err).Debug("publishing desktops")
	}
}

func (m *Manager) publishClients() {
	ids := make([]XID, len(m.order))
	copy(ids, m.order)
	var active XID
	if m.active != nil {
		active = m.active.ID
	}
	if err := m.conn.PublishClients(ids, active); err != nil {
		m.log.WithError(err).Debug("publishing clients")
	}
}

// Shutdown asks the reactor to stop after the current iteration.
func (m *Manager) Shutdown() { m.shutdown = true }

// ShuttingDown reports whether Shutdown was called.
func (m *Manager) ShuttingDown() bool { return m.shutdown }

// Info summarizes the session for the control socket.
func (m *Manager) Info() map[string]any {
	screens := make([]map[string]any, 0, len(m.screens))
	for _, s := range m.screens {
		screens = append(screens, s.Info())
	}
	groups := make([]string, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g.name)
	}
	ids := make([]uint32, 0, len(m.registry))
	for id := range m.registry {
		ids = append(ids, uint32(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	info := map[string]any{
		"screens":        screens,
		"groups":         groups,
		"windows":        ids,
		"current_screen": nil,
	}
	if m.current != nil {
		info["current_screen"] = m.current.index
	}
	return info
}
