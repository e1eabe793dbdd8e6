package wm

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/orionwm/orion/internal/ipc"
)

// CommandError is a failure the caller caused: an unknown command or
// object, a bad argument, a refused state change. It is reported as an
// ERROR reply rather than an EXCEPTION.
type CommandError struct {
	Msg string
}

func (e *CommandError) Error() string { return e.Msg }

func commandErrorf(format string, args ...any) error {
	return &CommandError{Msg: fmt.Sprintf(format, args...)}
}

var (
	errNoSuchCommand = &CommandError{Msg: "no such command"}
	errNoSuchObject  = &CommandError{Msg: "no such object"}
)

type commandFunc func(a Args) (any, error)

// target is an object reachable through selectors.
type target interface {
	commands() map[string]commandFunc
	child(sel ipc.Selector) (target, bool)
	items(kind string) ([]any, bool)
}

// Execute runs a control request and builds its reply. It never panics.
func (m *Manager) Execute(req *ipc.Request) (resp *ipc.Response) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("command", req.Name).Errorf("command panicked: %v", r)
			resp = ipc.NewExceptionResponse(fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack()))
		}
	}()

	v, err := m.call(req)
	if err != nil {
		var cerr *CommandError
		if errors.As(err, &cerr) {
			return ipc.NewErrorResponse(cerr.Msg)
		}
		m.log.WithError(err).WithField("command", req.Name).Error("command failed")
		return ipc.NewExceptionResponse(fmt.Sprintf("%+v", pkgerrors.WithStack(err)))
	}
	resp, err = ipc.NewSuccessResponse(v)
	if err != nil {
		return ipc.NewExceptionResponse(fmt.Sprintf("%+v", pkgerrors.WithStack(err)))
	}
	return resp
}

// call resolves the selectors of req and runs the command on the target.
func (m *Manager) call(req *ipc.Request) (any, error) {
	var t target = rootTarget{m}
	for _, sel := range req.Selectors {
		next, ok := t.child(sel)
		if !ok {
			return nil, errNoSuchObject
		}
		t = next
	}
	args := Args{pos: req.Args, kw: req.Kwargs}

	switch req.Name {
	case "commands":
		names := []string{"commands", "items"}
		for name := range t.commands() {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	case "items":
		kind, err := args.String(0, "kind")
		if err != nil {
			return nil, err
		}
		keys, ok := t.items(kind)
		if !ok {
			return nil, errNoSuchObject
		}
		return keys, nil
	}

	fn, ok := t.commands()[req.Name]
	if !ok {
		return nil, errNoSuchCommand
	}
	v, err := fn(args)
	if errors.Is(err, ErrInvalidTransition) {
		return nil, &CommandError{Msg: err.Error()}
	}
	return v, err
}

// Args are a command's positional and named arguments. Named arguments
// win over positional ones.
type Args struct {
	pos []any
	kw  map[string]any
}

func (a Args) get(i int, name string) (any, bool) {
	if v, ok := a.kw[name]; ok && v != nil {
		return v, true
	}
	if i >= 0 && i < len(a.pos) && a.pos[i] != nil {
		return a.pos[i], true
	}
	return nil, false
}

// Int returns a required integer argument.
func (a Args) Int(i int, name string) (int, error) {
	v, ok := a.get(i, name)
	if !ok {
		return 0, commandErrorf("missing argument %q", name)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, commandErrorf("argument %q: expected an integer, got %v", name, v)
	}
	return n, nil
}

// IntOr returns an optional integer argument.
func (a Args) IntOr(i int, name string, def int) (int, error) {
	if _, ok := a.get(i, name); !ok {
		return def, nil
	}
	return a.Int(i, name)
}

// String returns a required string argument.
func (a Args) String(i int, name string) (string, error) {
	v, ok := a.get(i, name)
	if !ok {
		return "", commandErrorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", commandErrorf("argument %q: expected a string, got %v", name, v)
	}
	return s, nil
}

// StringOr returns an optional string argument.
func (a Args) StringOr(i int, name, def string) (string, error) {
	if _, ok := a.get(i, name); !ok {
		return def, nil
	}
	return a.String(i, name)
}

// Float returns a required number argument.
func (a Args) Float(i int, name string) (float64, error) {
	v, ok := a.get(i, name)
	if !ok {
		return 0, commandErrorf("missing argument %q", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, commandErrorf("argument %q: expected a number, got %v", name, v)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func keysOf[T any](n int, key func(int) T) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, key(i))
	}
	return out
}

// noArgs adapts an error-only operation.
func noArgs(fn func() error) commandFunc {
	return func(Args) (any, error) { return nil, fn() }
}

// just adapts an operation that cannot fail.
func just(fn func()) commandFunc {
	return func(Args) (any, error) {
		fn()
		return nil, nil
	}
}

// root

type rootTarget struct{ m *Manager }

func (r rootTarget) child(sel ipc.Selector) (target, bool) {
	m := r.m
	switch sel.Kind {
	case ipc.KindScreen:
		if sel.Current() {
			return screenTarget{m.current}, m.current != nil
		}
		if i, ok := sel.Int(); ok && i >= 0 && i < len(m.screens) {
			return screenTarget{m.screens[i]}, true
		}
	case ipc.KindGroup:
		if sel.Current() {
			g := m.CurrentGroup()
			return groupTarget{g}, g != nil
		}
		if name, ok := sel.Name(); ok {
			if g := m.GroupByName(name); g != nil {
				return groupTarget{g}, true
			}
		}
	case ipc.KindWindow:
		if sel.Current() {
			w := m.CurrentWindow()
			return windowTarget{w}, w != nil
		}
		if id, ok := sel.Int(); ok {
			if w := m.registry[XID(id)]; w != nil {
				return windowTarget{w}, true
			}
		}
	case ipc.KindLayout:
		if g := m.CurrentGroup(); g != nil {
			return groupTarget{g}.child(sel)
		}
	case ipc.KindBar:
		if m.current != nil {
			return screenTarget{m.current}.child(sel)
		}
	}
	return nil, false
}

func (r rootTarget) items(kind string) ([]any, bool) {
	m := r.m
	switch kind {
	case ipc.KindScreen:
		return keysOf(len(m.screens), func(i int) int { return i }), true
	case ipc.KindGroup:
		return keysOf(len(m.groups), func(i int) string { return m.groups[i].name }), true
	case ipc.KindWindow:
		return keysOf(len(m.order), func(i int) uint32 { return uint32(m.order[i]) }), true
	case ipc.KindLayout, ipc.KindBar:
		if m.current == nil {
			return nil, false
		}
		return screenTarget{m.current}.items(kind)
	}
	return nil, false
}

func (r rootTarget) commands() map[string]commandFunc {
	m := r.m
	return map[string]commandFunc{
		"status": func(Args) (any, error) { return "OK", nil },
		"info":   func(Args) (any, error) { return m.Info(), nil },
		"groups": func(Args) (any, error) {
			out := make(map[string]any, len(m.groups))
			for _, g := range m.groups {
				out[g.name] = g.Info()
			}
			return out, nil
		},
		"screens": func(Args) (any, error) {
			out := make([]map[string]any, 0, len(m.screens))
			for _, s := range m.screens {
				out = append(out, s.Info())
			}
			return out, nil
		},
		"windows": func(Args) (any, error) {
			out := make([]map[string]any, 0, len(m.order))
			for _, w := range m.Windows() {
				out = append(out, w.Info())
			}
			return out, nil
		},
		"to_screen": func(a Args) (any, error) {
			n, err := a.Int(0, "n")
			if err != nil {
				return nil, err
			}
			return nil, m.ToScreen(n)
		},
		"next_screen": func(Args) (any, error) { return nil, m.cycleScreen(1) },
		"prev_screen": func(Args) (any, error) { return nil, m.cycleScreen(-1) },
		"nextlayout": func(Args) (any, error) {
			if g := m.CurrentGroup(); g != nil {
				g.NextLayout()
			}
			return nil, nil
		},
		"prevlayout": func(Args) (any, error) {
			if g := m.CurrentGroup(); g != nil {
				g.PrevLayout()
			}
			return nil, nil
		},
		"addgroup": func(a Args) (any, error) {
			name, err := a.String(0, "name")
			if err != nil {
				return nil, err
			}
			return nil, m.AddGroup(name)
		},
		"delgroup": func(a Args) (any, error) {
			name, err := a.String(0, "name")
			if err != nil {
				return nil, err
			}
			return nil, m.DelGroup(name)
		},
		"spawn": func(a Args) (any, error) {
			cmd, err := a.String(0, "cmd")
			if err != nil {
				return nil, err
			}
			return m.spawn(cmd)
		},
		"shutdown": just(m.Shutdown),
		"sync":     noArgs(m.conn.Sync),
		"simulate_keypress": func(a Args) (any, error) {
			key, err := a.String(0, "key")
			if err != nil {
				return nil, err
			}
			return nil, m.simulateKeypress(key)
		},
	}
}

func (m *Manager) cycleScreen(step int) error {
	n := len(m.screens)
	if n == 0 || m.current == nil {
		return commandErrorf("no screens")
	}
	return m.ToScreen(((m.current.index+step)%n + n) % n)
}

// screen

type screenTarget struct{ s *Screen }

func (t screenTarget) child(sel ipc.Selector) (target, bool) {
	s := t.s
	switch sel.Kind {
	case ipc.KindGroup:
		if sel.Current() && s.group != nil {
			return groupTarget{s.group}, true
		}
	case ipc.KindWindow, ipc.KindLayout:
		if s.group != nil {
			return groupTarget{s.group}.child(sel)
		}
	case ipc.KindBar:
		if name, ok := sel.Name(); ok {
			if s.hasBar(name) {
				return barTarget{s: s, position: name}, true
			}
		}
	}
	return nil, false
}

func (t screenTarget) items(kind string) ([]any, bool) {
	s := t.s
	switch kind {
	case ipc.KindGroup:
		if s.group == nil {
			return nil, false
		}
		return []any{s.group.name}, true
	case ipc.KindWindow, ipc.KindLayout:
		if s.group == nil {
			return nil, false
		}
		return groupTarget{s.group}.items(kind)
	case ipc.KindBar:
		var out []any
		for _, pos := range barPositions {
			if s.hasBar(pos) {
				out = append(out, pos)
			}
		}
		return out, true
	}
	return nil, false
}

func (t screenTarget) commands() map[string]commandFunc {
	s := t.s
	return map[string]commandFunc{
		"info":       func(Args) (any, error) { return s.Info(), nil },
		"next_group": just(s.NextGroup),
		"prev_group": just(s.PrevGroup),
		"set_group": func(a Args) (any, error) {
			name, err := a.String(0, "name")
			if err != nil {
				return nil, err
			}
			g := s.m.GroupByName(name)
			if g == nil {
				return nil, commandErrorf("no such group: %s", name)
			}
			s.SetGroup(g)
			return nil, nil
		},
		"resize": func(a Args) (any, error) {
			r := s.rect
			var err error
			if r.X, err = a.IntOr(0, "x", r.X); err != nil {
				return nil, err
			}
			if r.Y, err = a.IntOr(1, "y", r.Y); err != nil {
				return nil, err
			}
			if r.Width, err = a.IntOr(2, "w", r.Width); err != nil {
				return nil, err
			}
			if r.Height, err = a.IntOr(3, "h", r.Height); err != nil {
				return nil, err
			}
			if r.Width <= 0 || r.Height <= 0 {
				return nil, commandErrorf("screen size must be positive")
			}
			s.Resize(r)
			return nil, nil
		},
	}
}

// group

type groupTarget struct{ g *Group }

func (t groupTarget) child(sel ipc.Selector) (target, bool) {
	g := t.g
	switch sel.Kind {
	case ipc.KindScreen:
		if sel.Current() && g.screen != nil {
			return screenTarget{g.screen}, true
		}
	case ipc.KindWindow:
		if sel.Current() {
			return windowTarget{g.current}, g.current != nil
		}
		if id, ok := sel.Int(); ok {
			for _, w := range g.windows {
				if w.ID == XID(id) {
					return windowTarget{w}, true
				}
			}
		}
	case ipc.KindLayout:
		if sel.Current() {
			l := g.Layout()
			return layoutTarget{g: g, l: l}, l != nil
		}
		if i, ok := sel.Int(); ok && i >= 0 && i < len(g.layouts) {
			return layoutTarget{g: g, l: g.layouts[i]}, true
		}
	}
	return nil, false
}

func (t groupTarget) items(kind string) ([]any, bool) {
	g := t.g
	switch kind {
	case ipc.KindScreen:
		if g.screen == nil {
			return nil, false
		}
		return []any{g.screen.index}, true
	case ipc.KindWindow:
		return keysOf(len(g.windows), func(i int) uint32 { return uint32(g.windows[i].ID) }), true
	case ipc.KindLayout:
		return keysOf(len(g.layouts), func(i int) int { return i }), true
	}
	return nil, false
}

func (t groupTarget) commands() map[string]commandFunc {
	g := t.g
	m := g.m
	return map[string]commandFunc{
		"info": func(Args) (any, error) { return g.Info(), nil },
		"toscreen": func(a Args) (any, error) {
			cur := 0
			if m.current != nil {
				cur = m.current.index
			}
			n, err := a.IntOr(0, "screen", cur)
			if err != nil {
				return nil, err
			}
			if n < 0 || n >= len(m.screens) {
				return nil, commandErrorf("no such screen: %d", n)
			}
			m.screens[n].SetGroup(g)
			return nil, nil
		},
		"nextgroup": func(Args) (any, error) {
			if g.screen == nil {
				return nil, commandErrorf("group %s is not on a screen", g.name)
			}
			g.screen.NextGroup()
			return nil, nil
		},
		"prevgroup": func(Args) (any, error) {
			if g.screen == nil {
				return nil, commandErrorf("group %s is not on a screen", g.name)
			}
			g.screen.PrevGroup()
			return nil, nil
		},
		"setlayout": func(a Args) (any, error) {
			name, err := a.String(0, "layout")
			if err != nil {
				return nil, err
			}
			return nil, g.SetLayout(name)
		},
		"next_window":    just(g.FocusNext),
		"prev_window":    just(g.FocusPrev),
		"unminimize_all": just(g.UnminimizeAll),
	}
}

// window

type windowTarget struct{ w *Window }

func (t windowTarget) child(sel ipc.Selector) (target, bool) {
	w := t.w
	if !sel.Current() || w.group == nil {
		return nil, false
	}
	switch sel.Kind {
	case ipc.KindGroup:
		return groupTarget{w.group}, true
	case ipc.KindScreen:
		return screenTarget{w.group.screen}, w.group.screen != nil
	case ipc.KindLayout:
		return groupTarget{w.group}.child(sel)
	}
	return nil, false
}

func (t windowTarget) items(kind string) ([]any, bool) {
	w := t.w
	if w.group == nil {
		return nil, false
	}
	switch kind {
	case ipc.KindGroup:
		return []any{w.group.name}, true
	case ipc.KindScreen:
		if w.group.screen == nil {
			return nil, false
		}
		return []any{w.group.screen.index}, true
	}
	return nil, false
}

func (t windowTarget) commands() map[string]commandFunc {
	w := t.w
	intPair := func(fn func(a, b int) error, an, bn string) commandFunc {
		return func(a Args) (any, error) {
			x, err := a.Int(0, an)
			if err != nil {
				return nil, err
			}
			y, err := a.Int(1, bn)
			if err != nil {
				return nil, err
			}
			return nil, fn(x, y)
		}
	}
	return map[string]commandFunc{
		"info":    func(Args) (any, error) { return w.Info(), nil },
		"inspect": func(Args) (any, error) { return w.Inspect(), nil },
		"kill":    noArgs(w.Kill),
		"togroup": func(a Args) (any, error) {
			name, err := a.String(0, "group")
			if err != nil {
				return nil, err
			}
			return nil, w.ToGroup(name)
		},
		"toscreen": func(a Args) (any, error) {
			n, err := a.Int(0, "screen")
			if err != nil {
				return nil, err
			}
			screens := w.m.screens
			if n < 0 || n >= len(screens) || screens[n].group == nil {
				return nil, commandErrorf("no such screen: %d", n)
			}
			return nil, w.ToGroup(screens[n].group.name)
		},
		"focus": func(Args) (any, error) {
			if w.group == nil {
				return nil, commandErrorf("window is not in a group")
			}
			w.group.Focus(w, true)
			return nil, nil
		},
		"bring_to_front":     just(w.BringToFront),
		"enable_floating":    noArgs(w.EnableFloating),
		"disable_floating":   noArgs(w.DisableFloating),
		"toggle_floating":    noArgs(w.ToggleFloating),
		"enable_maximize":    noArgs(w.EnableMaximize),
		"disable_maximize":   noArgs(w.DisableMaximize),
		"toggle_maximize":    noArgs(w.ToggleMaximize),
		"enable_fullscreen":  noArgs(w.EnableFullscreen),
		"disable_fullscreen": noArgs(w.DisableFullscreen),
		"toggle_fullscreen":  noArgs(w.ToggleFullscreen),
		"enable_minimize":    noArgs(w.EnableMinimize),
		"disable_minimize":   noArgs(w.DisableMinimize),
		"toggle_minimize":    noArgs(w.ToggleMinimize),

		"move_floating":         intPair(w.MoveFloating, "dx", "dy"),
		"resize_floating":       intPair(w.ResizeFloating, "dw", "dh"),
		"set_position_floating": intPair(w.SetPositionFloating, "x", "y"),
		"set_size_floating":     intPair(w.SetSizeFloating, "w", "h"),
		"get_position": func(Args) (any, error) {
			return []int{w.x, w.y}, nil
		},
		"get_size": func(Args) (any, error) {
			return []int{w.width, w.height}, nil
		},
		"set_opacity": func(a Args) (any, error) {
			o, err := a.Float(0, "opacity")
			if err != nil {
				return nil, err
			}
			w.SetOpacity(o)
			return nil, nil
		},
		"up_opacity":   just(func() { w.SetOpacity(w.opacity + 0.1) }),
		"down_opacity": just(func() { w.SetOpacity(w.opacity - 0.1) }),
		"match": func(a Args) (any, error) {
			class, _ := a.StringOr(-1, "wm_class", "")
			instance, _ := a.StringOr(-1, "wm_instance", "")
			role, _ := a.StringOr(-1, "role", "")
			title, _ := a.StringOr(-1, "title", "")
			return w.Match(class, instance, role, title), nil
		},
	}
}

// LayoutCommander is implemented by layouts with commands of their own,
// such as growing the master area.
type LayoutCommander interface {
	Commands() []string
	Command(name string) error
}

type layoutTarget struct {
	g *Group
	l Layout
}

func (t layoutTarget) child(sel ipc.Selector) (target, bool) {
	if sel.Kind == ipc.KindGroup && sel.Current() {
		return groupTarget{t.g}, true
	}
	return nil, false
}

func (t layoutTarget) items(kind string) ([]any, bool) {
	if kind == ipc.KindGroup {
		return []any{t.g.name}, true
	}
	return nil, false
}

func (t layoutTarget) commands() map[string]commandFunc {
	cmds := map[string]commandFunc{
		"info": func(Args) (any, error) {
			info := t.l.Info()
			info["group"] = t.g.name
			return info, nil
		},
	}
	lc, ok := t.l.(LayoutCommander)
	if !ok {
		return cmds
	}
	for _, name := range lc.Commands() {
		cmds[name] = func(Args) (any, error) {
			if err := lc.Command(name); err != nil {
				return nil, err
			}
			t.g.layoutAll(false)
			return nil, nil
		}
	}
	return cmds
}

// bar

var barPositions = []string{"top", "bottom", "left", "right"}

func (s *Screen) barSize(position string) (int, bool) { return s.gaps.size(position) }

func (g Gaps) size(position string) (int, bool) {
	switch position {
	case "top":
		return g.Top, true
	case "bottom":
		return g.Bottom, true
	case "left":
		return g.Left, true
	case "right":
		return g.Right, true
	}
	return 0, false
}

// hasBar reports whether a bar exists at position: it has a size now, or
// it was configured with one and later shrunk to zero.
func (s *Screen) hasBar(position string) bool {
	size, ok := s.barSize(position)
	if !ok {
		return false
	}
	configured, _ := s.m.opts.Gaps.size(position)
	return size > 0 || configured > 0
}

func (s *Screen) setBarSize(position string, size int) {
	switch position {
	case "top":
		s.gaps.Top = size
	case "bottom":
		s.gaps.Bottom = size
	case "left":
		s.gaps.Left = size
	case "right":
		s.gaps.Right = size
	}
	if s.group != nil {
		s.group.layoutAll(false)
	}
}

// barTarget is the area reserved for an external bar along one edge.
type barTarget struct {
	s        *Screen
	position string
}

func (t barTarget) child(sel ipc.Selector) (target, bool) {
	if sel.Kind == ipc.KindScreen && sel.Current() {
		return screenTarget{t.s}, true
	}
	return nil, false
}

func (t barTarget) items(kind string) ([]any, bool) {
	if kind == ipc.KindScreen {
		return []any{t.s.index}, true
	}
	return nil, false
}

func (t barTarget) commands() map[string]commandFunc {
	return map[string]commandFunc{
		"info": func(Args) (any, error) {
			size, _ := t.s.barSize(t.position)
			return map[string]any{"position": t.position, "size": size, "screen": t.s.index}, nil
		},
		"set_size": func(a Args) (any, error) {
			size, err := a.Int(0, "size")
			if err != nil {
				return nil, err
			}
			if size < 0 {
				return nil, commandErrorf("bar size must not be negative")
			}
			t.s.setBarSize(t.position, size)
			return nil, nil
		},
	}
}
