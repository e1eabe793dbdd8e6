package wm

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/prop"
)

// FloatState is whether a window is tiled, and if not, how it floats.
type FloatState int

const (
	NotFloating FloatState = iota
	Floating
	Maximized
	Fullscreen
	Minimized
)

func (s FloatState) String() string {
	switch s {
	case NotFloating:
		return "not_floating"
	case Floating:
		return "floating"
	case Maximized:
		return "maximized"
	case Fullscreen:
		return "fullscreen"
	case Minimized:
		return "minimized"
	}
	return fmt.Sprintf("FloatState(%d)", int(s))
}

// ErrInvalidTransition is returned for float state changes that are not
// allowed, such as maximizing a minimized window.
var ErrInvalidTransition = errors.New("invalid float state transition")

// floatInfo is the saved floating geometry. X and Y are offsets from the
// origin of the window's screen.
type floatInfo struct {
	X, Y, Width, Height int
}

// Window is a managed client.
type Window struct {
	ID XID

	m     *Manager
	log   *log.Entry
	group *Group

	x, y, width, height, border int
	borderColor                 uint32

	state FloatState
	float floatInfo

	// float still holds root coordinates from before the first Add
	floatAbsolute bool

	hints        prop.Hints
	name         string
	instance     string
	class        string
	role         string
	windowType   string
	transientFor XID
	protocols    []string
	opacity      float64
	hidden       bool
}

func newWindow(m *Manager, id XID) *Window {
	return &Window{
		ID:      id,
		m:       m,
		log:     m.log.WithField("window", fmt.Sprintf("%#x", uint32(id))),
		hints:   prop.DefaultHints(),
		opacity: 1.0,
		hidden:  true,
	}
}

// init reads everything the manager needs about a new client. Any race
// aborts management of the window.
func (w *Window) init() error {
	conn := w.m.conn
	g, err := conn.Geometry(w.ID)
	if err != nil {
		return err
	}
	w.x, w.y, w.width, w.height, w.border = g.X, g.Y, g.Width, g.Height, g.Border
	w.float = floatInfo{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
	w.floatAbsolute = true

	if err := conn.SetEventMask(w.ID, ClientEventMask); err != nil {
		return err
	}
	for _, update := range []func() error{
		w.updateName, w.updateClass, w.updateHints, w.updateWindowType,
		w.updateTransient, w.updateProtocols,
	} {
		if err := update(); err != nil {
			return err
		}
	}
	if err := conn.AddToSaveSet(w.ID); err != nil {
		return err
	}
	return nil
}

// Group returns the window's group, or nil.
func (w *Window) Group() *Group { return w.group }

// Name returns the client's title.
func (w *Window) Name() string { return w.name }

// Class returns the WM_CLASS instance and class.
func (w *Window) Class() (instance, class string) { return w.instance, w.class }

// WindowType returns the short EWMH window type ("normal", "dialog", ...).
func (w *Window) WindowType() string { return w.windowType }

// Hints returns the merged ICCCM hints.
func (w *Window) Hints() prop.Hints { return w.hints }

// State returns the float state.
func (w *Window) State() FloatState { return w.state }

// Floating reports whether the window is outside the tiling layout.
func (w *Window) Floating() bool { return w.state != NotFloating }

// Hidden reports whether the window is unmapped by the manager.
func (w *Window) Hidden() bool { return w.hidden }

// Geometry returns the last placed geometry.
func (w *Window) Geometry() Geometry {
	return Geometry{X: w.x, Y: w.y, Width: w.width, Height: w.height, Border: w.border}
}

// Focused reports whether the window is its group's current window.
func (w *Window) Focused() bool {
	return w.group != nil && w.group.current == w
}

// FloatGeometry returns the saved floating geometry in absolute
// coordinates for the given screen origin.
func (w *Window) FloatGeometry(origin Rect) Rect {
	return Rect{X: origin.X + w.float.X, Y: origin.Y + w.float.Y, Width: w.float.Width, Height: w.float.Height}
}

func (w *Window) screenOrigin() (int, int) {
	if w.group != nil && w.group.screen != nil {
		return w.group.screen.rect.X, w.group.screen.rect.Y
	}
	return 0, 0
}

// Place configures the window. With twice set the window is first moved
// one pixel up so that clients which only report changed geometry still
// see a ConfigureNotify.
func (w *Window) Place(x, y, width, height, border int, color uint32, above, twice bool) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if w.state == Floating {
		ox, oy := w.screenOrigin()
		w.float.X, w.float.Y = x-ox, y-oy
	}
	w.x, w.y, w.width, w.height, w.border = x, y, width, height, border

	ch := WindowChanges{
		Mask:   ChangeX | ChangeY | ChangeWidth | ChangeHeight | ChangeBorder,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Border: border,
	}
	if above {
		ch.Mask |= ChangeStackMode
		ch.StackMode = StackAbove
	}
	if twice {
		first := ch
		first.Y--
		w.check("configure", w.m.conn.Configure(w.ID, first))
	}
	w.check("configure", w.m.conn.Configure(w.ID, ch))

	if color != w.borderColor {
		w.borderColor = color
		w.check("set border", w.m.conn.SetBorderColor(w.ID, color))
	}
}

// Hide unmaps the window without it being taken as the client
// withdrawing, and marks it Iconic.
func (w *Window) Hide() {
	if w.hidden {
		return
	}
	conn := w.m.conn
	w.check("mask", conn.SetEventMask(w.ID, ClientEventMask&^MaskStructureNotify))
	w.check("unmap", conn.Unmap(w.ID))
	w.check("mask", conn.SetEventMask(w.ID, ClientEventMask))
	w.setWMState(prop.IconicState)
	w.hidden = true
}

// Unhide maps the window and marks it Normal.
func (w *Window) Unhide() {
	if !w.hidden {
		return
	}
	w.check("map", w.m.conn.Map(w.ID))
	w.setWMState(prop.NormalState)
	w.hidden = false
}

func (w *Window) setWMState(state uint32) {
	w.check("set WM_STATE", w.m.conn.SetProperty(w.ID, "WM_STATE", prop.WMState{State: state}, "", 0))
}

// Focus gives the window input focus if it accepts it.
func (w *Window) Focus(warp bool) {
	if w.hidden {
		return
	}
	conn := w.m.conn
	if w.hints.Input {
		w.check("focus", conn.Focus(w.ID))
	}
	if w.hasProtocol("WM_TAKE_FOCUS") {
		if take, err := conn.Intern("WM_TAKE_FOCUS"); err == nil {
			w.check("take focus", conn.SendClientMessage(w.ID, "WM_PROTOCOLS", take, 0))
		}
	}
	if warp && w.m.opts.CursorWarp {
		w.check("warp", conn.WarpPointer(w.ID, w.width/2, w.height/2))
	}
	w.m.setActive(w)
}

// Kill asks the client to close, or disconnects it if it does not speak
// WM_DELETE_WINDOW.
func (w *Window) Kill() error {
	conn := w.m.conn
	if w.hasProtocol("WM_DELETE_WINDOW") {
		del, err := conn.Intern("WM_DELETE_WINDOW")
		if err != nil {
			return err
		}
		return conn.SendClientMessage(w.ID, "WM_PROTOCOLS", del, 0)
	}
	return conn.Kill(w.ID)
}

// ToGroup moves the window to the named group.
func (w *Window) ToGroup(name string) error {
	g := w.m.GroupByName(name)
	if g == nil {
		return commandErrorf("no such group: %s", name)
	}
	if g == w.group {
		return nil
	}
	g.Add(w)
	if g.screen == nil {
		w.Hide()
	}
	return nil
}

// BringToFront raises the window in the stack.
func (w *Window) BringToFront() {
	w.check("raise", w.m.conn.Configure(w.ID, WindowChanges{Mask: ChangeStackMode, StackMode: StackAbove}))
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY; o is clamped to [0.1, 1].
func (w *Window) SetOpacity(o float64) {
	if o < 0.1 {
		o = 0.1
	}
	if o > 1 {
		o = 1
	}
	w.opacity = o
	w.check("opacity", w.m.conn.SetProperty(w.ID, "_NET_WM_WINDOW_OPACITY", uint32(o*0xffffffff), "", 0))
}

// Match reports whether every non-empty criterion matches the window.
func (w *Window) Match(class, instance, role, title string) bool {
	if class != "" && !strings.EqualFold(class, w.class) {
		return false
	}
	if instance != "" && !strings.EqualFold(instance, w.instance) {
		return false
	}
	if role != "" && role != w.role {
		return false
	}
	if title != "" && !strings.Contains(w.name, title) {
		return false
	}
	return true
}

func (w *Window) hasProtocol(name string) bool {
	for _, p := range w.protocols {
		if p == name {
			return true
		}
	}
	return false
}

// snapshotFloat saves the current geometry as the floating geometry.
func (w *Window) snapshotFloat() {
	ox, oy := w.screenOrigin()
	w.float = floatInfo{X: w.x - ox, Y: w.y - oy, Width: w.width, Height: w.height}
}

func (w *Window) setState(s FloatState) {
	if w.state == s {
		return
	}
	old := w.state
	w.state = s
	if w.group != nil {
		w.group.floatChanged(w, old)
	}
	w.m.hooks.fire(HookEvent{Kind: HookFloatChange, Window: w, Group: w.group})
}

// EnableFloating takes the window out of the tiling layout.
func (w *Window) EnableFloating() error {
	switch w.state {
	case Floating:
		return nil
	case NotFloating:
		w.snapshotFloat()
	}
	w.setState(Floating)
	return nil
}

// DisableFloating returns the window to the tiling layout with its
// pre-float size. The position is kept from the window's current place.
func (w *Window) DisableFloating() error {
	if w.state == NotFloating {
		return nil
	}
	if w.float.Width > 0 && w.float.Height > 0 {
		w.width, w.height = w.float.Width, w.float.Height
	}
	w.setState(NotFloating)
	return nil
}

// ToggleFloating flips between tiled and floating.
func (w *Window) ToggleFloating() error {
	if w.state == NotFloating {
		return w.EnableFloating()
	}
	return w.DisableFloating()
}

func (w *Window) enterFullMode(s FloatState) error {
	switch w.state {
	case s:
		return nil
	case Minimized:
		return fmt.Errorf("%w: %s while minimized", ErrInvalidTransition, s)
	case NotFloating:
		w.snapshotFloat()
	}
	w.setState(s)
	return nil
}

// EnableMaximize fills the screen's usable area.
func (w *Window) EnableMaximize() error { return w.enterFullMode(Maximized) }

// EnableFullscreen covers the whole screen.
func (w *Window) EnableFullscreen() error { return w.enterFullMode(Fullscreen) }

// DisableMaximize returns a maximized window to its floating geometry.
func (w *Window) DisableMaximize() error {
	if w.state == Maximized {
		w.setState(Floating)
	}
	return nil
}

// DisableFullscreen returns a fullscreen window to its floating geometry.
func (w *Window) DisableFullscreen() error {
	if w.state == Fullscreen {
		w.setState(Floating)
	}
	return nil
}

// ToggleMaximize flips maximized state.
func (w *Window) ToggleMaximize() error {
	if w.state == Maximized {
		return w.DisableMaximize()
	}
	return w.EnableMaximize()
}

// ToggleFullscreen flips fullscreen state.
func (w *Window) ToggleFullscreen() error {
	if w.state == Fullscreen {
		return w.DisableFullscreen()
	}
	return w.EnableFullscreen()
}

// EnableMinimize hides a tiled or floating window.
func (w *Window) EnableMinimize() error {
	switch w.state {
	case Minimized:
		return nil
	case Maximized, Fullscreen:
		return fmt.Errorf("%w: minimize while %s", ErrInvalidTransition, w.state)
	case NotFloating:
		w.snapshotFloat()
	}
	w.setState(Minimized)
	return nil
}

// DisableMinimize restores a minimized window as floating.
func (w *Window) DisableMinimize() error {
	if w.state == Minimized {
		w.setState(Floating)
	}
	return nil
}

// ToggleMinimize flips minimized state.
func (w *Window) ToggleMinimize() error {
	if w.state == Minimized {
		return w.DisableMinimize()
	}
	return w.EnableMinimize()
}

// MoveFloating moves a floating window by dx, dy.
func (w *Window) MoveFloating(dx, dy int) error {
	return w.SetPositionFloating(w.x+dx, w.y+dy)
}

// ResizeFloating grows a floating window by dw, dh.
func (w *Window) ResizeFloating(dw, dh int) error {
	return w.SetSizeFloating(w.width+dw, w.height+dh)
}

// SetPositionFloating puts the window at x, y, floating it first.
func (w *Window) SetPositionFloating(x, y int) error {
	if err := w.floatForTweak(); err != nil {
		return err
	}
	w.Place(x, y, w.width, w.height, w.border, w.borderColor, true, false)
	return nil
}

// SetSizeFloating resizes the window, floating it first.
func (w *Window) SetSizeFloating(width, height int) error {
	if err := w.floatForTweak(); err != nil {
		return err
	}
	w.Place(w.x, w.y, width, height, w.border, w.borderColor, true, false)
	w.float.Width, w.float.Height = w.width, w.height
	return nil
}

func (w *Window) floatForTweak() error {
	switch w.state {
	case Floating:
		return nil
	case Minimized:
		return fmt.Errorf("%w: cannot move a minimized window", ErrInvalidTransition)
	case NotFloating:
		w.snapshotFloat()
	}
	w.setState(Floating)
	return nil
}

func (w *Window) updateName() error {
	name, err := w.m.conn.WindowName(w.ID)
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		w.log.WithError(err).Debug("reading window name")
		return nil
	}
	w.name = name
	return nil
}

func (w *Window) updateClass() error {
	instance, class, err := w.m.conn.WindowClass(w.ID)
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		w.log.WithError(err).Debug("reading WM_CLASS")
	} else {
		w.instance, w.class = instance, class
	}
	role, err := w.m.conn.WindowRole(w.ID)
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		return nil
	}
	w.role = role
	return nil
}

// updateHints re-reads WM_HINTS and WM_NORMAL_HINTS. A malformed property
// is treated as absent.
func (w *Window) updateHints() error {
	conn := w.m.conn
	hints := prop.DefaultHints()

	raw, err := conn.GetProperty(w.ID, "WM_HINTS", "WM_HINTS")
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		w.log.WithError(err).Debug("reading WM_HINTS")
	} else if raw != nil {
		if h, err := prop.DecodeWMHints(raw); err != nil {
			w.log.WithError(err).Debug("ignoring WM_HINTS")
		} else {
			hints.ApplyWMHints(h)
		}
	}

	raw, err = conn.GetProperty(w.ID, "WM_NORMAL_HINTS", "WM_SIZE_HINTS")
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		w.log.WithError(err).Debug("reading WM_NORMAL_HINTS")
	} else if raw != nil {
		if n, err := prop.DecodeWMNormalHints(raw); err != nil {
			w.log.WithError(err).Debug("ignoring WM_NORMAL_HINTS")
		} else {
			hints.ApplyNormalHints(n)
		}
	}

	urgencyChanged := hints.Urgent != w.hints.Urgent
	w.hints = hints
	if urgencyChanged {
		w.m.hooks.fire(HookEvent{Kind: HookUrgentChange, Window: w, Group: w.group})
	}
	return nil
}

func (w *Window) updateWindowType() error {
	conn := w.m.conn
	raw, err := conn.GetProperty(w.ID, "_NET_WM_WINDOW_TYPE", "ATOM")
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		return nil
	}
	w.windowType = "normal"
	atoms, err := prop.DecodeAtoms(raw)
	if err != nil || len(atoms) == 0 {
		return nil
	}
	name, err := conn.AtomName(atoms[0])
	if err != nil {
		return nil
	}
	if short, ok := prop.WindowTypes[name]; ok {
		w.windowType = short
	}
	return nil
}

func (w *Window) updateTransient() error {
	parent, err := w.m.conn.TransientFor(w.ID)
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		return nil
	}
	w.transientFor = parent
	return nil
}

func (w *Window) updateProtocols() error {
	protocols, err := w.m.conn.Protocols(w.ID)
	if err != nil {
		if errors.Is(err, ErrRace) {
			return err
		}
		return nil
	}
	w.protocols = protocols
	return nil
}

// check logs a failed request. Races are expected and logged quietly.
func (w *Window) check(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrRace) {
		w.log.WithError(err).Debugf("%s: window gone", op)
		return
	}
	w.log.WithError(err).Warn(op)
}

// Info describes the window for the control socket.
func (w *Window) Info() map[string]any {
	var group any
	if w.group != nil {
		group = w.group.name
	}
	return map[string]any{
		"id":          uint32(w.ID),
		"name":        w.name,
		"wm_class":    []string{w.instance, w.class},
		"role":        w.role,
		"type":        w.windowType,
		"group":       group,
		"x":           w.x,
		"y":           w.y,
		"width":       w.width,
		"height":      w.height,
		"border":      w.border,
		"floating":    w.Floating(),
		"float_state": w.state.String(),
		"hidden":      w.hidden,
		"urgent":      w.hints.Urgent,
		"opacity":     w.opacity,
		"focused":     w.Focused(),
	}
}

// Inspect returns the raw client state, including hints.
func (w *Window) Inspect() map[string]any {
	info := w.Info()
	info["hints"] = w.hints
	info["protocols"] = w.protocols
	info["transient_for"] = uint32(w.transientFor)
	info["float_info"] = map[string]int{
		"x": w.float.X, "y": w.float.Y, "width": w.float.Width, "height": w.float.Height,
	}
	return info
}
