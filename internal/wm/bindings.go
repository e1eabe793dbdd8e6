package wm

import "github.com/orionwm/orion/internal/ipc"

const xkNumLock = 0xff7f

// KeyBinding runs Commands when Key (for example "Mod4-Shift-Return") is
// pressed.
type KeyBinding struct {
	Key      string
	Commands []ipc.Request
}

// MouseBinding runs Commands on a button press, or while dragging when
// Drag is set. A drag first runs Start, which must return two integers;
// every motion then runs Commands with those values plus the pointer
// offset appended as arguments.
type MouseBinding struct {
	Button   string
	Drag     bool
	Start    *ipc.Request
	Commands []ipc.Request
}

type keyCombo struct {
	keysym uint32
	mods   uint16
}

type buttonCombo struct {
	button uint8
	mods   uint16
}

type dragState struct {
	binding        MouseBinding
	startX, startY int
	base           [2]int
}

type bindings struct {
	keys        map[keyCombo]KeyBinding
	buttons     map[buttonCombo]MouseBinding
	numlockMask uint16
	validMask   uint16
	drag        *dragState
}

// refreshModifiers recomputes the NumLock mask and the mask of modifiers
// that count when matching a binding.
func (m *Manager) refreshModifiers() {
	m.numlockMask = m.conn.Keymap().MaskFor(xkNumLock)
	m.validMask = ^(m.numlockMask | ModLock | AllButtonsMask)
}

// registerBindings parses the configured bindings. Bindings that fail to
// parse are logged and skipped.
func (m *Manager) registerBindings() {
	m.keys = make(map[keyCombo]KeyBinding)
	m.buttons = make(map[buttonCombo]MouseBinding)
	for _, kb := range m.opts.Keys {
		mods, sym, err := m.conn.ParseKey(kb.Key)
		if err != nil {
			m.log.WithError(err).WithField("key", kb.Key).Warn("skipping key binding")
			continue
		}
		m.keys[keyCombo{keysym: sym, mods: mods}] = kb
	}
	for _, mb := range m.opts.Mouse {
		mods, button, err := m.conn.ParseButton(mb.Button)
		if err != nil {
			m.log.WithError(err).WithField("button", mb.Button).Warn("skipping mouse binding")
			continue
		}
		m.buttons[buttonCombo{button: button, mods: mods}] = mb
	}
}

// lockVariants are the modifier sets a binding is grabbed with so that it
// fires regardless of NumLock and CapsLock.
func (m *Manager) lockVariants(mods uint16) []uint16 {
	out := []uint16{mods, mods | ModLock}
	if m.numlockMask != 0 {
		out = append(out, mods|m.numlockMask, mods|m.numlockMask|ModLock)
	}
	return out
}

// grabBindings (re)grabs every binding with the current keyboard mapping.
func (m *Manager) grabBindings() {
	if err := m.conn.UngrabAllKeys(); err != nil {
		m.log.WithError(err).Warn("ungrabbing keys")
	}
	for combo, kb := range m.keys {
		code, ok := m.conn.Keymap().KeysymToKeycode(combo.keysym)
		if !ok {
			m.log.WithField("key", kb.Key).Debug("key not on this keyboard")
			continue
		}
		for _, mods := range m.lockVariants(combo.mods) {
			if err := m.conn.GrabKey(code, mods); err != nil {
				m.log.WithError(err).WithField("key", kb.Key).Warn("grabbing key")
			}
		}
	}

	if err := m.conn.UngrabAllButtons(m.root); err != nil {
		m.log.WithError(err).Warn("ungrabbing buttons")
	}
	for combo, mb := range m.buttons {
		for _, mods := range m.lockVariants(combo.mods) {
			if err := m.conn.GrabButton(m.root, combo.button, mods); err != nil {
				m.log.WithError(err).WithField("button", mb.Button).Warn("grabbing button")
			}
		}
	}
}

// runAll executes a binding's commands, logging failures.
func (m *Manager) runAll(reqs []ipc.Request, extra ...any) {
	for i := range reqs {
		req := reqs[i]
		if len(extra) > 0 {
			req.Args = append(append([]any(nil), req.Args...), extra...)
		}
		if _, err := m.call(&req); err != nil {
			m.log.WithError(err).WithField("command", req.Name).Warn("binding command failed")
		}
	}
}

func (m *Manager) handleKeyPress(ev *Event) Propagation {
	sym := m.conn.Keymap().KeycodeToKeysym(uint8(ev.Detail), 0)
	kb, ok := m.keys[keyCombo{keysym: sym, mods: ev.State & m.validMask}]
	if !ok {
		m.log.WithField("keysym", sym).Debug("unbound key")
		return Stop
	}
	m.runAll(kb.Commands)
	return Stop
}

func (m *Manager) handleButtonPress(ev *Event) Propagation {
	if w := m.registry[ev.Child]; w != nil && w.group != nil {
		if s := w.group.screen; s != nil && s != m.current {
			m.ToScreen(s.index)
		}
		w.group.Focus(w, false)
	}

	mb, ok := m.buttons[buttonCombo{button: uint8(ev.Detail), mods: ev.State & m.validMask}]
	if !ok {
		return Stop
	}
	if !mb.Drag {
		m.runAll(mb.Commands)
		return Stop
	}

	var base [2]int
	if mb.Start != nil {
		v, err := m.call(mb.Start)
		if err != nil {
			m.log.WithError(err).Debug("drag start")
			return Stop
		}
		pair, ok := v.([]int)
		if !ok || len(pair) != 2 {
			m.log.WithField("command", mb.Start.Name).Warn("drag start did not return a pair")
			return Stop
		}
		base = [2]int{pair[0], pair[1]}
	}
	m.drag = &dragState{binding: mb, startX: ev.RootX, startY: ev.RootY, base: base}
	if err := m.conn.GrabPointer(); err != nil {
		m.log.WithError(err).Warn("grabbing pointer")
		m.drag = nil
	}
	return Stop
}

func (m *Manager) handleMotionNotify(ev *Event) Propagation {
	if m.drag == nil {
		return Stop
	}
	dx := ev.RootX - m.drag.startX
	dy := ev.RootY - m.drag.startY
	m.runAll(m.drag.binding.Commands, m.drag.base[0]+dx, m.drag.base[1]+dy)
	return Stop
}

func (m *Manager) handleButtonRelease(ev *Event) Propagation {
	if m.drag == nil {
		return Stop
	}
	m.drag = nil
	if err := m.conn.UngrabPointer(); err != nil {
		m.log.WithError(err).Warn("ungrabbing pointer")
	}
	return Stop
}

func (m *Manager) handleMappingNotify(ev *Event) Propagation {
	switch ev.Request {
	case MappingKeyboard:
		if err := m.conn.RefreshKeymap(ev.FirstKeycode, ev.Count); err != nil {
			m.log.WithError(err).Warn("refreshing keyboard mapping")
			return Stop
		}
	case MappingModifier:
		if err := m.conn.RefreshModmap(); err != nil {
			m.log.WithError(err).Warn("refreshing modifier mapping")
			return Stop
		}
	default:
		return Stop
	}
	m.refreshModifiers()
	m.grabBindings()
	return Stop
}

// simulateKeypress dispatches a synthetic KeyPress for spec.
func (m *Manager) simulateKeypress(spec string) error {
	mods, sym, err := m.conn.ParseKey(spec)
	if err != nil {
		return commandErrorf("invalid key %q: %v", spec, err)
	}
	code, ok := m.conn.Keymap().KeysymToKeycode(sym)
	if !ok {
		return commandErrorf("key %q is not on this keyboard", spec)
	}
	if _, bound := m.keys[keyCombo{keysym: sym, mods: mods}]; !bound {
		return commandErrorf("no binding for %q", spec)
	}
	m.Dispatch(&Event{
		Name:     EvKeyPress,
		Fields:   HasEvent,
		EventWin: m.root,
		Detail:   uint32(code),
		State:    mods,
	})
	return nil
}
