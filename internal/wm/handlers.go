package wm

// Dispatch routes one event: the ignore set first, then the handler of
// the managed window the event targets, then the manager's own handler.
// A handler returning Stop ends the chain.
func (m *Manager) Dispatch(ev *Event) {
	if m.ignore[ev.Name] {
		return
	}
	logger := m.log.WithField("event", ev.Name)

	handled := false
	if id, ok := ev.targetID(); ok {
		if w := m.registry[id]; w != nil {
			if h, ok := m.winH[ev.Name]; ok {
				handled = true
				if h(w, ev) == Stop {
					return
				}
			}
		}
	}
	if h, ok := m.rootH[ev.Name]; ok {
		h(m, ev)
		return
	}
	if !handled && !m.unknown[ev.Name] {
		m.unknown[ev.Name] = true
		logger.Debug("no handler for event")
	}
}

func windowHandlers() map[string]func(*Window, *Event) Propagation {
	return map[string]func(*Window, *Event) Propagation{
		EvEnterNotify:      (*Window).handleEnterNotify,
		EvConfigureRequest: (*Window).handleConfigureRequest,
		EvPropertyNotify:   (*Window).handlePropertyNotify,
		EvClientMessage:    (*Window).handleClientMessage,
	}
}

func managerHandlers() map[string]func(*Manager, *Event) Propagation {
	return map[string]func(*Manager, *Event) Propagation{
		EvKeyPress:         (*Manager).handleKeyPress,
		EvButtonPress:      (*Manager).handleButtonPress,
		EvButtonRelease:    (*Manager).handleButtonRelease,
		EvMotionNotify:     (*Manager).handleMotionNotify,
		EvConfigureNotify:  (*Manager).handleConfigureNotify,
		EvConfigureRequest: (*Manager).handleConfigureRequest,
		EvMapRequest:       (*Manager).handleMapRequest,
		EvDestroyNotify:    (*Manager).handleDestroyNotify,
		EvUnmapNotify:      (*Manager).handleUnmapNotify,
		EvEnterNotify:      (*Manager).handleEnterNotify,
		EvClientMessage:    (*Manager).handleClientMessage,
		EvMappingNotify:    (*Manager).handleMappingNotify,
	}
}

// Window handlers.

func (w *Window) handleEnterNotify(ev *Event) Propagation {
	// grab and ungrab crossings are not pointer movement
	if ev.Mode != 0 {
		return Stop
	}
	if !w.m.opts.FollowMouseFocus || w.group == nil {
		return Continue
	}
	if s := w.group.screen; s != nil && s != w.m.current {
		w.m.ToScreen(s.index)
	}
	if w.group.current != w {
		w.group.Focus(w, false)
	}
	return Stop
}

// handleConfigureRequest lets floating windows move and resize themselves.
// Tiled windows are put back where the layout wants them.
func (w *Window) handleConfigureRequest(ev *Event) Propagation {
	if w.group == nil || w.group.screen == nil {
		// nothing to place against; answer with the current geometry
		w.check("configure notify", w.m.conn.SendConfigureNotify(w.ID, w.Geometry()))
		return Stop
	}
	if w.state == Floating {
		x, y, width, height := w.x, w.y, w.width, w.height
		if ev.ValueMask&ChangeX != 0 {
			x = ev.X
		}
		if ev.ValueMask&ChangeY != 0 {
			y = ev.Y
		}
		if ev.ValueMask&ChangeWidth != 0 {
			width = ev.Width
		}
		if ev.ValueMask&ChangeHeight != 0 {
			height = ev.Height
		}
		w.Place(x, y, width, height, w.border, w.borderColor, true, false)
		w.float.Width, w.float.Height = w.width, w.height
		return Stop
	}
	w.Place(w.x, w.y, w.width, w.height, w.border, w.borderColor, false, true)
	return Stop
}

func (w *Window) handlePropertyNotify(ev *Event) Propagation {
	name, err := w.m.conn.AtomName(ev.Atom)
	if err != nil {
		w.log.WithError(err).Debug("property notify for unknown atom")
		return Stop
	}
	var update func() error
	switch name {
	case "WM_NAME", "_NET_WM_NAME":
		update = w.updateName
	case "WM_CLASS", "WM_WINDOW_ROLE":
		update = w.updateClass
	case "WM_HINTS", "WM_NORMAL_HINTS":
		update = w.updateHints
	case "_NET_WM_WINDOW_TYPE":
		update = w.updateWindowType
	case "WM_TRANSIENT_FOR":
		update = w.updateTransient
	case "WM_PROTOCOLS":
		update = w.updateProtocols
	case "_NET_WM_USER_TIME", "_NET_WM_STATE", "WM_STATE":
		return Stop
	default:
		w.log.WithField("property", name).Debug("ignoring property change")
		return Stop
	}
	if err := update(); err != nil {
		w.check("property "+name, err)
	}
	return Stop
}

const (
	netWMStateRemove = 0
	netWMStateAdd    = 1
	netWMStateToggle = 2
)

func (w *Window) handleClientMessage(ev *Event) Propagation {
	conn := w.m.conn
	msg, err := conn.AtomName(ev.MessageType)
	if err != nil {
		return Stop
	}
	switch msg {
	case "_NET_WM_STATE":
		fullscreen, err := conn.Intern("_NET_WM_STATE_FULLSCREEN")
		if err != nil {
			return Stop
		}
		if ev.Data[1] != fullscreen && ev.Data[2] != fullscreen {
			return Stop
		}
		switch ev.Data[0] {
		case netWMStateRemove:
			err = w.DisableFullscreen()
		case netWMStateAdd:
			err = w.EnableFullscreen()
		case netWMStateToggle:
			err = w.ToggleFullscreen()
		}
		if err != nil {
			w.log.WithError(err).Debug("_NET_WM_STATE request refused")
			return Stop
		}
		w.publishNetState(fullscreen)
	case "_NET_ACTIVE_WINDOW":
		if w.group == nil {
			return Stop
		}
		if s := w.group.screen; s != nil {
			w.m.ToScreen(s.index)
		} else if cur := w.m.current; cur != nil {
			cur.SetGroup(w.group)
		}
		if w.state == Minimized {
			w.DisableMinimize()
		}
		w.group.Focus(w, true)
		w.BringToFront()
	default:
		return Continue
	}
	return Stop
}

func (w *Window) publishNetState(fullscreen uint32) {
	var atoms []uint32
	if w.state == Fullscreen {
		atoms = append(atoms, fullscreen)
	}
	w.check("set _NET_WM_STATE", w.m.conn.SetProperty(w.ID, "_NET_WM_STATE", atoms, "", 0))
}

// Manager handlers.

func (m *Manager) handleConfigureNotify(ev *Event) Propagation {
	if ev.EventWin == m.root && ev.Window == m.root {
		m.refreshScreens()
	}
	return Stop
}

// handleConfigureRequest grants unmanaged windows what they ask for, but
// keeps them on the visible area.
func (m *Manager) handleConfigureRequest(ev *Event) Propagation {
	if m.registry[ev.Window] != nil {
		return Stop
	}
	ch := WindowChanges{
		Mask:      ev.ValueMask,
		X:         max(ev.X, 0),
		Y:         max(ev.Y, 0),
		Width:     ev.Width,
		Height:    ev.Height,
		Border:    ev.Border,
		Sibling:   ev.Sibling,
		StackMode: ev.StackMode,
	}
	if err := m.conn.Configure(ev.Window, ch); err != nil {
		m.log.WithError(err).WithField("window", ev.Window).Debug("configuring unmanaged window")
	}
	return Stop
}

func (m *Manager) handleMapRequest(ev *Event) Propagation {
	w := m.registry[ev.Window]
	if w == nil {
		w = m.Manage(ev.Window)
		if w == nil {
			return Stop
		}
	}
	// windows of groups that are not shown stay hidden until the group is
	if w.group == nil || w.group.screen == nil {
		return Stop
	}
	if w.state == Minimized {
		w.DisableMinimize()
	}
	w.group.Focus(w, false)
	return Stop
}

func (m *Manager) handleDestroyNotify(ev *Event) Propagation {
	m.Unmanage(ev.Window)
	return Stop
}

func (m *Manager) handleUnmapNotify(ev *Event) Propagation {
	if ev.EventWin == m.root {
		return Stop
	}
	// Hide masks StructureNotify, so an unmap seen here came from the client
	m.Unmanage(ev.Window)
	return Stop
}

// handleEnterNotify moves the current screen along with the pointer when
// it crosses into an empty area.
func (m *Manager) handleEnterNotify(ev *Event) Propagation {
	if m.registry[ev.EventWin] != nil {
		return Stop
	}
	s := m.FindScreen(ev.RootX, ev.RootY)
	if s != nil && s != m.current {
		m.ToScreen(s.index)
	}
	return Stop
}

func (m *Manager) handleClientMessage(ev *Event) Propagation {
	msg, err := m.conn.AtomName(ev.MessageType)
	if err != nil || msg != "_NET_CURRENT_DESKTOP" {
		return Stop
	}
	idx := int(ev.Data[0])
	if idx < 0 || idx >= len(m.groups) || m.current == nil {
		return Stop
	}
	m.current.SetGroup(m.groups[idx])
	return Stop
}
