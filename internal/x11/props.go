package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/orionwm/orion/internal/prop"
	"github.com/orionwm/orion/internal/wm"
)

// longest property read, in 32-bit units
const maxPropertyLength = 1 << 20

// GetProperty returns the raw bytes of a property, or nil when it is not
// set. An empty typ matches any type.
func (s *Session) GetProperty(win wm.XID, name, typ string) ([]byte, error) {
	nameAtom, err := s.atoms.Intern(name)
	if err != nil {
		return nil, err
	}
	typeAtom := uint32(xproto.GetPropertyTypeAny)
	if typ != "" {
		if typeAtom, err = s.atoms.Intern(typ); err != nil {
			return nil, err
		}
	}
	reply, err := xproto.GetProperty(s.conn, false, xproto.Window(win), xproto.Atom(nameAtom),
		xproto.Atom(typeAtom), 0, maxPropertyLength).Reply()
	if err != nil {
		return nil, windowErr("GetProperty", win, err)
	}
	if reply.Format == 0 {
		return nil, nil
	}
	return reply.Value, nil
}

// SetProperty replaces a property. Built-in properties may leave typ and
// format empty; value is encoded according to the format.
func (s *Session) SetProperty(win wm.XID, name string, value any, typ string, format int) error {
	spec, err := prop.Resolve(name, typ, format)
	if err != nil {
		return err
	}
	data, err := prop.Encode(value, spec.Format)
	if err != nil {
		return err
	}
	nameAtom, err := s.atoms.Intern(name)
	if err != nil {
		return err
	}
	typeAtom, err := s.atoms.Intern(spec.Type)
	if err != nil {
		return err
	}
	count := uint32(len(data) / (spec.Format / 8))
	err = xproto.ChangePropertyChecked(s.conn, xproto.PropModeReplace, xproto.Window(win),
		xproto.Atom(nameAtom), xproto.Atom(typeAtom), byte(spec.Format), count, data).Check()
	return windowErr("ChangeProperty", win, err)
}

// The readers below treat an absent or unreadable hint as unset. A window
// that is gone surfaces on the next request that addresses it.

// WindowName prefers _NET_WM_NAME over WM_NAME.
func (s *Session) WindowName(win wm.XID) (string, error) {
	if name, err := ewmh.WmNameGet(s.xu, xproto.Window(win)); err == nil && name != "" {
		return name, nil
	}
	name, _ := icccm.WmNameGet(s.xu, xproto.Window(win))
	return name, nil
}

func (s *Session) WindowClass(win wm.XID) (string, string, error) {
	class, err := icccm.WmClassGet(s.xu, xproto.Window(win))
	if err != nil || class == nil {
		return "", "", nil
	}
	return class.Instance, class.Class, nil
}

func (s *Session) WindowRole(win wm.XID) (string, error) {
	role, _ := xprop.PropValStr(xprop.GetProperty(s.xu, xproto.Window(win), "WM_WINDOW_ROLE"))
	return role, nil
}

func (s *Session) Protocols(win wm.XID) ([]string, error) {
	protocols, _ := icccm.WmProtocolsGet(s.xu, xproto.Window(win))
	return protocols, nil
}

func (s *Session) TransientFor(win wm.XID) (wm.XID, error) {
	parent, err := icccm.WmTransientForGet(s.xu, xproto.Window(win))
	if err != nil {
		return 0, nil
	}
	return wm.XID(parent), nil
}

// PublishDesktops sets the desktop count, names and the current desktop on
// the root window.
func (s *Session) PublishDesktops(names []string, current int) error {
	if err := ewmh.NumberOfDesktopsSet(s.xu, uint(len(names))); err != nil {
		return err
	}
	if err := ewmh.DesktopNamesSet(s.xu, names); err != nil {
		return err
	}
	if current < 0 {
		current = 0
	}
	return ewmh.CurrentDesktopSet(s.xu, uint(current))
}

// PublishClients sets _NET_CLIENT_LIST and _NET_ACTIVE_WINDOW.
func (s *Session) PublishClients(clients []wm.XID, active wm.XID) error {
	wins := make([]xproto.Window, len(clients))
	for i, c := range clients {
		wins[i] = xproto.Window(c)
	}
	if err := ewmh.ClientListSet(s.xu, wins); err != nil {
		return err
	}
	return ewmh.ActiveWindowSet(s.xu, xproto.Window(active))
}
