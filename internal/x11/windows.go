package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/orionwm/orion/internal/wm"
)

func (s *Session) Attributes(win wm.XID) (wm.Attributes, error) {
	reply, err := xproto.GetWindowAttributes(s.conn, xproto.Window(win)).Reply()
	if err != nil {
		return wm.Attributes{}, windowErr("GetWindowAttributes", win, err)
	}
	return wm.Attributes{
		OverrideRedirect: reply.OverrideRedirect,
		MapState:         wm.MapState(reply.MapState),
	}, nil
}

func (s *Session) Geometry(win wm.XID) (wm.Geometry, error) {
	reply, err := xproto.GetGeometry(s.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return wm.Geometry{}, windowErr("GetGeometry", win, err)
	}
	return wm.Geometry{
		X:      int(reply.X),
		Y:      int(reply.Y),
		Width:  int(reply.Width),
		Height: int(reply.Height),
		Border: int(reply.BorderWidth),
	}, nil
}

func (s *Session) Children(win wm.XID) ([]wm.XID, error) {
	reply, err := xproto.QueryTree(s.conn, xproto.Window(win)).Reply()
	if err != nil {
		return nil, windowErr("QueryTree", win, err)
	}
	ids := make([]wm.XID, len(reply.Children))
	for i, c := range reply.Children {
		ids[i] = wm.XID(c)
	}
	return ids, nil
}

// configureValues orders the values of ch by mask bit, as ConfigureWindow
// expects them.
func configureValues(ch wm.WindowChanges) (uint16, []uint32) {
	var values []uint32
	if ch.Mask&wm.ChangeX != 0 {
		values = append(values, uint32(int32(ch.X)))
	}
	if ch.Mask&wm.ChangeY != 0 {
		values = append(values, uint32(int32(ch.Y)))
	}
	if ch.Mask&wm.ChangeWidth != 0 {
		values = append(values, uint32(max(ch.Width, 1)))
	}
	if ch.Mask&wm.ChangeHeight != 0 {
		values = append(values, uint32(max(ch.Height, 1)))
	}
	if ch.Mask&wm.ChangeBorder != 0 {
		values = append(values, uint32(max(ch.Border, 0)))
	}
	if ch.Mask&wm.ChangeSibling != 0 {
		values = append(values, uint32(ch.Sibling))
	}
	if ch.Mask&wm.ChangeStackMode != 0 {
		values = append(values, uint32(ch.StackMode))
	}
	return uint16(ch.Mask), values
}

func (s *Session) Configure(win wm.XID, ch wm.WindowChanges) error {
	mask, values := configureValues(ch)
	if mask == 0 {
		return nil
	}
	err := xproto.ConfigureWindowChecked(s.conn, xproto.Window(win), mask, values).Check()
	return windowErr("ConfigureWindow", win, err)
}

func (s *Session) Map(win wm.XID) error {
	return windowErr("MapWindow", win, xproto.MapWindowChecked(s.conn, xproto.Window(win)).Check())
}

func (s *Session) Unmap(win wm.XID) error {
	return windowErr("UnmapWindow", win, xproto.UnmapWindowChecked(s.conn, xproto.Window(win)).Check())
}

func (s *Session) SetEventMask(win wm.XID, mask uint32) error {
	err := xproto.ChangeWindowAttributesChecked(s.conn, xproto.Window(win), xproto.CwEventMask, []uint32{mask}).Check()
	return windowErr("ChangeWindowAttributes", win, err)
}

func (s *Session) SetBorderColor(win wm.XID, pixel uint32) error {
	err := xproto.ChangeWindowAttributesChecked(s.conn, xproto.Window(win), xproto.CwBorderPixel, []uint32{pixel}).Check()
	return windowErr("ChangeWindowAttributes", win, err)
}

// Focus gives win the input focus. Focusing the root reverts to
// PointerRoot.
func (s *Session) Focus(win wm.XID) error {
	target := xproto.Window(win)
	if win == 0 {
		target = xproto.InputFocusPointerRoot
	}
	err := xproto.SetInputFocusChecked(s.conn, xproto.InputFocusPointerRoot, target, xproto.TimeCurrentTime).Check()
	return windowErr("SetInputFocus", win, err)
}

func (s *Session) WarpPointer(win wm.XID, x, y int) error {
	err := xproto.WarpPointerChecked(s.conn, xproto.WindowNone, xproto.Window(win), 0, 0, 0, 0, int16(x), int16(y)).Check()
	return windowErr("WarpPointer", win, err)
}

func (s *Session) AddToSaveSet(win wm.XID) error {
	err := xproto.ChangeSaveSetChecked(s.conn, xproto.SetModeInsert, xproto.Window(win)).Check()
	return windowErr("ChangeSaveSet", win, err)
}

func (s *Session) Kill(win wm.XID) error {
	return windowErr("KillClient", win, xproto.KillClientChecked(s.conn, uint32(win)).Check())
}

// SendClientMessage sends a 32-bit format client message of type msgType
// to win. Missing data words are zero.
func (s *Session) SendClientMessage(win wm.XID, msgType string, data ...uint32) error {
	typ, err := s.atoms.Intern(msgType)
	if err != nil {
		return err
	}
	words := make([]uint32, 5)
	copy(words, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(win),
		Type:   xproto.Atom(typ),
		Data:   xproto.ClientMessageDataUnionData32New(words),
	}
	err = xproto.SendEventChecked(s.conn, false, xproto.Window(win), xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
	return windowErr("SendEvent", win, err)
}

// SendConfigureNotify sends a synthetic ConfigureNotify carrying g, which
// is what ICCCM clients expect when a configure request is refused.
func (s *Session) SendConfigureNotify(win wm.XID, g wm.Geometry) error {
	ev := xproto.ConfigureNotifyEvent{
		Event:       xproto.Window(win),
		Window:      xproto.Window(win),
		X:           int16(g.X),
		Y:           int16(g.Y),
		Width:       uint16(max(g.Width, 1)),
		Height:      uint16(max(g.Height, 1)),
		BorderWidth: uint16(g.Border),
	}
	err := xproto.SendEventChecked(s.conn, false, xproto.Window(win), xproto.EventMaskStructureNotify, string(ev.Bytes())).Check()
	return windowErr("SendEvent", win, err)
}
