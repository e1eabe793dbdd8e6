package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"

	"github.com/orionwm/orion/internal/keymap"
	"github.com/orionwm/orion/internal/wm"
)

func (s *Session) Keymap() *keymap.Map { return s.keys }

// RefreshKeymap re-reads count keycodes starting at first. A zero first
// reloads the server's whole keycode range.
func (s *Session) RefreshKeymap(first uint8, count int) error {
	full := first == 0
	if full {
		setup := s.xu.Setup()
		first = uint8(setup.MinKeycode)
		count = int(setup.MaxKeycode) - int(setup.MinKeycode) + 1
	}
	if count <= 0 {
		return nil
	}
	reply, err := xproto.GetKeyboardMapping(s.conn, xproto.Keycode(first), byte(count)).Reply()
	if err != nil {
		return fmt.Errorf("reading keyboard mapping: %w", err)
	}
	syms := make([]uint32, len(reply.Keysyms))
	for i, sym := range reply.Keysyms {
		syms[i] = uint32(sym)
	}
	table, err := keymap.NewKeyboard(first, count, int(reply.KeysymsPerKeycode), syms)
	if err != nil {
		return err
	}
	if !full && s.keys.Keyboard != nil {
		if table, err = s.keys.Keyboard.Merge(table); err != nil {
			return err
		}
	}
	s.keys = &keymap.Map{Keyboard: table, Modifiers: s.keys.Modifiers}

	if full {
		keybind.KeyMapSet(s.xu, reply)
		return nil
	}
	// keybind only takes complete tables
	setup := s.xu.Setup()
	whole, err := xproto.GetKeyboardMapping(s.conn, setup.MinKeycode, byte(setup.MaxKeycode-setup.MinKeycode+1)).Reply()
	if err != nil {
		return fmt.Errorf("reading keyboard mapping: %w", err)
	}
	keybind.KeyMapSet(s.xu, whole)
	return nil
}

func (s *Session) RefreshModmap() error {
	reply, err := xproto.GetModifierMapping(s.conn).Reply()
	if err != nil {
		return fmt.Errorf("reading modifier mapping: %w", err)
	}
	codes := make([]uint8, len(reply.Keycodes))
	for i, c := range reply.Keycodes {
		codes[i] = uint8(c)
	}
	mods, err := keymap.NewModifiers(int(reply.KeycodesPerModifier), codes)
	if err != nil {
		return err
	}
	s.keys = &keymap.Map{Keyboard: s.keys.Keyboard, Modifiers: mods}
	keybind.ModMapSet(s.xu, reply)
	return nil
}

// ParseKey turns "Mod4-Shift-Return" into a modifier mask and keysym.
func (s *Session) ParseKey(spec string) (uint16, uint32, error) {
	mods, codes, err := keybind.ParseString(s.xu, spec)
	if err != nil {
		return 0, 0, fmt.Errorf("key %q: %w", spec, err)
	}
	sym := s.keys.KeycodeToKeysym(uint8(codes[0]), 0)
	if sym == 0 {
		return 0, 0, fmt.Errorf("key %q has no keysym", spec)
	}
	return mods, sym, nil
}

// ParseButton turns "Mod4-1" into a modifier mask and button.
func (s *Session) ParseButton(spec string) (uint16, uint8, error) {
	mods, button, err := mousebind.ParseString(s.xu, spec)
	if err != nil {
		return 0, 0, fmt.Errorf("button %q: %w", spec, err)
	}
	return mods, uint8(button), nil
}

// GrabKey grabs code with mods on the root window. Grabbing a combination
// twice replaces the first grab.
func (s *Session) GrabKey(code uint8, mods uint16) error {
	g := keyGrab{code, mods}
	if s.keyGrabs.has(g) {
		xproto.UngrabKey(s.conn, xproto.Keycode(code), s.root, mods)
	}
	err := xproto.GrabKeyChecked(s.conn, true, s.root, mods, xproto.Keycode(code),
		xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
	if err != nil {
		return fmt.Errorf("grabbing key %d/%#x: %w", code, mods, err)
	}
	s.keyGrabs.add(g)
	return nil
}

func (s *Session) UngrabAllKeys() error {
	clear(s.keyGrabs)
	err := xproto.UngrabKeyChecked(s.conn, xproto.GrabAny, s.root, xproto.ModMaskAny).Check()
	return windowErr("UngrabKey", wm.XID(s.root), err)
}

const buttonGrabMask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease

// GrabButton grabs button with mods on win. Grabbing a combination twice
// replaces the first grab.
func (s *Session) GrabButton(win wm.XID, button uint8, mods uint16) error {
	g := buttonGrab{win, button, mods}
	if s.buttonGrabs.has(g) {
		xproto.UngrabButton(s.conn, button, xproto.Window(win), mods)
	}
	err := xproto.GrabButtonChecked(s.conn, true, xproto.Window(win), buttonGrabMask,
		xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, xproto.CursorNone,
		button, mods).Check()
	if err != nil {
		return windowErr("GrabButton", win, err)
	}
	s.buttonGrabs.add(g)
	return nil
}

func (s *Session) UngrabAllButtons(win wm.XID) error {
	s.buttonGrabs.drop(func(g buttonGrab) bool { return g.win == win })
	err := xproto.UngrabButtonChecked(s.conn, xproto.ButtonIndexAny, xproto.Window(win), xproto.ModMaskAny).Check()
	return windowErr("UngrabButton", win, err)
}

// GrabPointer routes all pointer events to the root window for a drag.
func (s *Session) GrabPointer() error {
	if s.pointerGrabbed {
		mousebind.UngrabPointer(s.xu)
	}
	ok, err := mousebind.GrabPointer(s.xu, s.root, xproto.WindowNone, xproto.CursorNone)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pointer grab refused")
	}
	s.pointerGrabbed = true
	return nil
}

func (s *Session) UngrabPointer() error {
	mousebind.UngrabPointer(s.xu)
	s.pointerGrabbed = false
	return nil
}
