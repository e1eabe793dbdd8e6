// Package keymap holds the keycode/keysym and modifier tables the window
// manager uses to translate key events and grab bindings.
package keymap

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDecode is returned when a mapping reply does not have the shape the
// protocol promises.
var ErrDecode = errors.New("keymap decode error")

// Modifier names in the order the server reports them.
var ModifierNames = []string{"shift", "lock", "control", "mod1", "mod2", "mod3", "mod4", "mod5"}

// ModMask returns the modifier mask for a modifier name, or 0 when the name
// is unknown.
func ModMask(name string) uint16 {
	for i, n := range ModifierNames {
		if n == name {
			return 1 << uint(i)
		}
	}
	return 0
}

// Keyboard is an immutable keycode <-> keysym table.
type Keyboard struct {
	first      uint8
	perKeycode int
	codeToSyms map[uint8][]uint32
	symToCode  map[uint32]uint8
}

// NewKeyboard builds a table from a keyboard mapping reply covering
// keycodes first..first+count-1.
func NewKeyboard(first uint8, count int, perKeycode int, keysyms []uint32) (*Keyboard, error) {
	if perKeycode <= 0 {
		return nil, fmt.Errorf("%w: %d keysyms per keycode", ErrDecode, perKeycode)
	}
	if len(keysyms) != count*perKeycode {
		return nil, fmt.Errorf("%w: %d keysyms for %d keycodes x %d", ErrDecode, len(keysyms), count, perKeycode)
	}

	k := &Keyboard{
		first:      first,
		perKeycode: perKeycode,
		codeToSyms: make(map[uint8][]uint32, count),
		symToCode:  make(map[uint32]uint8),
	}
	for i := 0; i < count; i++ {
		code := uint8(int(first) + i)
		syms := make([]uint32, perKeycode)
		copy(syms, keysyms[i*perKeycode:(i+1)*perKeycode])
		k.codeToSyms[code] = syms
		for _, sym := range syms {
			if sym == 0 {
				continue
			}
			// lowest keycode wins
			if _, ok := k.symToCode[sym]; !ok {
				k.symToCode[sym] = code
			}
		}
	}
	return k, nil
}

// Merge returns a new table where the keycodes of update replace those of
// k. The receiver is left untouched.
func (k *Keyboard) Merge(update *Keyboard) (*Keyboard, error) {
	if k == nil {
		return update, nil
	}
	if update.perKeycode != k.perKeycode {
		return nil, fmt.Errorf("%w: keysyms per keycode changed from %d to %d", ErrDecode, k.perKeycode, update.perKeycode)
	}

	codes := make([]int, 0, len(k.codeToSyms)+len(update.codeToSyms))
	table := make(map[uint8][]uint32, len(k.codeToSyms))
	for code, syms := range k.codeToSyms {
		table[code] = syms
	}
	for code, syms := range update.codeToSyms {
		table[code] = syms
	}
	for code := range table {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)

	first := uint8(codes[0])
	count := codes[len(codes)-1] - codes[0] + 1
	flat := make([]uint32, 0, count*k.perKeycode)
	for c := codes[0]; c <= codes[len(codes)-1]; c++ {
		syms, ok := table[uint8(c)]
		if !ok {
			syms = make([]uint32, k.perKeycode)
		}
		flat = append(flat, syms...)
	}
	return NewKeyboard(first, count, k.perKeycode, flat)
}

// PerKeycode is the fixed number of keysyms stored for every keycode.
func (k *Keyboard) PerKeycode() int { return k.perKeycode }

// Keysyms returns the keysym list of a keycode.
func (k *Keyboard) Keysyms(code uint8) []uint32 {
	return k.codeToSyms[code]
}

// Keysym returns the keysym at column col of a keycode, or 0.
func (k *Keyboard) Keysym(code uint8, col int) uint32 {
	syms := k.codeToSyms[code]
	if col < 0 || col >= len(syms) {
		return 0
	}
	return syms[col]
}

// Keycode returns the first keycode producing keysym.
func (k *Keyboard) Keycode(keysym uint32) (uint8, bool) {
	code, ok := k.symToCode[keysym]
	return code, ok
}

// Modifiers maps modifier names to the keycodes bound to them.
type Modifiers struct {
	byName map[string][]uint8
}

// NewModifiers builds the table from a modifier mapping reply: eight
// groups of perModifier keycodes, in ModifierNames order. Zero keycodes
// are unused slots.
func NewModifiers(perModifier int, keycodes []uint8) (*Modifiers, error) {
	if len(keycodes) != perModifier*len(ModifierNames) {
		return nil, fmt.Errorf("%w: %d modifier keycodes for %d per modifier", ErrDecode, len(keycodes), perModifier)
	}
	m := &Modifiers{byName: make(map[string][]uint8, len(ModifierNames))}
	for i, name := range ModifierNames {
		var codes []uint8
		for _, code := range keycodes[i*perModifier : (i+1)*perModifier] {
			if code != 0 {
				codes = append(codes, code)
			}
		}
		m.byName[name] = codes
	}
	return m, nil
}

// Keycodes returns the keycodes bound to a modifier.
func (m *Modifiers) Keycodes(name string) []uint8 {
	if m == nil {
		return nil
	}
	return m.byName[name]
}

// ModifierOf returns the modifier a keycode is bound to.
func (m *Modifiers) ModifierOf(code uint8) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, name := range ModifierNames {
		for _, c := range m.byName[name] {
			if c == code {
				return name, true
			}
		}
	}
	return "", false
}

// Map combines the two tables. A refresh swaps one of them wholesale.
type Map struct {
	Keyboard  *Keyboard
	Modifiers *Modifiers
}

// KeysymToKeycode resolves a keysym through the keyboard table.
func (m *Map) KeysymToKeycode(keysym uint32) (uint8, bool) {
	if m == nil || m.Keyboard == nil {
		return 0, false
	}
	return m.Keyboard.Keycode(keysym)
}

// KeycodeToKeysym resolves column col of a keycode.
func (m *Map) KeycodeToKeysym(code uint8, col int) uint32 {
	if m == nil || m.Keyboard == nil {
		return 0
	}
	return m.Keyboard.Keysym(code, col)
}

// MaskFor returns the modifier mask of the modifier a keysym's keycode is
// bound to, e.g. the NumLock mask. Zero when unbound.
func (m *Map) MaskFor(keysym uint32) uint16 {
	code, ok := m.KeysymToKeycode(keysym)
	if !ok || m.Modifiers == nil {
		return 0
	}
	name, ok := m.Modifiers.ModifierOf(code)
	if !ok {
		return 0
	}
	return ModMask(name)
}
