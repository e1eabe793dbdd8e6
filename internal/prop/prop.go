// Package prop encodes and decodes the fixed binary layouts of the ICCCM and
// EWMH window properties the window manager reads and writes. Nothing in
// here performs I/O; callers hand in the raw property bytes as returned by
// the server.
package prop

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMalformedProperty is returned when a property buffer does not have
	// the length its layout requires. Callers treat the property as absent.
	ErrMalformedProperty = errors.New("malformed property")

	// ErrInvalidProperty is returned when a property cannot be written
	// because its type or format is unknown or contradicts the built-in
	// table.
	ErrInvalidProperty = errors.New("invalid property")
)

// Spec is the wire type and format of a property.
type Spec struct {
	Type   string
	Format int
}

var builtin = map[string]Spec{
	// EWMH
	"_NET_DESKTOP_GEOMETRY":     {"CARDINAL", 32},
	"_NET_SUPPORTED":            {"ATOM", 32},
	"_NET_SUPPORTING_WM_CHECK":  {"WINDOW", 32},
	"_NET_WM_NAME":              {"UTF8_STRING", 8},
	"_NET_WM_PID":               {"CARDINAL", 32},
	"_NET_CLIENT_LIST":          {"WINDOW", 32},
	"_NET_CLIENT_LIST_STACKING": {"WINDOW", 32},
	"_NET_NUMBER_OF_DESKTOPS":   {"CARDINAL", 32},
	"_NET_CURRENT_DESKTOP":      {"CARDINAL", 32},
	"_NET_DESKTOP_NAMES":        {"UTF8_STRING", 8},
	"_NET_WORKAREA":             {"CARDINAL", 32},
	"_NET_ACTIVE_WINDOW":        {"WINDOW", 32},
	"_NET_WM_STATE":             {"ATOM", 32},
	"_NET_WM_DESKTOP":           {"CARDINAL", 32},
	"_NET_WM_STRUT_PARTIAL":     {"CARDINAL", 32},
	"_NET_WM_WINDOW_OPACITY":    {"CARDINAL", 32},
	"_NET_WM_WINDOW_TYPE":       {"CARDINAL", 32},
	// ICCCM
	"WM_STATE": {"WM_STATE", 32},
	// orion
	"_ORION_INTERNAL": {"CARDINAL", 32},
}

// Lookup returns the built-in type and format for a property name.
func Lookup(name string) (Spec, bool) {
	s, ok := builtin[name]
	return s, ok
}

// Resolve picks the type and format to write a property with. Built-in
// properties may omit both (typ == "" and format == 0) or repeat the
// built-in values; anything else must supply both explicitly.
func Resolve(name, typ string, format int) (Spec, error) {
	if s, ok := builtin[name]; ok {
		if typ == "" && format == 0 {
			return s, nil
		}
		if typ == s.Type && format == s.Format {
			return s, nil
		}
		return Spec{}, fmt.Errorf("%w: %s is %s/%d, got %s/%d", ErrInvalidProperty, name, s.Type, s.Format, typ, format)
	}
	if typ == "" || format == 0 {
		return Spec{}, fmt.Errorf("%w: %s needs an explicit type and format", ErrInvalidProperty, name)
	}
	if !validFormat(format) {
		return Spec{}, fmt.Errorf("%w: %s has format %d", ErrInvalidProperty, name, format)
	}
	return Spec{Type: typ, Format: format}, nil
}

func validFormat(format int) bool {
	return format == 8 || format == 16 || format == 32
}

// WindowTypes maps _NET_WM_WINDOW_TYPE atom names to short type names.
var WindowTypes = map[string]string{
	"_NET_WM_WINDOW_TYPE_DESKTOP":       "desktop",
	"_NET_WM_WINDOW_TYPE_DOCK":          "dock",
	"_NET_WM_WINDOW_TYPE_TOOLBAR":       "toolbar",
	"_NET_WM_WINDOW_TYPE_MENU":          "menu",
	"_NET_WM_WINDOW_TYPE_UTILITY":       "utility",
	"_NET_WM_WINDOW_TYPE_SPLASH":        "splash",
	"_NET_WM_WINDOW_TYPE_DIALOG":        "dialog",
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": "dropdown",
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    "menu",
	"_NET_WM_WINDOW_TYPE_TOOLTIP":       "tooltip",
	"_NET_WM_WINDOW_TYPE_NOTIFICATION":  "notification",
	"_NET_WM_WINDOW_TYPE_COMBO":         "combo",
	"_NET_WM_WINDOW_TYPE_DND":           "dnd",
	"_NET_WM_WINDOW_TYPE_NORMAL":        "normal",
}

// Atoms warmed into the atom cache when a session starts.
var PreloadAtoms = []string{
	"UTF8_STRING",
	"WM_STATE",
	"WM_PROTOCOLS",
	"WM_DELETE_WINDOW",
	"WM_TAKE_FOCUS",
	"WM_WINDOW_ROLE",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_DEMANDS_ATTENTION",
	"_NET_WM_WINDOW_TYPE",
	"_NET_ACTIVE_WINDOW",
	"_NET_CURRENT_DESKTOP",
	"_NET_WM_USER_TIME",
}

func init() {
	names := make([]string, 0, len(WindowTypes))
	for name := range WindowTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	PreloadAtoms = append(PreloadAtoms, names...)
}
