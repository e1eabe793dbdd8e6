package wm

// Event names the dispatcher recognizes.
const (
	EvKeyPress         = "KeyPress"
	EvKeyRelease       = "KeyRelease"
	EvEnterNotify      = "EnterNotify"
	EvButtonPress      = "ButtonPress"
	EvButtonRelease    = "ButtonRelease"
	EvMotionNotify     = "MotionNotify"
	EvConfigureNotify  = "ConfigureNotify"
	EvConfigureRequest = "ConfigureRequest"
	EvMapRequest       = "MapRequest"
	EvDestroyNotify    = "DestroyNotify"
	EvUnmapNotify      = "UnmapNotify"
	EvPropertyNotify   = "PropertyNotify"
	EvClientMessage    = "ClientMessage"
	EvMappingNotify    = "MappingNotify"
)

// DefaultIgnoredEvents are dropped before target resolution.
var DefaultIgnoredEvents = []string{
	EvKeyRelease,
	"ReparentNotify",
	"CreateNotify",
	"MapNotify",
	"LeaveNotify",
	"FocusOut",
	"FocusIn",
	"NoExposure",
}

// Field marks which window-valued fields an event carries.
type Field uint8

const (
	HasWindow Field = 1 << iota
	HasDrawable
	HasEvent
)

// MappingNotify request kinds.
const (
	MappingModifier uint8 = 0
	MappingKeyboard uint8 = 1
	MappingPointer  uint8 = 2
)

// Event is a decoded protocol event. Only the fields that apply to Name
// are set.
type Event struct {
	Name   string
	Fields Field

	Window   XID
	Drawable XID
	EventWin XID
	Child    XID

	Detail uint32
	State  uint16
	Mode   uint8
	RootX  int
	RootY  int

	ValueMask ChangeMask
	X, Y      int
	Width     int
	Height    int
	Border    int
	Sibling   XID
	StackMode uint8

	Atom        uint32
	MessageType uint32
	Data        [5]uint32

	Request      uint8
	FirstKeycode uint8
	Count        int

	FromConfigure bool
}

// Propagation is returned by handlers to continue or stop the chain.
type Propagation bool

const (
	Continue Propagation = true
	Stop     Propagation = false
)

// pointer and key events fall back to the event window for targeting
var eventFieldTargets = map[string]bool{
	EvEnterNotify:   true,
	EvButtonPress:   true,
	EvButtonRelease: true,
	EvKeyPress:      true,
	EvKeyRelease:    true,
	EvMotionNotify:  true,
}

// targetID picks the window id an event is about: window, then drawable,
// then for pointer/key events the event window. The first field present
// wins, whether or not it names a managed window.
func (ev *Event) targetID() (XID, bool) {
	switch {
	case ev.Fields&HasWindow != 0:
		return ev.Window, true
	case ev.Fields&HasDrawable != 0:
		return ev.Drawable, true
	case ev.Fields&HasEvent != 0 && eventFieldTargets[ev.Name]:
		return ev.EventWin, true
	}
	return 0, false
}
