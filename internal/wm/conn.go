package wm

import (
	"errors"

	"github.com/orionwm/orion/internal/keymap"
)

// XID identifies a window on the server.
type XID uint32

// ErrRace wraps server errors (BadWindow, BadDrawable, BadAccess, BadMatch)
// caused by a window that went away between being observed and being
// queried. The operation is abandoned for that window only.
var ErrRace = errors.New("window vanished")

// Rect is a rectangle in root coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Geometry is a window's position, size and border width.
type Geometry struct {
	X, Y, Width, Height, Border int
}

// MapState values as reported by GetWindowAttributes.
type MapState uint8

const (
	MapStateUnmapped MapState = iota
	MapStateUnviewable
	MapStateViewable
)

// Attributes is the subset of window attributes the manager inspects.
type Attributes struct {
	OverrideRedirect bool
	MapState         MapState
}

// ChangeMask selects the fields of WindowChanges to apply. Bit values match
// the core protocol's ConfigureWindow value mask.
type ChangeMask uint16

const (
	ChangeX ChangeMask = 1 << iota
	ChangeY
	ChangeWidth
	ChangeHeight
	ChangeBorder
	ChangeSibling
	ChangeStackMode
)

// Stack modes.
const (
	StackAbove uint8 = 0
	StackBelow uint8 = 1
)

// WindowChanges is a ConfigureWindow request.
type WindowChanges struct {
	Mask      ChangeMask
	X, Y      int
	Width     int
	Height    int
	Border    int
	Sibling   XID
	StackMode uint8
}

// Event masks, with core protocol values.
const (
	MaskKeyPress             uint32 = 1 << 0
	MaskButtonPress          uint32 = 1 << 2
	MaskButtonRelease        uint32 = 1 << 3
	MaskEnterWindow          uint32 = 1 << 4
	MaskLeaveWindow          uint32 = 1 << 5
	MaskPointerMotion        uint32 = 1 << 6
	MaskButtonMotion         uint32 = 1 << 13
	MaskStructureNotify      uint32 = 1 << 17
	MaskSubstructureNotify   uint32 = 1 << 19
	MaskSubstructureRedirect uint32 = 1 << 20
	MaskFocusChange          uint32 = 1 << 21
	MaskPropertyChange       uint32 = 1 << 22
)

// RootEventMask is selected on the root window when taking over as the
// window manager.
const RootEventMask = MaskSubstructureNotify | MaskSubstructureRedirect |
	MaskEnterWindow | MaskLeaveWindow | MaskStructureNotify | MaskPropertyChange

// ClientEventMask is selected on every managed window.
const ClientEventMask = MaskStructureNotify | MaskPropertyChange | MaskEnterWindow | MaskFocusChange

// Modifier masks used for binding lookups.
const (
	ModLock        uint16 = 1 << 1
	AllButtonsMask uint16 = 0x1f << 8
)

// Conn is the set of protocol operations the window graph is built on.
// The x11 package provides the implementation; every per-window method
// reports a vanished window as ErrRace.
type Conn interface {
	Root() XID
	Screens() ([]Rect, error)

	Attributes(win XID) (Attributes, error)
	Geometry(win XID) (Geometry, error)
	Children(win XID) ([]XID, error)

	Configure(win XID, ch WindowChanges) error
	Map(win XID) error
	Unmap(win XID) error
	SetEventMask(win XID, mask uint32) error
	SetBorderColor(win XID, pixel uint32) error
	Focus(win XID) error
	WarpPointer(win XID, x, y int) error
	AddToSaveSet(win XID) error
	Kill(win XID) error
	SendClientMessage(win XID, msgType string, data ...uint32) error
	// SendConfigureNotify tells the client its geometry without moving it.
	SendConfigureNotify(win XID, g Geometry) error

	GetProperty(win XID, name, typ string) ([]byte, error)
	SetProperty(win XID, name string, value any, typ string, format int) error
	Intern(name string) (uint32, error)
	AtomName(id uint32) (string, error)

	WindowName(win XID) (string, error)
	WindowClass(win XID) (instance, class string, err error)
	WindowRole(win XID) (string, error)
	Protocols(win XID) ([]string, error)
	TransientFor(win XID) (XID, error)

	Keymap() *keymap.Map
	RefreshKeymap(first uint8, count int) error
	RefreshModmap() error
	ParseKey(spec string) (mods uint16, keysym uint32, err error)
	ParseButton(spec string) (mods uint16, button uint8, err error)
	GrabKey(code uint8, mods uint16) error
	UngrabAllKeys() error
	GrabButton(win XID, button uint8, mods uint16) error
	UngrabAllButtons(win XID) error
	GrabPointer() error
	UngrabPointer() error

	PublishDesktops(names []string, current int) error
	PublishClients(clients []XID, active XID) error

	// Sync waits until the server has processed every request sent so far.
	Sync() error
}
