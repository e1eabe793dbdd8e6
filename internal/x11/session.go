// Package x11 is the protocol session the window manager runs on. It owns
// the server connection, the atom cache and the keyboard tables, and turns
// server events into wm.Event values.
package x11

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/atom"
	"github.com/orionwm/orion/internal/keymap"
	"github.com/orionwm/orion/internal/prop"
	"github.com/orionwm/orion/internal/wm"
)

var (
	// ErrConnection is returned when the display cannot be reached.
	ErrConnection = errors.New("cannot connect to the X server")

	// ErrAnotherWM is returned by BecomeManager when the root window's
	// substructure redirect is already taken.
	ErrAnotherWM = errors.New("another window manager is already running")
)

// Supported lists the EWMH hints advertised on the root window.
var Supported = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_CLIENT_LIST",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_CURRENT_DESKTOP",
	"_NET_DESKTOP_NAMES",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_DEMANDS_ATTENTION",
	"_NET_WM_DESKTOP",
	"_NET_WM_WINDOW_TYPE",
}

// core atoms with fixed ids
var predefined = map[string]uint32{
	"PRIMARY":          uint32(xproto.AtomPrimary),
	"ATOM":             uint32(xproto.AtomAtom),
	"CARDINAL":         uint32(xproto.AtomCardinal),
	"STRING":           uint32(xproto.AtomString),
	"WINDOW":           uint32(xproto.AtomWindow),
	"WM_HINTS":         uint32(xproto.AtomWmHints),
	"WM_ICON_NAME":     uint32(xproto.AtomWmIconName),
	"WM_NAME":          uint32(xproto.AtomWmName),
	"WM_NORMAL_HINTS":  uint32(xproto.AtomWmNormalHints),
	"WM_SIZE_HINTS":    uint32(xproto.AtomWmSizeHints),
	"WM_CLASS":         uint32(xproto.AtomWmClass),
	"WM_TRANSIENT_FOR": uint32(xproto.AtomWmTransientFor),
}

// Options configure a session.
type Options struct {
	// WMName is published as _NET_WM_NAME on the supporting window.
	WMName string
	Logger *log.Entry
}

// Session is a connection to one display. All methods except Run must be
// called from a single goroutine.
type Session struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	root    xproto.Window
	display string
	opts    Options
	log     *log.Entry

	atoms *atom.Cache
	keys  *keymap.Map

	keyGrabs       grabs[keyGrab]
	buttonGrabs    grabs[buttonGrab]
	pointerGrabbed bool
}

var _ wm.Conn = (*Session)(nil)

type keyGrab struct {
	code uint8
	mods uint16
}

type buttonGrab struct {
	win    wm.XID
	button uint8
	mods   uint16
}

// grabs records the passive grabs the session holds.
type grabs[K comparable] map[K]struct{}

func (g grabs[K]) has(k K) bool {
	_, ok := g[k]
	return ok
}

func (g grabs[K]) add(k K) { g[k] = struct{}{} }

// drop forgets every grab matching fn.
func (g grabs[K]) drop(fn func(K) bool) {
	for k := range g {
		if fn(k) {
			delete(g, k)
		}
	}
}

// Connect opens the display. An empty display falls back to $DISPLAY.
func Connect(display string, opts Options) (*Session, error) {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return nil, fmt.Errorf("%w: DISPLAY is not set", ErrConnection)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.WMName == "" {
		opts.WMName = "orion"
	}

	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, display, err)
	}
	keybind.Initialize(xu)

	s := &Session{
		xu:          xu,
		conn:        xu.Conn(),
		root:        xu.RootWin(),
		display:     display,
		opts:        opts,
		log:         logger.WithField("display", display),
		keys:        &keymap.Map{},
		keyGrabs:    make(grabs[keyGrab]),
		buttonGrabs: make(grabs[buttonGrab]),
	}
	s.atoms = atom.NewCache(resolver{s.conn})
	for name, id := range predefined {
		s.atoms.Insert(name, id)
	}
	if err := s.atoms.Preload(prop.PreloadAtoms...); err != nil {
		s.Close()
		return nil, fmt.Errorf("preloading atoms: %w", err)
	}
	if err := s.RefreshKeymap(0, 0); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.RefreshModmap(); err != nil {
		s.Close()
		return nil, err
	}
	s.log.WithField("atoms", s.atoms.Len()).Debug("connected")
	return s, nil
}

// Display returns the display name the session is connected to.
func (s *Session) Display() string { return s.display }

// BecomeManager selects mask on the root window. The server grants
// substructure redirect to one client only.
func (s *Session) BecomeManager(mask uint32) error {
	err := xproto.ChangeWindowAttributesChecked(s.conn, s.root, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		var access xproto.AccessError
		if errors.As(err, &access) {
			return ErrAnotherWM
		}
		return fmt.Errorf("selecting root events: %w", err)
	}

	check := s.xu.Dummy()
	if err := ewmh.SupportingWmCheckSet(s.xu, s.root, check); err != nil {
		return fmt.Errorf("publishing supporting window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(s.xu, check, check); err != nil {
		return fmt.Errorf("publishing supporting window: %w", err)
	}
	if err := ewmh.WmNameSet(s.xu, check, s.opts.WMName); err != nil {
		return fmt.Errorf("publishing wm name: %w", err)
	}
	if err := ewmh.SupportedSet(s.xu, Supported); err != nil {
		return fmt.Errorf("publishing supported hints: %w", err)
	}
	return nil
}

// Close drops the connection. Run's channel closes shortly after.
func (s *Session) Close() {
	s.conn.Close()
}

func (s *Session) Root() wm.XID { return wm.XID(s.root) }

func (s *Session) Intern(name string) (uint32, error) { return s.atoms.Intern(name) }

func (s *Session) AtomName(id uint32) (string, error) { return s.atoms.Name(id) }

// Sync round-trips to the server.
func (s *Session) Sync() error {
	_, err := xproto.GetInputFocus(s.conn).Reply()
	return err
}

// resolver asks the server for atoms the cache has not seen.
type resolver struct {
	conn *xgb.Conn
}

func (r resolver) InternAtom(name string) (uint32, error) {
	reply, err := xproto.InternAtom(r.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("interning %s: %w", name, err)
	}
	return uint32(reply.Atom), nil
}

func (r resolver) AtomName(id uint32) (string, error) {
	reply, err := xproto.GetAtomName(r.conn, xproto.Atom(id)).Reply()
	if err != nil {
		return "", fmt.Errorf("naming atom %d: %w", id, err)
	}
	return reply.Name, nil
}
