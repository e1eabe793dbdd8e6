package wm

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/keymap"
	"github.com/orionwm/orion/internal/prop"
)

const (
	testRoot XID = 1

	keyReturn  uint32 = 0xff0d
	keyA       uint32 = 0x61
	codeReturn uint8  = 36
	codeA      uint8  = 38
	codeNumLk  uint8  = 77

	mod4       uint16 = 1 << 6
	shiftMask  uint16 = 1 << 0
	numLockBit uint16 = 1 << 4
)

type fakeWin struct {
	attrs     Attributes
	geom      Geometry
	props     map[string][]byte
	name      string
	instance  string
	class     string
	role      string
	protocols []string
	transient XID
	mapped    bool
	mask      uint32
	border    uint32
}

type configureCall struct {
	win XID
	ch  WindowChanges
}

type clientMessage struct {
	win     XID
	msgType string
	data    []uint32
}

type keyGrab struct {
	code uint8
	mods uint16
}

// fakeConn is an in-memory display server.
type fakeConn struct {
	screens []Rect
	wins    map[XID]*fakeWin
	atoms   map[string]uint32
	names   map[uint32]string
	km      *keymap.Map

	focus          XID
	configured     []configureCall
	keyGrabs       map[keyGrab]bool
	buttonGrabs    map[keyGrab]bool
	pointerGrabbed bool
	messages       []clientMessage
	notified       []configureNotify
	killed         []XID
	desktops       []string
	currentDesktop int
	clients        []XID
	active         XID
	syncs          int
	keymapRefresh  int
}

func newFakeConn(t *testing.T, screens ...Rect) *fakeConn {
	t.Helper()
	if len(screens) == 0 {
		screens = []Rect{{X: 0, Y: 0, Width: 1000, Height: 800}}
	}
	syms := make([]uint32, 80)
	syms[codeReturn-8] = keyReturn
	syms[codeA-8] = keyA
	syms[codeNumLk-8] = xkNumLock
	kb, err := keymap.NewKeyboard(8, 80, 1, syms)
	if err != nil {
		t.Fatalf("NewKeyboard: %v", err)
	}
	mods := make([]uint8, 8)
	mods[4] = codeNumLk // mod2
	mm, err := keymap.NewModifiers(1, mods)
	if err != nil {
		t.Fatalf("NewModifiers: %v", err)
	}
	return &fakeConn{
		screens:     screens,
		wins:        make(map[XID]*fakeWin),
		atoms:       make(map[string]uint32),
		names:       make(map[uint32]string),
		km:          &keymap.Map{Keyboard: kb, Modifiers: mm},
		keyGrabs:    make(map[keyGrab]bool),
		buttonGrabs: make(map[keyGrab]bool),
	}
}

// addWindow creates a mapped top-level window.
func (c *fakeConn) addWindow(id XID, name string) *fakeWin {
	w := &fakeWin{
		attrs:  Attributes{MapState: MapStateViewable},
		geom:   Geometry{X: 10, Y: 20, Width: 200, Height: 100},
		props:  make(map[string][]byte),
		name:   name,
		class:  "Test",
		mapped: true,
	}
	c.wins[id] = w
	return w
}

func (c *fakeConn) win(id XID) (*fakeWin, error) {
	w, ok := c.wins[id]
	if !ok {
		return nil, fmt.Errorf("%w: BadWindow %#x", ErrRace, uint32(id))
	}
	return w, nil
}

func (c *fakeConn) Root() XID                { return testRoot }
func (c *fakeConn) Screens() ([]Rect, error) { return c.screens, nil }

func (c *fakeConn) Attributes(id XID) (Attributes, error) {
	w, err := c.win(id)
	if err != nil {
		return Attributes{}, err
	}
	return w.attrs, nil
}

func (c *fakeConn) Geometry(id XID) (Geometry, error) {
	w, err := c.win(id)
	if err != nil {
		return Geometry{}, err
	}
	return w.geom, nil
}

func (c *fakeConn) Children(id XID) ([]XID, error) {
	var ids []XID
	for id := range c.wins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *fakeConn) Configure(id XID, ch WindowChanges) error {
	c.configured = append(c.configured, configureCall{win: id, ch: ch})
	w, err := c.win(id)
	if err != nil {
		return err
	}
	if ch.Mask&ChangeX != 0 {
		w.geom.X = ch.X
	}
	if ch.Mask&ChangeY != 0 {
		w.geom.Y = ch.Y
	}
	if ch.Mask&ChangeWidth != 0 {
		w.geom.Width = ch.Width
	}
	if ch.Mask&ChangeHeight != 0 {
		w.geom.Height = ch.Height
	}
	return nil
}

func (c *fakeConn) Map(id XID) error {
	w, err := c.win(id)
	if err != nil {
		return err
	}
	w.mapped = true
	return nil
}

func (c *fakeConn) Unmap(id XID) error {
	w, err := c.win(id)
	if err != nil {
		return err
	}
	w.mapped = false
	return nil
}

func (c *fakeConn) SetEventMask(id XID, mask uint32) error {
	w, err := c.win(id)
	if err != nil {
		return err
	}
	w.mask = mask
	return nil
}

func (c *fakeConn) SetBorderColor(id XID, pixel uint32) error {
	w, err := c.win(id)
	if err != nil {
		return err
	}
	w.border = pixel
	return nil
}

func (c *fakeConn) Focus(id XID) error {
	c.focus = id
	return nil
}

func (c *fakeConn) WarpPointer(XID, int, int) error { return nil }

func (c *fakeConn) AddToSaveSet(id XID) error {
	_, err := c.win(id)
	return err
}

func (c *fakeConn) Kill(id XID) error {
	c.killed = append(c.killed, id)
	return nil
}

func (c *fakeConn) SendClientMessage(id XID, msgType string, data ...uint32) error {
	c.messages = append(c.messages, clientMessage{win: id, msgType: msgType, data: data})
	return nil
}

type configureNotify struct {
	win  XID
	geom Geometry
}

func (c *fakeConn) SendConfigureNotify(id XID, g Geometry) error {
	c.notified = append(c.notified, configureNotify{win: id, geom: g})
	return nil
}

func (c *fakeConn) GetProperty(id XID, name, typ string) ([]byte, error) {
	w, err := c.win(id)
	if err != nil {
		return nil, err
	}
	return w.props[name], nil
}

func (c *fakeConn) SetProperty(id XID, name string, value any, typ string, format int) error {
	spec, err := prop.Resolve(name, typ, format)
	if err != nil {
		return err
	}
	data, err := prop.Encode(value, spec.Format)
	if err != nil {
		return err
	}
	w, err := c.win(id)
	if err != nil {
		return err
	}
	w.props[name] = data
	return nil
}

func (c *fakeConn) Intern(name string) (uint32, error) {
	if id, ok := c.atoms[name]; ok {
		return id, nil
	}
	id := uint32(100 + len(c.atoms))
	c.atoms[name] = id
	c.names[id] = name
	return id, nil
}

func (c *fakeConn) AtomName(id uint32) (string, error) {
	name, ok := c.names[id]
	if !ok {
		return "", fmt.Errorf("BadAtom %d", id)
	}
	return name, nil
}

func (c *fakeConn) WindowName(id XID) (string, error) {
	w, err := c.win(id)
	if err != nil {
		return "", err
	}
	return w.name, nil
}

func (c *fakeConn) WindowClass(id XID) (string, string, error) {
	w, err := c.win(id)
	if err != nil {
		return "", "", err
	}
	return w.instance, w.class, nil
}

func (c *fakeConn) WindowRole(id XID) (string, error) {
	w, err := c.win(id)
	if err != nil {
		return "", err
	}
	return w.role, nil
}

func (c *fakeConn) Protocols(id XID) ([]string, error) {
	w, err := c.win(id)
	if err != nil {
		return nil, err
	}
	return w.protocols, nil
}

func (c *fakeConn) TransientFor(id XID) (XID, error) {
	w, err := c.win(id)
	if err != nil {
		return 0, err
	}
	return w.transient, nil
}

func (c *fakeConn) Keymap() *keymap.Map { return c.km }

func (c *fakeConn) RefreshKeymap(uint8, int) error {
	c.keymapRefresh++
	return nil
}

func (c *fakeConn) RefreshModmap() error { return nil }

var fakeModNames = map[string]uint16{
	"shift":   shiftMask,
	"control": 1 << 2,
	"mod1":    1 << 3,
	"mod4":    mod4,
}

func (c *fakeConn) ParseKey(spec string) (uint16, uint32, error) {
	parts := strings.Split(spec, "-")
	var mods uint16
	for _, p := range parts[:len(parts)-1] {
		m, ok := fakeModNames[strings.ToLower(p)]
		if !ok {
			return 0, 0, fmt.Errorf("unknown modifier %q", p)
		}
		mods |= m
	}
	switch parts[len(parts)-1] {
	case "Return":
		return mods, keyReturn, nil
	case "a":
		return mods, keyA, nil
	}
	return 0, 0, fmt.Errorf("unknown key %q", spec)
}

func (c *fakeConn) ParseButton(spec string) (uint16, uint8, error) {
	parts := strings.Split(spec, "-")
	var mods uint16
	for _, p := range parts[:len(parts)-1] {
		m, ok := fakeModNames[strings.ToLower(p)]
		if !ok {
			return 0, 0, fmt.Errorf("unknown modifier %q", p)
		}
		mods |= m
	}
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, 0, err
	}
	return mods, uint8(n), nil
}

func (c *fakeConn) GrabKey(code uint8, mods uint16) error {
	c.keyGrabs[keyGrab{code, mods}] = true
	return nil
}

func (c *fakeConn) UngrabAllKeys() error {
	c.keyGrabs = make(map[keyGrab]bool)
	return nil
}

func (c *fakeConn) GrabButton(_ XID, button uint8, mods uint16) error {
	c.buttonGrabs[keyGrab{button, mods}] = true
	return nil
}

func (c *fakeConn) UngrabAllButtons(XID) error {
	c.buttonGrabs = make(map[keyGrab]bool)
	return nil
}

func (c *fakeConn) GrabPointer() error {
	c.pointerGrabbed = true
	return nil
}

func (c *fakeConn) UngrabPointer() error {
	c.pointerGrabbed = false
	return nil
}

func (c *fakeConn) PublishDesktops(names []string, current int) error {
	c.desktops = append([]string(nil), names...)
	c.currentDesktop = current
	return nil
}

func (c *fakeConn) PublishClients(clients []XID, active XID) error {
	c.clients = append([]XID(nil), clients...)
	c.active = active
	return nil
}

func (c *fakeConn) Sync() error {
	c.syncs++
	return nil
}

func mustEncode(t *testing.T, value any, format int) []byte {
	t.Helper()
	data, err := prop.Encode(value, format)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

// wmState decodes the WM_STATE the manager last wrote on id.
func (c *fakeConn) wmState(t *testing.T, id XID) uint32 {
	t.Helper()
	raw := c.wins[id].props["WM_STATE"]
	if raw == nil {
		t.Fatalf("window %d has no WM_STATE", id)
	}
	st, err := prop.DecodeWMState(raw)
	if err != nil {
		t.Fatalf("DecodeWMState: %v", err)
	}
	return st.State
}

// stackLayout gives every tiled window the whole area.
type stackLayout struct{ name string }

func (l *stackLayout) Name() string {
	if l.name == "" {
		return "stack"
	}
	return l.name
}
func (l *stackLayout) Clone() Layout { return &stackLayout{name: l.name} }
func (l *stackLayout) Arrange(windows []*Window, area Rect) {
	for _, w := range windows {
		w.Place(area.X, area.Y, area.Width, area.Height, 1, 0, false, false)
	}
}
func (l *stackLayout) Info() map[string]any { return map[string]any{"name": l.Name()} }

// floatLayout puts floating windows at their saved geometry.
type floatLayout struct{}

func (floatLayout) Name() string  { return "floating" }
func (floatLayout) Clone() Layout { return floatLayout{} }
func (floatLayout) Arrange(windows []*Window, area Rect) {
	for _, w := range windows {
		r := w.FloatGeometry(area)
		w.Place(r.X, r.Y, r.Width, r.Height, 1, 0, true, false)
	}
}
func (floatLayout) Info() map[string]any { return map[string]any{"name": "floating"} }

func quietLogger() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

func testOptions() Options {
	return Options{
		Groups:   []string{"a", "b", "c"},
		Layouts:  []Layout{&stackLayout{}, &stackLayout{name: "other"}},
		Floating: floatLayout{},
		Logger:   quietLogger(),
	}
}

func startManager(t *testing.T, conn *fakeConn, opts Options) *Manager {
	t.Helper()
	m := New(conn, opts)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m
}

// checkMembership verifies that group back-pointers and member lists agree.
func checkMembership(t *testing.T, m *Manager) {
	t.Helper()
	seen := make(map[*Window]*Group)
	for _, g := range m.groups {
		for _, w := range g.windows {
			if other, dup := seen[w]; dup {
				t.Fatalf("window %d is in groups %s and %s", w.ID, other.name, g.name)
			}
			seen[w] = g
			if w.group != g {
				t.Fatalf("window %d listed in %s but points at %v", w.ID, g.name, w.group)
			}
		}
	}
	for _, w := range m.registry {
		if w.group != nil && !w.group.Contains(w) {
			t.Fatalf("window %d points at %s which does not list it", w.ID, w.group.name)
		}
	}
}

// checkBijection verifies the screen/group pairing.
func checkBijection(t *testing.T, m *Manager) {
	t.Helper()
	for _, s := range m.screens {
		if s.group == nil {
			t.Fatalf("screen %d has no group", s.index)
		}
		if s.group.screen != s {
			t.Fatalf("screen %d shows %s but %s points at %v", s.index, s.group.name, s.group.name, s.group.screen)
		}
	}
	for _, g := range m.groups {
		if g.screen != nil && g.screen.group != g {
			t.Fatalf("group %s points at screen %d which shows %v", g.name, g.screen.index, g.screen.group)
		}
	}
}
