package prop

import (
	"fmt"

	"github.com/BurntSushi/xgb"
)

// WM_HINTS flags.
const (
	InputHint uint32 = 1 << iota
	StateHint
	IconPixmapHint
	IconWindowHint
	IconPositionHint
	IconMaskHint
	WindowGroupHint
	MessageHint
	UrgencyHint
)

// WM_NORMAL_HINTS flags.
const (
	USPosition uint32 = 1 << iota
	USSize
	PPosition
	PSize
	PMinSize
	PMaxSize
	PResizeInc
	PAspect
	PBaseSize
	PWinGravity
)

// WM_STATE values.
const (
	WithdrawnState uint32 = 0
	NormalState    uint32 = 1
	IconicState    uint32 = 3
)

const (
	wmHintsWords       = 9
	wmNormalHintsWords = 18
	wmStateWords       = 2
)

// WMHints is the raw ICCCM WM_HINTS structure.
type WMHints struct {
	Flags        uint32
	Input        uint32
	InitialState uint32
	IconPixmap   uint32
	IconWindow   uint32
	IconX        uint32
	IconY        uint32
	IconMask     uint32
	WindowGroup  uint32
}

// AcceptsInput reports whether the client wants the WM to give it focus.
// Clients that do not set InputHint are assumed to accept input.
func (h WMHints) AcceptsInput() bool {
	if h.Flags&InputHint == 0 {
		return true
	}
	return h.Input != 0
}

// Urgent reports the ICCCM urgency flag.
func (h WMHints) Urgent() bool {
	return h.Flags&UrgencyHint != 0
}

// DecodeWMHints decodes a 9x32-bit WM_HINTS buffer.
func DecodeWMHints(buf []byte) (WMHints, error) {
	words, err := words32(buf, wmHintsWords, "WM_HINTS")
	if err != nil {
		return WMHints{}, err
	}
	return WMHints{
		Flags:        words[0],
		Input:        words[1],
		InitialState: words[2],
		IconPixmap:   words[3],
		IconWindow:   words[4],
		IconX:        words[5],
		IconY:        words[6],
		IconMask:     words[7],
		WindowGroup:  words[8],
	}, nil
}

// Encode returns the wire form of h.
func (h WMHints) Encode() []byte {
	return pack32([]uint32{
		h.Flags, h.Input, h.InitialState, h.IconPixmap, h.IconWindow,
		h.IconX, h.IconY, h.IconMask, h.WindowGroup,
	})
}

// NormalHints is the ICCCM WM_SIZE_HINTS structure carried by
// WM_NORMAL_HINTS. Words 1-4 are the obsolete x/y/width/height fields and
// are preserved only so the structure re-encodes byte for byte.
type NormalHints struct {
	Flags        uint32
	Pad          [4]uint32
	MinWidth     uint32
	MinHeight    uint32
	MaxWidth     uint32
	MaxHeight    uint32
	WidthInc     uint32
	HeightInc    uint32
	MinAspectNum uint32
	MinAspectDen uint32
	MaxAspectNum uint32
	MaxAspectDen uint32
	BaseWidth    uint32
	BaseHeight   uint32
	WinGravity   uint32

	// set when BaseWidth/BaseHeight were derived rather than read
	derivedWidth  bool
	derivedHeight bool
}

// BaseDerived reports whether the base size was derived from min and
// increment because the client left it out.
func (n NormalHints) BaseDerived() bool {
	return n.derivedWidth || n.derivedHeight
}

// DecodeWMNormalHints decodes an 18x32-bit WM_NORMAL_HINTS buffer. A zero
// base size with a non-zero minimum and increment is replaced by
// min mod inc.
func DecodeWMNormalHints(buf []byte) (NormalHints, error) {
	words, err := words32(buf, wmNormalHintsWords, "WM_NORMAL_HINTS")
	if err != nil {
		return NormalHints{}, err
	}
	n := NormalHints{Flags: words[0]}
	copy(n.Pad[:], words[1:5])
	n.MinWidth = words[5]
	n.MinHeight = words[6]
	n.MaxWidth = words[7]
	n.MaxHeight = words[8]
	n.WidthInc = words[9]
	n.HeightInc = words[10]
	n.MinAspectNum = words[11]
	n.MinAspectDen = words[12]
	n.MaxAspectNum = words[13]
	n.MaxAspectDen = words[14]
	n.BaseWidth = words[15]
	n.BaseHeight = words[16]
	n.WinGravity = words[17]

	if n.BaseWidth == 0 && n.MinWidth != 0 && n.WidthInc != 0 {
		n.BaseWidth = n.MinWidth % n.WidthInc
		n.derivedWidth = true
	}
	if n.BaseHeight == 0 && n.MinHeight != 0 && n.HeightInc != 0 {
		n.BaseHeight = n.MinHeight % n.HeightInc
		n.derivedHeight = true
	}
	return n, nil
}

// Encode returns the wire form of n. Derived base sizes are written as
// zero, as the client sent them.
func (n NormalHints) Encode() []byte {
	baseW, baseH := n.BaseWidth, n.BaseHeight
	if n.derivedWidth {
		baseW = 0
	}
	if n.derivedHeight {
		baseH = 0
	}
	return pack32([]uint32{
		n.Flags, n.Pad[0], n.Pad[1], n.Pad[2], n.Pad[3],
		n.MinWidth, n.MinHeight, n.MaxWidth, n.MaxHeight,
		n.WidthInc, n.HeightInc,
		n.MinAspectNum, n.MinAspectDen, n.MaxAspectNum, n.MaxAspectDen,
		baseW, baseH, n.WinGravity,
	})
}

// WMState is the ICCCM WM_STATE property.
type WMState struct {
	State uint32
	Icon  uint32
}

// DecodeWMState decodes a 2x32-bit WM_STATE buffer.
func DecodeWMState(buf []byte) (WMState, error) {
	words, err := words32(buf, wmStateWords, "WM_STATE")
	if err != nil {
		return WMState{}, err
	}
	return WMState{State: words[0], Icon: words[1]}, nil
}

// Encode returns the wire form of s.
func (s WMState) Encode() []byte {
	return pack32([]uint32{s.State, s.Icon})
}

// DecodeAtoms decodes a list of 32-bit atoms such as _NET_WM_STATE or
// _NET_WM_WINDOW_TYPE.
func DecodeAtoms(buf []byte) ([]uint32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: atom list of %d bytes", ErrMalformedProperty, len(buf))
	}
	return words32(buf, len(buf)/4, "atom list")
}

// Hints is the window manager's merged view of WM_HINTS and
// WM_NORMAL_HINTS.
type Hints struct {
	Input        bool
	InitialState uint32
	IconPixmap   uint32
	IconWindow   uint32
	IconMask     uint32
	WindowGroup  uint32
	Urgent       bool

	MinWidth   int
	MinHeight  int
	MaxWidth   int
	MaxHeight  int
	BaseWidth  int
	BaseHeight int
	WidthInc   int
	HeightInc  int
	WinGravity int
}

// DefaultHints are the hints of a window that sets neither property.
func DefaultHints() Hints {
	return Hints{Input: true, InitialState: NormalState}
}

// ApplyWMHints merges decoded WM_HINTS into h.
func (h *Hints) ApplyWMHints(w WMHints) {
	h.Input = w.AcceptsInput()
	h.Urgent = w.Urgent()
	if w.Flags&StateHint != 0 {
		h.InitialState = w.InitialState
	}
	if w.Flags&IconPixmapHint != 0 {
		h.IconPixmap = w.IconPixmap
	}
	if w.Flags&IconWindowHint != 0 {
		h.IconWindow = w.IconWindow
	}
	if w.Flags&IconMaskHint != 0 {
		h.IconMask = w.IconMask
	}
	if w.Flags&WindowGroupHint != 0 {
		h.WindowGroup = w.WindowGroup
	}
}

// ApplyNormalHints merges decoded WM_NORMAL_HINTS into h.
func (h *Hints) ApplyNormalHints(n NormalHints) {
	h.MinWidth = int(n.MinWidth)
	h.MinHeight = int(n.MinHeight)
	h.MaxWidth = int(n.MaxWidth)
	h.MaxHeight = int(n.MaxHeight)
	h.BaseWidth = int(n.BaseWidth)
	h.BaseHeight = int(n.BaseHeight)
	h.WidthInc = int(n.WidthInc)
	h.HeightInc = int(n.HeightInc)
	h.WinGravity = int(n.WinGravity)
}

// FixedSize reports whether the client pins its size.
func (h Hints) FixedSize() bool {
	return h.MinWidth > 0 && h.MinHeight > 0 &&
		h.MinWidth == h.MaxWidth && h.MinHeight == h.MaxHeight
}

func words32(buf []byte, n int, what string) ([]uint32, error) {
	if len(buf) != n*4 {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrMalformedProperty, what, len(buf), n*4)
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = xgb.Get32(buf[i*4:])
	}
	return out, nil
}

func pack32(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		xgb.Put32(buf[i*4:], w)
	}
	return buf
}
