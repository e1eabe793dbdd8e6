package layout

import (
	"fmt"

	"github.com/orionwm/orion/internal/wm"
)

const (
	defaultRatio = 0.6
	ratioStep    = 0.05
	minRatio     = 0.1
	maxRatio     = 0.9
)

// Tile is a master-stack layout: the first Masters windows share a column
// on the left, the rest tile on the right.
type Tile struct {
	Style        Style
	Ratio        float64
	Masters      int
	MaxStackRows int

	initial Options
}

// NewTile returns a Tile, filling unset options with defaults.
func NewTile(style Style, opts Options) *Tile {
	if opts.Ratio <= 0 || opts.Ratio >= 1 {
		opts.Ratio = defaultRatio
	}
	if opts.Masters < 1 {
		opts.Masters = 1
	}
	return &Tile{
		Style:        style,
		Ratio:        opts.Ratio,
		Masters:      opts.Masters,
		MaxStackRows: opts.MaxStackRows,
		initial:      opts,
	}
}

func (l *Tile) Name() string     { return "tile" }
func (l *Tile) Clone() wm.Layout { c := *l; return &c }

func (l *Tile) Info() map[string]any {
	info := baseInfo(l.Name(), l.Style)
	info["ratio"] = l.Ratio
	info["masters"] = l.Masters
	return info
}

func (l *Tile) cells(n int, area wm.Rect) ([]wm.Rect, error) {
	return masterStackCells(n, area, l.Ratio, l.Masters, l.MaxStackRows, l.Style.Gap)
}

func (l *Tile) Arrange(windows []*wm.Window, area wm.Rect) {
	arrange(l.Style, l.cells, windows, area)
}

// Commands lists the names accepted by Command.
func (l *Tile) Commands() []string {
	return []string{"grow", "shrink", "increase_nmaster", "decrease_nmaster", "reset"}
}

// Command adjusts the layout. The caller relayouts the group.
func (l *Tile) Command(name string) error {
	switch name {
	case "grow":
		l.Ratio = min(l.Ratio+ratioStep, maxRatio)
	case "shrink":
		l.Ratio = max(l.Ratio-ratioStep, minRatio)
	case "increase_nmaster":
		l.Masters++
	case "decrease_nmaster":
		l.Masters = max(l.Masters-1, 1)
	case "reset":
		l.Ratio, l.Masters = l.initial.Ratio, l.initial.Masters
	default:
		return fmt.Errorf("tile: unknown command %q", name)
	}
	return nil
}
