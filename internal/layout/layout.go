// Package layout provides the window placement strategies groups cycle
// through: max, tile, grid, columns, rows, and the floating layout every
// group uses for its floating members.
package layout

import (
	"fmt"
	"sort"

	"github.com/orionwm/orion/internal/wm"
)

// Style is the decoration shared by all layouts.
type Style struct {
	Border      int
	FocusColor  uint32
	NormalColor uint32
	Gap         int
}

func (s Style) color(w *wm.Window) uint32 {
	if w.Focused() {
		return s.FocusColor
	}
	return s.NormalColor
}

// place fits w into cell, border included.
func (s Style) place(w *wm.Window, cell wm.Rect, above bool) {
	w.Place(cell.X, cell.Y, cell.Width-2*s.Border, cell.Height-2*s.Border, s.Border, s.color(w), above, false)
}

// Options tune the layouts that have parameters.
type Options struct {
	Ratio           float64
	Masters         int
	MaxStackRows    int
	FlexibleLastRow bool
}

// Names lists the tiling layouts New knows.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builders = map[string]func(Style, Options) wm.Layout{
	"max":     func(s Style, _ Options) wm.Layout { return &Max{Style: s} },
	"tile":    func(s Style, o Options) wm.Layout { return NewTile(s, o) },
	"grid":    func(s Style, o Options) wm.Layout { return &Grid{Style: s, FlexibleLastRow: o.FlexibleLastRow} },
	"columns": func(s Style, _ Options) wm.Layout { return &Columns{Style: s} },
	"rows":    func(s Style, _ Options) wm.Layout { return &Rows{Style: s} },
}

// New builds the named tiling layout.
func New(name string, style Style, opts Options) (wm.Layout, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q", name)
	}
	return build(style, opts), nil
}

// cellFunc computes one cell per window.
type cellFunc func(n int, area wm.Rect) ([]wm.Rect, error)

// arrange places windows into the cells computed for them. When the area
// is too small for the gaps every window gets the whole area.
func arrange(style Style, cells cellFunc, windows []*wm.Window, area wm.Rect) {
	rects, err := cells(len(windows), area)
	if err != nil || len(rects) != len(windows) {
		rects = make([]wm.Rect, len(windows))
		for i := range rects {
			rects[i] = area
		}
	}
	for i, w := range windows {
		style.place(w, rects[i], false)
	}
}

func baseInfo(name string, s Style) map[string]any {
	return map[string]any{
		"name":   name,
		"border": s.Border,
		"gap":    s.Gap,
	}
}

// Max gives every window the whole area and raises the focused one.
type Max struct {
	Style Style
}

func (l *Max) Name() string         { return "max" }
func (l *Max) Clone() wm.Layout     { c := *l; return &c }
func (l *Max) Info() map[string]any { return baseInfo(l.Name(), l.Style) }

func (l *Max) Arrange(windows []*wm.Window, area wm.Rect) {
	cell := inset(area, l.Style.Gap)
	var focused *wm.Window
	for _, w := range windows {
		if w.Focused() {
			focused = w
			continue
		}
		l.Style.place(w, cell, false)
	}
	if focused != nil {
		l.Style.place(focused, cell, true)
	}
}

// Grid tiles windows in a near-square grid.
type Grid struct {
	Style           Style
	FlexibleLastRow bool
}

func (l *Grid) Name() string     { return "grid" }
func (l *Grid) Clone() wm.Layout { c := *l; return &c }

func (l *Grid) Info() map[string]any {
	info := baseInfo(l.Name(), l.Style)
	info["flexible_last_row"] = l.FlexibleLastRow
	return info
}

func (l *Grid) cells(n int, area wm.Rect) ([]wm.Rect, error) {
	rows, cols := GridSize(n)
	return gridCells(n, rows, cols, area, l.Style.Gap, l.FlexibleLastRow)
}

func (l *Grid) Arrange(windows []*wm.Window, area wm.Rect) {
	arrange(l.Style, l.cells, windows, area)
}

// Columns puts windows side by side.
type Columns struct {
	Style Style
}

func (l *Columns) Name() string         { return "columns" }
func (l *Columns) Clone() wm.Layout     { c := *l; return &c }
func (l *Columns) Info() map[string]any { return baseInfo(l.Name(), l.Style) }

func (l *Columns) cells(n int, area wm.Rect) ([]wm.Rect, error) {
	return gridCells(n, 1, n, area, l.Style.Gap, false)
}

func (l *Columns) Arrange(windows []*wm.Window, area wm.Rect) {
	arrange(l.Style, l.cells, windows, area)
}

// Rows stacks windows top to bottom.
type Rows struct {
	Style Style
}

func (l *Rows) Name() string         { return "rows" }
func (l *Rows) Clone() wm.Layout     { c := *l; return &c }
func (l *Rows) Info() map[string]any { return baseInfo(l.Name(), l.Style) }

func (l *Rows) cells(n int, area wm.Rect) ([]wm.Rect, error) {
	return gridCells(n, n, 1, area, l.Style.Gap, false)
}

func (l *Rows) Arrange(windows []*wm.Window, area wm.Rect) {
	arrange(l.Style, l.cells, windows, area)
}
