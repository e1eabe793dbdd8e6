package layout

import "github.com/orionwm/orion/internal/wm"

// Floating places floating windows at their saved offsets from the
// screen origin. Maximized windows fill the usable area and fullscreen
// windows cover the whole screen without a border.
type Floating struct {
	Style Style
}

func (l *Floating) Name() string         { return "floating" }
func (l *Floating) Clone() wm.Layout     { c := *l; return &c }
func (l *Floating) Info() map[string]any { return baseInfo(l.Name(), l.Style) }

func (l *Floating) Arrange(windows []*wm.Window, area wm.Rect) {
	for _, w := range windows {
		screen := area
		if g := w.Group(); g != nil && g.Screen() != nil {
			screen = g.Screen().Rect()
		}
		switch w.State() {
		case wm.Maximized:
			l.Style.place(w, area, true)
		case wm.Fullscreen:
			w.Place(screen.X, screen.Y, screen.Width, screen.Height, 0, l.Style.color(w), true, false)
		default:
			r := w.FloatGeometry(screen)
			w.Place(r.X, r.Y, r.Width, r.Height, l.Style.Border, l.Style.color(w), true, false)
		}
	}
}
