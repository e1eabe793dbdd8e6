package wm

// Layout places a set of windows inside a rectangle. Each group owns its
// own instances, obtained through Clone.
type Layout interface {
	Name() string
	Clone() Layout
	Arrange(windows []*Window, area Rect)
	Info() map[string]any
}
