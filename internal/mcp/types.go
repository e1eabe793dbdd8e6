package mcp

import "github.com/orionwm/orion/internal/wm"

// CommandInput is the input for the wm_command tool.
type CommandInput struct {
	Selectors [][]any        `json:"selectors,omitempty" jsonschema:"Path to the target object, e.g. [[\"group\",\"b\"],[\"window\"]]. Kinds are bar, group, layout, screen and window; omit the key to select the current object."`
	Name      string         `json:"name" jsonschema:"Command to run on the selected object, e.g. togroup or toggle_floating"`
	Args      []any          `json:"args,omitempty" jsonschema:"Positional arguments"`
	Kwargs    map[string]any `json:"kwargs,omitempty" jsonschema:"Keyword arguments"`
}

// CommandOutput is the output for the wm_command tool.
type CommandOutput struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Group string `json:"group,omitempty" jsonschema:"Only list windows in this group"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID         uint32   `json:"id"`
	Name       string   `json:"name"`
	WMClass    []string `json:"wm_class,omitempty"`
	Role       string   `json:"role,omitempty"`
	Type       string   `json:"type,omitempty"`
	Group      string   `json:"group,omitempty"`
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Floating   bool     `json:"floating"`
	FloatState string   `json:"float_state"`
	Hidden     bool     `json:"hidden"`
	Urgent     bool     `json:"urgent"`
	Focused    bool     `json:"focused"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows,omitempty"`
}

// GroupInfo describes one group.
type GroupInfo struct {
	Name            string   `json:"name"`
	Windows         []string `json:"windows,omitempty"`
	FloatingWindows []string `json:"floating_windows,omitempty"`
	Layouts         []string `json:"layouts,omitempty"`
	Layout          string   `json:"layout,omitempty"`
	Focus           string   `json:"focus,omitempty"`
	Screen          *int     `json:"screen,omitempty"`
}

// ListGroupsOutput is the output for the list_groups tool.
type ListGroupsOutput struct {
	Groups []GroupInfo `json:"groups,omitempty"`
}

// ScreenInfo describes one physical screen.
type ScreenInfo struct {
	Index  int     `json:"index"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Usable wm.Rect `json:"usable"`
	Gaps   wm.Gaps `json:"gaps"`
	Group  string  `json:"group,omitempty"`
}

// ListScreensOutput is the output for the list_screens tool.
type ListScreensOutput struct {
	Screens []ScreenInfo `json:"screens,omitempty"`
}
