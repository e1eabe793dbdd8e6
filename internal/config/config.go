// Package config loads the window manager's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/orionwm/orion/internal/layout"
)

// Config is the effective configuration after defaults, includes and
// validation.
type Config struct {
	Display          string        `yaml:"display"`
	Groups           []string      `yaml:"groups"`
	Layouts          []Layout      `yaml:"layouts"`
	Border           Border        `yaml:"border"`
	Gap              int           `yaml:"gap"`
	Bars             Bars          `yaml:"bars"`
	FollowMouseFocus bool          `yaml:"follow_mouse_focus"`
	CursorWarp       bool          `yaml:"cursor_warp"`
	Keys             []Key         `yaml:"keys"`
	Mouse            []Mouse       `yaml:"mouse"`
	FloatRules       []Rule        `yaml:"float_rules"`
	GroupRules       []Rule        `yaml:"group_rules"`
	IgnoreEvents     []string      `yaml:"ignore_events"`
	SocketPrefix     string        `yaml:"socket_prefix"`
	ControlTimeout   time.Duration `yaml:"control_timeout"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
}

// Layout selects one tiling layout for the per-group cycle.
type Layout struct {
	Name            string  `yaml:"name"`
	Ratio           float64 `yaml:"ratio,omitempty"`
	Masters         int     `yaml:"masters,omitempty"`
	MaxStackRows    int     `yaml:"max_stack_rows,omitempty"`
	FlexibleLastRow bool    `yaml:"flexible_last_row,omitempty"`
}

// Border is the window decoration. Colors are "#rrggbb".
type Border struct {
	Width       int    `yaml:"width"`
	FocusColor  string `yaml:"focus_color"`
	NormalColor string `yaml:"normal_color"`
}

// Bars reserves space at the screen edges for external bars.
type Bars struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Command is a control request written in YAML:
//
//	{selectors: [[group, b], [window]], name: togroup, args: [c]}
type Command struct {
	Selectors [][]any        `yaml:"selectors,omitempty"`
	Name      string         `yaml:"name"`
	Args      []any          `yaml:"args,omitempty"`
	Kwargs    map[string]any `yaml:"kwargs,omitempty"`
}

// Key binds a key combination such as "Mod4-Shift-Return".
type Key struct {
	Key      string    `yaml:"key"`
	Commands []Command `yaml:"commands"`
}

// Mouse binds a button combination such as "Mod4-1". Drag bindings run
// Start once and Commands on every motion.
type Mouse struct {
	Button   string    `yaml:"button"`
	Drag     bool      `yaml:"drag,omitempty"`
	Start    *Command  `yaml:"start,omitempty"`
	Commands []Command `yaml:"commands"`
}

// Rule matches new windows. Group is only used by group rules.
type Rule struct {
	Class    string `yaml:"class,omitempty"`
	Instance string `yaml:"instance,omitempty"`
	Role     string `yaml:"role,omitempty"`
	Title    string `yaml:"title,omitempty"`
	Group    string `yaml:"group,omitempty"`
}

func (r Rule) empty() bool {
	return r.Class == "" && r.Instance == "" && r.Role == "" && r.Title == ""
}

func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "orion", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "orion", "config.yaml"), nil
}

func win(name string, args ...any) Command {
	return Command{Selectors: [][]any{{"window", nil}}, Name: name, Args: args}
}

func grp(name string, args ...any) Command {
	return Command{Selectors: [][]any{{"group", nil}}, Name: name, Args: args}
}

func lay(name string) Command {
	return Command{Selectors: [][]any{{"group", nil}, {"layout", nil}}, Name: name}
}

func root(name string, args ...any) Command {
	return Command{Name: name, Args: args}
}

func DefaultConfig() *Config {
	groups := []string{"a", "b", "c", "d"}
	return &Config{
		Groups: groups,
		Layouts: []Layout{
			{Name: "tile", Ratio: 0.6, Masters: 1},
			{Name: "max"},
			{Name: "grid", FlexibleLastRow: true},
		},
		Border: Border{
			Width:       2,
			FocusColor:  "#5e81ac",
			NormalColor: "#3b4252",
		},
		Gap:              4,
		FollowMouseFocus: true,
		Keys:             defaultKeys(groups),
		Mouse: []Mouse{
			{Button: "Mod4-1", Drag: true, Start: ptr(win("get_position")), Commands: []Command{win("set_position_floating")}},
			{Button: "Mod4-3", Drag: true, Start: ptr(win("get_size")), Commands: []Command{win("set_size_floating")}},
			{Button: "Mod4-2", Commands: []Command{win("bring_to_front")}},
		},
		SocketPrefix:   "orion",
		ControlTimeout: 5 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// defaultKeys returns the stock bindings, with Mod4-N showing and
// Mod4-Shift-N moving to the Nth group.
func defaultKeys(groups []string) []Key {
	keys := []Key{
		{Key: "Mod4-Return", Commands: []Command{root("spawn", "xterm")}},
		{Key: "Mod4-space", Commands: []Command{root("nextlayout")}},
		{Key: "Mod4-Shift-space", Commands: []Command{root("prevlayout")}},
		{Key: "Mod4-j", Commands: []Command{grp("next_window")}},
		{Key: "Mod4-k", Commands: []Command{grp("prev_window")}},
		{Key: "Mod4-h", Commands: []Command{lay("shrink")}},
		{Key: "Mod4-l", Commands: []Command{lay("grow")}},
		{Key: "Mod4-t", Commands: []Command{win("toggle_floating")}},
		{Key: "Mod4-f", Commands: []Command{win("toggle_fullscreen")}},
		{Key: "Mod4-m", Commands: []Command{win("toggle_maximize")}},
		{Key: "Mod4-Shift-c", Commands: []Command{win("kill")}},
		{Key: "Mod4-period", Commands: []Command{root("next_screen")}},
		{Key: "Mod4-comma", Commands: []Command{root("prev_screen")}},
		{Key: "Mod4-Shift-q", Commands: []Command{root("shutdown")}},
	}
	for i, name := range groups {
		n := strconv.Itoa(i + 1)
		keys = append(keys,
			Key{Key: "Mod4-" + n, Commands: []Command{{Selectors: [][]any{{"group", name}}, Name: "toscreen"}}},
			Key{Key: "Mod4-Shift-" + n, Commands: []Command{win("togroup", name)}},
		)
	}
	return keys
}

func ptr[T any](v T) *T { return &v }

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if len(c.Groups) == 0 {
		return &ValidationError{Path: "groups", Err: fmt.Errorf("at least one group is required")}
	}
	seen := make(map[string]bool, len(c.Groups))
	for i, name := range c.Groups {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: fmt.Sprintf("groups.%d", i), Err: fmt.Errorf("group name must not be empty")}
		}
		if seen[name] {
			return &ValidationError{Path: "groups", Err: fmt.Errorf("duplicate group %q", name)}
		}
		seen[name] = true
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("at least one layout is required")}
	}
	known := strings.Join(layout.Names(), ", ")
	for i, l := range c.Layouts {
		if _, err := layout.New(l.Name, layout.Style{}, layout.Options{}); err != nil {
			return &ValidationError{Path: fmt.Sprintf("layouts.%d.name", i), Err: fmt.Errorf("layout must be one of: %s", known)}
		}
		if l.Ratio < 0 || l.Ratio >= 1 {
			return &ValidationError{Path: fmt.Sprintf("layouts.%d.ratio", i), Err: fmt.Errorf("ratio must be between 0 and 1")}
		}
		if l.Masters < 0 || l.MaxStackRows < 0 {
			return &ValidationError{Path: fmt.Sprintf("layouts.%d", i), Err: fmt.Errorf("masters and max_stack_rows must be >= 0")}
		}
	}

	if c.Border.Width < 0 {
		return &ValidationError{Path: "border.width", Err: fmt.Errorf("border width must be >= 0")}
	}
	if _, err := ParseColor(c.Border.FocusColor); err != nil {
		return &ValidationError{Path: "border.focus_color", Err: err}
	}
	if _, err := ParseColor(c.Border.NormalColor); err != nil {
		return &ValidationError{Path: "border.normal_color", Err: err}
	}
	if c.Gap < 0 {
		return &ValidationError{Path: "gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	if c.Bars.Top < 0 || c.Bars.Bottom < 0 || c.Bars.Left < 0 || c.Bars.Right < 0 {
		return &ValidationError{Path: "bars", Err: fmt.Errorf("bar sizes must be >= 0")}
	}

	for i, k := range c.Keys {
		path := fmt.Sprintf("keys.%d", i)
		if strings.TrimSpace(k.Key) == "" {
			return &ValidationError{Path: path + ".key", Err: fmt.Errorf("key is required")}
		}
		if err := validateCommands(path, k.Commands); err != nil {
			return err
		}
	}
	for i, m := range c.Mouse {
		path := fmt.Sprintf("mouse.%d", i)
		if strings.TrimSpace(m.Button) == "" {
			return &ValidationError{Path: path + ".button", Err: fmt.Errorf("button is required")}
		}
		if m.Drag && m.Start == nil {
			return &ValidationError{Path: path + ".start", Err: fmt.Errorf("drag bindings need a start command")}
		}
		if m.Start != nil {
			if _, err := m.Start.Request(); err != nil {
				return &ValidationError{Path: path + ".start", Err: err}
			}
		}
		if err := validateCommands(path, m.Commands); err != nil {
			return err
		}
	}

	for i, r := range c.FloatRules {
		if r.empty() {
			return &ValidationError{Path: fmt.Sprintf("float_rules.%d", i), Err: fmt.Errorf("rule matches nothing")}
		}
	}
	for i, r := range c.GroupRules {
		path := fmt.Sprintf("group_rules.%d", i)
		if r.empty() {
			return &ValidationError{Path: path, Err: fmt.Errorf("rule matches nothing")}
		}
		if !seen[r.Group] {
			return &ValidationError{Path: path + ".group", Err: fmt.Errorf("unknown group %q", r.Group)}
		}
	}

	if strings.TrimSpace(c.SocketPrefix) == "" || strings.ContainsRune(c.SocketPrefix, '/') {
		return &ValidationError{Path: "socket_prefix", Err: fmt.Errorf("socket_prefix must be a non-empty file name")}
	}
	if c.ControlTimeout <= 0 {
		return &ValidationError{Path: "control_timeout", Err: fmt.Errorf("control_timeout must be positive")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: text, json")}
	}
	return nil
}

func validateCommands(path string, cmds []Command) error {
	if len(cmds) == 0 {
		return &ValidationError{Path: path + ".commands", Err: fmt.Errorf("at least one command is required")}
	}
	for i, cmd := range cmds {
		if _, err := cmd.Request(); err != nil {
			return &ValidationError{Path: fmt.Sprintf("%s.commands.%d", path, i), Err: err}
		}
	}
	return nil
}

// ParseColor parses "#rrggbb" into a pixel value.
func ParseColor(s string) (uint32, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return 0, fmt.Errorf("color %q must look like #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(v), nil
}

// ValidationError points at the offending key and, when known, where it
// was set.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
