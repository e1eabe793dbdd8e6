package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orionwm/orion/internal/ipc"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawBorder struct {
	Width       *int    `yaml:"width"`
	FocusColor  *string `yaml:"focus_color"`
	NormalColor *string `yaml:"normal_color"`
}

type RawBars struct {
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

// RawConfig is one file as written. Nil fields were not set.
type RawConfig struct {
	Include          IncludeList    `yaml:"include"`
	Display          *string        `yaml:"display"`
	Groups           []string       `yaml:"groups"`
	Layouts          []Layout       `yaml:"layouts"`
	Border           *RawBorder     `yaml:"border"`
	Gap              *int           `yaml:"gap"`
	Bars             *RawBars       `yaml:"bars"`
	FollowMouseFocus *bool          `yaml:"follow_mouse_focus"`
	CursorWarp       *bool          `yaml:"cursor_warp"`
	Keys             []Key          `yaml:"keys"`
	Mouse            []Mouse        `yaml:"mouse"`
	FloatRules       []Rule         `yaml:"float_rules"`
	GroupRules       []Rule         `yaml:"group_rules"`
	IgnoreEvents     []string       `yaml:"ignore_events"`
	SocketPrefix     *string        `yaml:"socket_prefix"`
	ControlTimeout   *time.Duration `yaml:"control_timeout"`
	LogLevel         *string        `yaml:"log_level"`
	LogFormat        *string        `yaml:"log_format"`
}

// merge applies overlay on top of c. Scalars and the group, layout and
// ignore_events lists are replaced; bindings and rules accumulate.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Groups != nil {
		out.Groups = overlay.Groups
	}
	if overlay.Layouts != nil {
		out.Layouts = overlay.Layouts
	}
	if overlay.Border != nil {
		if out.Border == nil {
			out.Border = &RawBorder{}
		} else {
			b := *out.Border
			out.Border = &b
		}
		if overlay.Border.Width != nil {
			out.Border.Width = overlay.Border.Width
		}
		if overlay.Border.FocusColor != nil {
			out.Border.FocusColor = overlay.Border.FocusColor
		}
		if overlay.Border.NormalColor != nil {
			out.Border.NormalColor = overlay.Border.NormalColor
		}
	}
	if overlay.Gap != nil {
		out.Gap = overlay.Gap
	}
	if overlay.Bars != nil {
		if out.Bars == nil {
			out.Bars = &RawBars{}
		} else {
			b := *out.Bars
			out.Bars = &b
		}
		if overlay.Bars.Top != nil {
			out.Bars.Top = overlay.Bars.Top
		}
		if overlay.Bars.Bottom != nil {
			out.Bars.Bottom = overlay.Bars.Bottom
		}
		if overlay.Bars.Left != nil {
			out.Bars.Left = overlay.Bars.Left
		}
		if overlay.Bars.Right != nil {
			out.Bars.Right = overlay.Bars.Right
		}
	}
	if overlay.FollowMouseFocus != nil {
		out.FollowMouseFocus = overlay.FollowMouseFocus
	}
	if overlay.CursorWarp != nil {
		out.CursorWarp = overlay.CursorWarp
	}
	out.Keys = appendCopy(out.Keys, overlay.Keys)
	out.Mouse = appendCopy(out.Mouse, overlay.Mouse)
	out.FloatRules = appendCopy(out.FloatRules, overlay.FloatRules)
	out.GroupRules = appendCopy(out.GroupRules, overlay.GroupRules)
	if overlay.IgnoreEvents != nil {
		out.IgnoreEvents = overlay.IgnoreEvents
	}
	if overlay.SocketPrefix != nil {
		out.SocketPrefix = overlay.SocketPrefix
	}
	if overlay.ControlTimeout != nil {
		out.ControlTimeout = overlay.ControlTimeout
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = overlay.LogFormat
	}
	return out
}

func appendCopy[T any](base, more []T) []T {
	if more == nil {
		return base
	}
	out := make([]T, 0, len(base)+len(more))
	return append(append(out, base...), more...)
}

// BuildEffectiveConfig lays raw over the defaults. Configured key and mouse
// bindings replace the default ones wholesale; without configured keys the
// per-group defaults follow the configured groups.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Groups != nil {
		cfg.Groups = raw.Groups
	}
	if raw.Layouts != nil {
		cfg.Layouts = raw.Layouts
	}
	if raw.Border != nil {
		if raw.Border.Width != nil {
			cfg.Border.Width = *raw.Border.Width
		}
		if raw.Border.FocusColor != nil {
			cfg.Border.FocusColor = *raw.Border.FocusColor
		}
		if raw.Border.NormalColor != nil {
			cfg.Border.NormalColor = *raw.Border.NormalColor
		}
	}
	if raw.Gap != nil {
		cfg.Gap = *raw.Gap
	}
	if raw.Bars != nil {
		if raw.Bars.Top != nil {
			cfg.Bars.Top = *raw.Bars.Top
		}
		if raw.Bars.Bottom != nil {
			cfg.Bars.Bottom = *raw.Bars.Bottom
		}
		if raw.Bars.Left != nil {
			cfg.Bars.Left = *raw.Bars.Left
		}
		if raw.Bars.Right != nil {
			cfg.Bars.Right = *raw.Bars.Right
		}
	}
	if raw.FollowMouseFocus != nil {
		cfg.FollowMouseFocus = *raw.FollowMouseFocus
	}
	if raw.CursorWarp != nil {
		cfg.CursorWarp = *raw.CursorWarp
	}
	if raw.Keys != nil {
		cfg.Keys = raw.Keys
	} else if raw.Groups != nil {
		cfg.Keys = defaultKeys(cfg.Groups)
	}
	if raw.Mouse != nil {
		cfg.Mouse = raw.Mouse
	}
	cfg.FloatRules = raw.FloatRules
	cfg.GroupRules = raw.GroupRules
	if raw.IgnoreEvents != nil {
		cfg.IgnoreEvents = raw.IgnoreEvents
	}
	if raw.SocketPrefix != nil {
		cfg.SocketPrefix = *raw.SocketPrefix
	}
	if raw.ControlTimeout != nil {
		cfg.ControlTimeout = *raw.ControlTimeout
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	return cfg
}

// Request converts the command to a control request.
func (c Command) Request() (ipc.Request, error) {
	if c.Name == "" {
		return ipc.Request{}, fmt.Errorf("command name is required")
	}
	req := ipc.Request{Name: c.Name, Args: c.Args, Kwargs: c.Kwargs}
	for _, pair := range c.Selectors {
		if len(pair) == 0 || len(pair) > 2 {
			return ipc.Request{}, fmt.Errorf("selector must be [kind] or [kind, key], got %v", pair)
		}
		kind, ok := pair[0].(string)
		if !ok {
			return ipc.Request{}, fmt.Errorf("selector kind %v is not a string", pair[0])
		}
		sel := ipc.Selector{Kind: kind}
		if len(pair) == 2 {
			switch key := pair[1].(type) {
			case nil, string, int:
				sel.Key = key
			default:
				return ipc.Request{}, fmt.Errorf("selector key %v must be a string, an integer or null", key)
			}
		}
		req.Selectors = append(req.Selectors, sel)
	}
	return req, nil
}
