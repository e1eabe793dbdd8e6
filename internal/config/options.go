package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/layout"
	"github.com/orionwm/orion/internal/wm"
)

// Style returns the decoration shared by every layout.
func (c *Config) Style() (layout.Style, error) {
	focus, err := ParseColor(c.Border.FocusColor)
	if err != nil {
		return layout.Style{}, err
	}
	normal, err := ParseColor(c.Border.NormalColor)
	if err != nil {
		return layout.Style{}, err
	}
	return layout.Style{
		Border:      c.Border.Width,
		FocusColor:  focus,
		NormalColor: normal,
		Gap:         c.Gap,
	}, nil
}

// ManagerOptions converts a validated configuration into window manager
// options.
func (c *Config) ManagerOptions(logger *log.Entry) (wm.Options, error) {
	style, err := c.Style()
	if err != nil {
		return wm.Options{}, err
	}

	opts := wm.Options{
		Groups:           append([]string(nil), c.Groups...),
		Floating:         &layout.Floating{Style: style},
		Gaps:             wm.Gaps{Top: c.Bars.Top, Bottom: c.Bars.Bottom, Left: c.Bars.Left, Right: c.Bars.Right},
		FollowMouseFocus: c.FollowMouseFocus,
		CursorWarp:       c.CursorWarp,
		IgnoreEvents:     c.IgnoreEvents,
		Display:          c.Display,
		Logger:           logger,
	}
	if opts.Display == "" {
		opts.Display = os.Getenv("DISPLAY")
	}

	for i, l := range c.Layouts {
		built, err := layout.New(l.Name, style, layout.Options{
			Ratio:           l.Ratio,
			Masters:         l.Masters,
			MaxStackRows:    l.MaxStackRows,
			FlexibleLastRow: l.FlexibleLastRow,
		})
		if err != nil {
			return wm.Options{}, fmt.Errorf("layouts.%d: %w", i, err)
		}
		opts.Layouts = append(opts.Layouts, built)
	}

	for i, k := range c.Keys {
		reqs, err := requests(k.Commands)
		if err != nil {
			return wm.Options{}, fmt.Errorf("keys.%d: %w", i, err)
		}
		opts.Keys = append(opts.Keys, wm.KeyBinding{Key: k.Key, Commands: reqs})
	}

	for i, m := range c.Mouse {
		reqs, err := requests(m.Commands)
		if err != nil {
			return wm.Options{}, fmt.Errorf("mouse.%d: %w", i, err)
		}
		binding := wm.MouseBinding{Button: m.Button, Drag: m.Drag, Commands: reqs}
		if m.Start != nil {
			start, err := m.Start.Request()
			if err != nil {
				return wm.Options{}, fmt.Errorf("mouse.%d.start: %w", i, err)
			}
			binding.Start = &start
		}
		opts.Mouse = append(opts.Mouse, binding)
	}

	for _, r := range c.FloatRules {
		opts.FloatRules = append(opts.FloatRules, wm.FloatRule{Class: r.Class, Instance: r.Instance, Role: r.Role, Title: r.Title})
	}
	for _, r := range c.GroupRules {
		opts.GroupRules = append(opts.GroupRules, wm.GroupRule{Class: r.Class, Instance: r.Instance, Role: r.Role, Group: r.Group})
	}
	return opts, nil
}

func requests(cmds []Command) ([]ipc.Request, error) {
	out := make([]ipc.Request, 0, len(cmds))
	for i, cmd := range cmds {
		req, err := cmd.Request()
		if err != nil {
			return nil, fmt.Errorf("commands.%d: %w", i, err)
		}
		out = append(out, req)
	}
	return out, nil
}
