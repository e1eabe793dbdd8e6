package mcp

import (
	"context"
	"fmt"
	"math"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/orionwm/orion/internal/config"
)

// ListInput is the empty input of the list tools.
type ListInput struct{}

func (s *Server) handleCommand(_ context.Context, _ *mcpsdk.CallToolRequest, args CommandInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	selectors := make([][]any, 0, len(args.Selectors))
	for _, pair := range args.Selectors {
		selectors = append(selectors, integralKeys(pair))
	}
	req, err := config.Command{
		Selectors: selectors,
		Name:      args.Name,
		Args:      args.Args,
		Kwargs:    args.Kwargs,
	}.Request()
	if err != nil {
		return nil, CommandOutput{}, err
	}

	resp, err := s.call(&req)
	if err != nil {
		return nil, CommandOutput{}, err
	}
	out := CommandOutput{Status: string(resp.Status)}
	if len(resp.Data) > 0 {
		if err := resp.Decode(&out.Data); err != nil {
			return nil, CommandOutput{}, err
		}
	}
	return nil, out, nil
}

// integralKeys turns JSON numbers used as selector keys back into ints.
func integralKeys(pair []any) []any {
	out := append([]any(nil), pair...)
	if len(out) == 2 {
		if f, ok := out[1].(float64); ok && f == math.Trunc(f) {
			out[1] = int(f)
		}
	}
	return out
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	var windows []WindowInfo
	if err := s.query("windows", &windows); err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if args.Group == "" {
		return nil, ListWindowsOutput{Windows: windows}, nil
	}
	var groups []GroupInfo
	if err := s.listGroups(&groups); err != nil {
		return nil, ListWindowsOutput{}, err
	}
	known := false
	for _, g := range groups {
		known = known || g.Name == args.Group
	}
	if !known {
		return nil, ListWindowsOutput{}, fmt.Errorf("no group named %q", args.Group)
	}

	filtered := windows[:0]
	for _, w := range windows {
		if w.Group == args.Group {
			filtered = append(filtered, w)
		}
	}
	return nil, ListWindowsOutput{Windows: filtered}, nil
}

func (s *Server) handleListGroups(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListInput) (*mcpsdk.CallToolResult, ListGroupsOutput, error) {
	var groups []GroupInfo
	if err := s.listGroups(&groups); err != nil {
		return nil, ListGroupsOutput{}, err
	}
	return nil, ListGroupsOutput{Groups: groups}, nil
}

// listGroups returns groups in configured order. The groups command keys
// them by name, so the order comes from info.
func (s *Server) listGroups(out *[]GroupInfo) error {
	var byName map[string]GroupInfo
	if err := s.query("groups", &byName); err != nil {
		return err
	}
	var info struct {
		Groups []string `json:"groups"`
	}
	if err := s.query("info", &info); err != nil {
		return err
	}

	groups := make([]GroupInfo, 0, len(byName))
	for _, name := range info.Groups {
		if g, ok := byName[name]; ok {
			groups = append(groups, g)
			delete(byName, name)
		}
	}
	// Groups added between the two calls.
	rest := make([]string, 0, len(byName))
	for name := range byName {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		groups = append(groups, byName[name])
	}
	*out = groups
	return nil
}

func (s *Server) handleListScreens(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListInput) (*mcpsdk.CallToolResult, ListScreensOutput, error) {
	var screens []ScreenInfo
	if err := s.query("screens", &screens); err != nil {
		return nil, ListScreensOutput{}, err
	}
	return nil, ListScreensOutput{Screens: screens}, nil
}
