// Package mcp exposes the control socket to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/ipc"
)

const (
	ServerName    = "orion"
	ServerVersion = "0.1.0"
)

// Caller sends one request over the control socket. *ipc.Client
// implements it.
type Caller interface {
	Call(req *ipc.Request) (*ipc.Response, error)
	Close() error
}

// Dialer opens a fresh connection for each tool call.
type Dialer func() (Caller, error)

// SocketDialer dials the control socket at path.
func SocketDialer(path string, timeout time.Duration) Dialer {
	return func() (Caller, error) {
		return ipc.Dial(path, timeout)
	}
}

// Server is the MCP server for window manager control.
type Server struct {
	mcpServer *mcpsdk.Server
	dial      Dialer
	log       *log.Entry
}

// NewServer creates a server that forwards tool calls through dial.
func NewServer(dial Dialer, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Server{
		dial: dial,
		log:  logger.WithField("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until the client hangs up or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_command",
		Description: "Run one window manager command. Selectors walk from the root to the target object (screen, group, window, layout or bar); the command runs there. Call with name \"commands\" to list what an object accepts.",
	}, s.handleCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List managed windows with their group, geometry and floating state.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_groups",
		Description: "List groups in configured order with their windows, current layout and the screen showing them.",
	}, s.handleListGroups)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_screens",
		Description: "List physical screens with their geometry, usable area and displayed group.",
	}, s.handleListScreens)
}

// call performs one request and turns ERROR and EXCEPTION replies into
// errors, which the SDK reports to the client as tool errors.
func (s *Server) call(req *ipc.Request) (*ipc.Response, error) {
	c, err := s.dial()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	resp, err := c.Call(req)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(log.Fields{"command": req.Name, "status": resp.Status}).Debug("control call")
	switch resp.Status {
	case ipc.StatusSuccess:
		return resp, nil
	case ipc.StatusException:
		return nil, fmt.Errorf("%s failed inside the window manager: %s", req.Name, resp.Error)
	default:
		return nil, fmt.Errorf("%s: %s", req.Name, resp.Error)
	}
}

// query runs a root command and decodes its data into v.
func (s *Server) query(name string, v any) error {
	resp, err := s.call(&ipc.Request{Name: name})
	if err != nil {
		return err
	}
	return resp.Decode(v)
}
