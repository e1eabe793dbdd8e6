package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"
)

// DefaultTimeout bounds how long a connection waits for the reactor.
const DefaultTimeout = 5 * time.Second

// maxLine is the longest request line accepted.
const maxLine = 1 << 20

// Call is a request waiting for the reactor. Reply must be called exactly
// once; replies after the connection gave up are dropped.
type Call struct {
	Request *Request
	reply   chan *Response
}

// NewCall wraps req for delivery to the reactor.
func NewCall(req *Request) *Call {
	return &Call{Request: req, reply: make(chan *Response, 1)}
}

// Reply hands the response back to the waiting connection.
func (c *Call) Reply(resp *Response) {
	select {
	case c.reply <- resp:
	default:
	}
}

// ServerOptions configure a control server.
type ServerOptions struct {
	// Timeout bounds the wait for each reply; zero means DefaultTimeout.
	Timeout time.Duration
	// SameUserOnly rejects peers running as another user where the
	// platform reports peer credentials.
	SameUserOnly bool
	Logger       *log.Entry
}

// Server accepts control connections on a unix socket and forwards each
// request line to Calls.
type Server struct {
	path     string
	listener *net.UnixListener
	calls    chan *Call
	opts     ServerOptions
	log      *log.Entry
}

// Listen binds the socket at path, replacing a stale one.
func Listen(path string, opts ServerOptions) (*Server, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to create control socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return &Server{
		path:     path,
		listener: listener,
		calls:    make(chan *Call),
		opts:     opts,
		log:      logger.WithField("socket", path),
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Calls delivers requests in arrival order. The reactor is its only reader.
func (s *Server) Calls() <-chan *Call { return s.calls }

// Serve runs the acceptor under a supervisor until ctx is done, then
// closes the listener and removes the socket.
func (s *Server) Serve(ctx context.Context) error {
	sup := suture.New("control", suture.Spec{
		EventHook: func(e suture.Event) {
			s.log.WithField("event", e.String()).Warn("control supervisor")
		},
	})
	sup.Add(&acceptor{server: s})

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	s.log.Info("control server listening")

	err := sup.Serve(ctx)
	os.Remove(s.path)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// acceptor is the supervised accept loop.
type acceptor struct {
	server *Server
}

func (a *acceptor) Serve(ctx context.Context) error {
	s := a.server
	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return suture.ErrDoNotRestart
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConnection(ctx, conn)
	}
}

func (a *acceptor) String() string { return "control acceptor" }

// handleConnection answers request lines until the peer hangs up.
func (s *Server) handleConnection(ctx context.Context, conn *net.UnixConn) {
	defer conn.Close()

	if s.opts.SameUserOnly {
		if err := checkPeer(conn); err != nil {
			s.log.WithError(err).Warn("rejecting control connection")
			return
		}
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(ctx, line)
		data, err := resp.Marshal()
		if err != nil {
			s.log.WithError(err).Error("marshaling reply")
			data, _ = NewExceptionResponse(err.Error()).Marshal()
		}
		if _, err := conn.Write(append(data, '\n')); err != nil {
			s.log.WithError(err).Debug("writing reply")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.WithError(err).Debug("reading request")
	}
}

// handleLine produces the single reply for one request line.
func (s *Server) handleLine(ctx context.Context, line []byte) *Response {
	req, err := ParseRequest(line)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	call := NewCall(req)
	timer := time.NewTimer(s.opts.Timeout)
	defer timer.Stop()

	select {
	case s.calls <- call:
	case <-timer.C:
		return NewErrorResponse("timed out")
	case <-ctx.Done():
		return NewErrorResponse("shutting down")
	}

	select {
	case resp := <-call.reply:
		if resp == nil {
			return NewExceptionResponse("no reply")
		}
		return resp
	case <-timer.C:
		return NewErrorResponse("timed out")
	case <-ctx.Done():
		return NewErrorResponse("shutting down")
	}
}
