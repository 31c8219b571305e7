// Package daemon implements the legion server: the per-connection request
// loop, the request handler and the command history.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/d2verb/legion/internal/protocol"
)

// DefaultAcceptTimeout is how long the server waits for a client before shutting down.
const DefaultAcceptTimeout = 60 * time.Second

// Server accepts one client connection at a time and serves its requests
// until the client leaves, the connection fails, or a server_exit is handled.
type Server struct {
	addr          string
	acceptTimeout time.Duration
	handler       *Handler
	logger        *slog.Logger

	listener  net.Listener
	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	active net.Conn
}

// NewServer creates a server for addr. A non-positive acceptTimeout waits
// for clients indefinitely.
func NewServer(addr string, acceptTimeout time.Duration, handler *Handler, logger *slog.Logger) *Server {
	return &Server{
		addr:          addr,
		acceptTimeout: acceptTimeout,
		handler:       handler,
		logger:        logger,
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	if err := validateAddr(s.addr); err != nil {
		return err
	}

	s.logger.Info("starting server", "addr", s.addr)
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.logger.Info("server started", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen succeeds.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds and serves until shutdown. The listener is always released.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		s.Close()
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections sequentially. It returns nil when the accept
// timeout expires, ctx is canceled or a client requested server_exit.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
			s.closeActive()
		case <-stop:
		}
	}()

	for {
		if s.acceptTimeout > 0 {
			if dl, ok := s.listener.(interface{ SetDeadline(time.Time) error }); ok {
				_ = dl.SetDeadline(time.Now().Add(s.acceptTimeout))
			}
		}

		s.logger.Info("waiting for client", "addr", s.listener.Addr().String())
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("shutdown requested")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout exceeded", "timeout", s.acceptTimeout)
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			return err
		}

		s.logger.Info("client connected", "remote", conn.RemoteAddr().String())
		if exit := s.serveConn(ctx, conn); exit {
			s.logger.Info("server exit requested by client")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close releases the listener. It is safe to call more than once and before Listen.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if s.listener == nil {
			s.logger.Error("cannot shut down a server that was never started")
			return
		}
		s.logger.Info("shutting down server")
		s.closeErr = s.listener.Close()
		if errors.Is(s.closeErr, net.ErrClosed) {
			s.closeErr = nil
		}
	})
	return s.closeErr
}

// serveConn runs the request loop for one connection and reports whether
// the server should stop.
//
// await request -> dispatch -> send response -> await request, until the
// stream fails or a SERVER_EXIT response has been sent.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) bool {
	s.setActive(conn)
	defer s.setActive(nil)

	codec := protocol.NewCodec(conn)
	defer codec.Close()

	remote := conn.RemoteAddr().String()
	exchanges := 0
	for {
		var req protocol.Request
		if err := codec.Decode(&req); err != nil {
			switch {
			case protocol.IsProtocolError(err):
				s.logger.Error("could not read request", "remote", remote, "error", err)
			case ctx.Err() != nil:
				s.logger.Info("connection closed for shutdown", "remote", remote)
			case exchanges == 0:
				s.logger.Warn("unexpected disconnection", "remote", remote, "error", err)
			default:
				s.logger.Info("client disconnected", "remote", remote, "exchanges", exchanges)
			}
			return false
		}

		resp := s.handler.Handle(ctx, &req)

		if err := codec.Encode(resp); err != nil {
			s.logger.Warn("could not send response", "remote", remote, "command", req.Command, "error", err)
			return resp.Result == protocol.ResultServerExit
		}
		exchanges++
		s.logger.Info("request processed", "command", req.Command, "result", string(resp.Result))

		if resp.Result == protocol.ResultServerExit {
			return true
		}
	}
}

func (s *Server) setActive(conn net.Conn) {
	s.mu.Lock()
	s.active = conn
	s.mu.Unlock()
}

func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Close()
	}
}

func validateAddr(addr string) error {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return &ConfigurationError{Addr: addr, Reason: err.Error()}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return &ConfigurationError{Addr: addr, Reason: "port must be a number"}
	}
	if port < 0 || port > 65535 {
		return &ConfigurationError{Addr: addr, Reason: "port is out of range"}
	}
	return nil
}
