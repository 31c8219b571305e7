// Package client runs a command session against a legion server.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/d2verb/legion/internal/logging"
	"github.com/d2verb/legion/internal/protocol"
	"github.com/d2verb/legion/internal/shell"
	"github.com/d2verb/legion/internal/ui"
)

// Defaults for Options.
const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultMaxAttempts    = 3
	DefaultDialTimeout    = 5 * time.Second
)

// State is the connection state of a session.
type State int

// Session states
const (
	Disconnected State = iota
	Connecting
	Connected
	Exchanging
	Terminated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Exchanging:
		return "exchanging"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Source yields the requests of a session. prev is the result of the last
// exchange. An empty request is skipped.
type Source interface {
	Next(prev protocol.Result) (*protocol.Request, error)
}

// Options configures a Client.
type Options struct {
	Addr string

	// ReconnectDelay is the pause between connection attempts. A non-positive
	// delay retries immediately.
	ReconnectDelay time.Duration

	// MaxAttempts bounds failed connection attempts over the whole session.
	MaxAttempts int

	DialTimeout time.Duration
	Logger      *slog.Logger
}

// DialFunc opens a connection to the server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client runs one session: connect, then exchange requests until the source
// is done, the server exits or the reconnection budget is exhausted.
type Client struct {
	addr           string
	reconnectDelay time.Duration
	maxAttempts    int
	out            io.Writer
	logger         *slog.Logger

	dial  DialFunc
	sleep func(ctx context.Context, d time.Duration) error

	state    State
	attempts int
	codec    protocol.Codec
}

// New creates a client printing session output to out.
func New(opts Options, out io.Writer) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	return &Client{
		addr:           opts.Addr,
		reconnectDelay: opts.ReconnectDelay,
		maxAttempts:    opts.MaxAttempts,
		out:            out,
		logger:         opts.Logger,
		dial:           dialer.DialContext,
		sleep:          sleepContext,
	}
}

// SetDialFunc replaces the function used to open connections.
func (c *Client) SetDialFunc(dial DialFunc) {
	c.dial = dial
}

// SetSleepFunc replaces the function used to wait between attempts.
func (c *Client) SetSleepFunc(sleep func(ctx context.Context, d time.Duration) error) {
	c.sleep = sleep
}

// State returns the current session state.
func (c *Client) State() State {
	return c.state
}

// Attempts returns the number of failed connection attempts so far.
func (c *Client) Attempts() int {
	return c.attempts
}

// Run executes the session. It returns nil when the user leaves or the server
// ends the session, a *ConfigurationError for an unusable address and an
// error wrapping ErrAttemptsExhausted when the server cannot be reached.
func (c *Client) Run(ctx context.Context, src Source) error {
	defer c.terminate()

	if err := validateAddr(c.addr); err != nil {
		ui.FprintError(c.out, err.Error())
		return err
	}

	prev := protocol.ResultOK
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.state == Disconnected {
			if err := c.connect(ctx); err != nil {
				return err
			}
		}

		req, err := src.Next(prev)
		if err != nil {
			if errors.Is(err, shell.ErrExit) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if req.IsEmpty() {
			prev = protocol.ResultOK
			continue
		}

		resp, err := c.exchange(req)
		if protocol.IsEncodeError(err) {
			c.setState(Connected)
			ui.FprintError(c.out, fmt.Sprintf("command '%s' was not sent: %v", req.Command, err))
			prev = protocol.ResultError
			continue
		}
		if err != nil {
			c.recoverExchange(ctx, req, err)
			prev = protocol.ResultError
			continue
		}

		ui.FprintResponse(c.out, resp.Result, resp.Body)
		if resp.Result == protocol.ResultServerExit {
			c.logger.Info("server ended the session")
			return nil
		}
		prev = resp.Result
	}
}

// connect dials under the shared attempt budget, waiting between attempts.
func (c *Client) connect(ctx context.Context) error {
	var lastErr error
	for c.attempts < c.maxAttempts {
		if c.attempts > 0 {
			if err := c.wait(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "reconnecting to the server...")
		}

		err := c.dialOnce(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	ui.FprintError(c.out, ErrAttemptsExhausted.Error())
	if lastErr == nil {
		return fmt.Errorf("%w (%d attempts)", ErrAttemptsExhausted, c.attempts)
	}
	return fmt.Errorf("%w (%d attempts): %w", ErrAttemptsExhausted, c.attempts, lastErr)
}

// dialOnce makes a single connection attempt. A failure counts against the
// attempt budget.
func (c *Client) dialOnce(ctx context.Context) error {
	c.setState(Connecting)
	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		c.attempts++
		c.setState(Disconnected)
		ui.FprintError(c.out, "an error occurred while connecting to the server")
		c.logger.Warn("connection attempt failed", "addr", c.addr, "attempt", c.attempts, "error", err)
		return &ConnectionError{Addr: c.addr, Err: err}
	}

	c.codec = protocol.NewCodec(conn)
	c.setState(Connected)
	fmt.Fprintf(c.out, "connected to the server at %s\n", c.addr)
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.reconnectDelay <= 0 {
		ui.FprintWarning(c.out, fmt.Sprintf("reconnect delay %v is not positive, reconnecting immediately", c.reconnectDelay))
		return nil
	}
	return c.sleep(ctx, c.reconnectDelay)
}

// exchange sends req and waits for the response carrying the same ID.
func (c *Client) exchange(req *protocol.Request) (*protocol.Response, error) {
	c.setState(Exchanging)

	if err := c.codec.Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp protocol.Response
	if err := c.codec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, protocol.MismatchError(req.ID, resp.ID)
	}

	c.setState(Connected)
	return &resp, nil
}

// recoverExchange handles a failed exchange with a single immediate reconnection.
// The in-flight command is never resent.
func (c *Client) recoverExchange(ctx context.Context, req *protocol.Request, cause error) {
	c.disconnect()
	ui.FprintError(c.out, fmt.Sprintf("the connection to the server is broken: %v", cause))
	c.logger.Warn("exchange failed", "command", req.Command, "error", cause)

	if c.attempts < c.maxAttempts && ctx.Err() == nil {
		if err := c.dialOnce(ctx); err == nil {
			ui.FprintWarning(c.out, fmt.Sprintf("command '%s' may not have been executed", req.Command))
			return
		}
	}

	if req.Command == protocol.CmdServerExit {
		fmt.Fprintln(c.out, "the command will not be registered on the server")
	} else {
		fmt.Fprintln(c.out, "try to repeat the command later")
	}
}

func (c *Client) disconnect() {
	if c.codec != nil {
		c.codec.Close()
		c.codec = nil
	}
	c.setState(Disconnected)
}

func (c *Client) terminate() {
	c.disconnect()
	c.setState(Terminated)
}

func (c *Client) setState(s State) {
	if c.state != s {
		c.logger.Debug("session state changed", "from", c.state.String(), "to", s.String())
	}
	c.state = s
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
	if port < 1 || port > 65535 {
		return &ConfigurationError{Addr: addr, Reason: "port is out of range"}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
