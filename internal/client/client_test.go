package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/d2verb/legion/internal/collection"
	"github.com/d2verb/legion/internal/command"
	"github.com/d2verb/legion/internal/daemon"
	"github.com/d2verb/legion/internal/marine"
	"github.com/d2verb/legion/internal/protocol"
	"github.com/d2verb/legion/internal/shell"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// scriptedSource replays requests and records the results it was given.
type scriptedSource struct {
	reqs  []*protocol.Request
	final error
	prevs []protocol.Result
	next  int
}

func (s *scriptedSource) Next(prev protocol.Result) (*protocol.Request, error) {
	s.prevs = append(s.prevs, prev)
	if s.next >= len(s.reqs) {
		if s.final != nil {
			return nil, s.final
		}
		return nil, io.EOF
	}
	r := s.reqs[s.next]
	s.next++
	return r, nil
}

func requests(names ...string) []*protocol.Request {
	reqs := make([]*protocol.Request, len(names))
	for i, n := range names {
		reqs[i] = protocol.NewRequest(n, protocol.Argument{})
	}
	return reqs
}

// countingDial wraps the real dialer and counts calls.
func countingDial(calls *atomic.Int32) DialFunc {
	d := &net.Dialer{Timeout: time.Second}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls.Add(1)
		return d.DialContext(ctx, network, addr)
	}
}

func failingDial(calls *atomic.Int32) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}
}

// fakeServer accepts connections and hands each one to the next handler.
func fakeServer(t *testing.T, handlers ...func(net.Conn)) net.Listener {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		for _, h := range handlers {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			h(conn)
		}
	}()
	return l
}

// echoOK answers every request with OK until the peer leaves.
func echoOK(conn net.Conn) {
	codec := protocol.NewCodec(conn)
	defer codec.Close()
	for {
		var req protocol.Request
		if err := codec.Decode(&req); err != nil {
			return
		}
		if err := codec.Encode(protocol.NewResponse(req.ID, protocol.ResultOK, "done: "+req.Command)); err != nil {
			return
		}
	}
}

// dropAfterRequest reads one request and hangs up without answering.
func dropAfterRequest(conn net.Conn) {
	codec := protocol.NewCodec(conn)
	var req protocol.Request
	_ = codec.Decode(&req)
	codec.Close()
}

func noSleep(sleeps *atomic.Int32) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		sleeps.Add(1)
		return nil
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{Addr: "localhost:54353"}, io.Discard)

	if c.logger == nil {
		t.Error("logger = nil, want a discarding logger")
	}
	if c.maxAttempts != DefaultMaxAttempts {
		t.Errorf("maxAttempts = %d, want %d", c.maxAttempts, DefaultMaxAttempts)
	}
	if c.State() != Disconnected {
		t.Errorf("State() = %v, want %v", c.State(), Disconnected)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Disconnected, "disconnected"},
		{Connecting, "connecting"},
		{Connected, "connected"},
		{Exchanging, "exchanging"},
		{Terminated, "terminated"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestClient_Run_ConfigurationError(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"missing port", "localhost"},
		{"port zero", "localhost:0"},
		{"port out of range", "localhost:70000"},
		{"port not a number", "localhost:http"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var dials atomic.Int32
			var out bytes.Buffer
			c := New(Options{Addr: tt.addr}, &out)
			c.SetDialFunc(failingDial(&dials))

			// Act
			err := c.Run(context.Background(), &scriptedSource{})

			// Assert
			if !IsConfigurationError(err) {
				t.Errorf("Run() error = %v, want ConfigurationError", err)
			}
			if dials.Load() != 0 {
				t.Errorf("dialed %d times, want 0", dials.Load())
			}
			if c.State() != Terminated {
				t.Errorf("State() = %v, want %v", c.State(), Terminated)
			}
		})
	}
}

func TestClient_Run_AttemptsExhausted(t *testing.T) {
	// Arrange
	var dials, sleeps atomic.Int32
	var out bytes.Buffer
	c := New(Options{Addr: "127.0.0.1:4000", ReconnectDelay: time.Second, MaxAttempts: 3}, &out)
	c.SetDialFunc(failingDial(&dials))
	c.SetSleepFunc(noSleep(&sleeps))
	src := &scriptedSource{reqs: requests("show")}

	// Act
	err := c.Run(context.Background(), src)

	// Assert
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("Run() error = %v, want ErrAttemptsExhausted", err)
	}
	if !IsConnectionError(err) {
		t.Errorf("Run() error = %v, want to wrap the last ConnectionError", err)
	}
	if dials.Load() != 3 {
		t.Errorf("dialed %d times, want 3", dials.Load())
	}
	if sleeps.Load() != 2 {
		t.Errorf("slept %d times, want 2", sleeps.Load())
	}
	if c.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", c.Attempts())
	}
	if len(src.prevs) != 0 {
		t.Errorf("source consulted %d times before connecting, want 0", len(src.prevs))
	}
	if !strings.Contains(out.String(), ErrAttemptsExhausted.Error()) {
		t.Errorf("output = %q, want exhaustion message", out.String())
	}
}

func TestClient_Run_NonPositiveDelayRetriesImmediately(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{"zero", 0},
		{"negative", -5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dials, sleeps atomic.Int32
			var out bytes.Buffer
			c := New(Options{Addr: "127.0.0.1:4000", ReconnectDelay: tt.delay, MaxAttempts: 2}, &out)
			c.SetDialFunc(failingDial(&dials))
			c.SetSleepFunc(noSleep(&sleeps))

			err := c.Run(context.Background(), &scriptedSource{})

			if !errors.Is(err, ErrAttemptsExhausted) {
				t.Errorf("Run() error = %v, want ErrAttemptsExhausted", err)
			}
			if sleeps.Load() != 0 {
				t.Errorf("slept %d times, want 0", sleeps.Load())
			}
			if dials.Load() != 2 {
				t.Errorf("dialed %d times, want 2", dials.Load())
			}
			if !strings.Contains(out.String(), "reconnecting immediately") {
				t.Errorf("output = %q, want immediate retry warning", out.String())
			}
		})
	}
}

func TestClient_Run_ConnectsAfterFailedAttempt(t *testing.T) {
	// Arrange
	l := fakeServer(t, echoOK)
	var dials atomic.Int32
	dialReal := countingDial(&dials)
	var out bytes.Buffer
	c := New(Options{Addr: l.Addr().String(), ReconnectDelay: time.Millisecond}, &out)
	c.SetDialFunc(func(ctx context.Context, network, addr string) (net.Conn, error) {
		if dials.Load() == 0 {
			dials.Add(1)
			return nil, errors.New("connection refused")
		}
		return dialReal(ctx, network, addr)
	})
	src := &scriptedSource{reqs: requests("info")}

	// Act
	err := c.Run(context.Background(), src)

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c.Attempts() != 1 {
		t.Errorf("Attempts() = %d, want 1", c.Attempts())
	}
	if !strings.Contains(out.String(), "done: info") {
		t.Errorf("output = %q, want response body", out.String())
	}
}

func TestClient_Run_FeedsResultsToSource(t *testing.T) {
	l := fakeServer(t, func(conn net.Conn) {
		codec := protocol.NewCodec(conn)
		defer codec.Close()
		for _, result := range []protocol.Result{protocol.ResultError, protocol.ResultOK} {
			var req protocol.Request
			if err := codec.Decode(&req); err != nil {
				return
			}
			_ = codec.Encode(protocol.NewResponse(req.ID, result, ""))
		}
	})
	c := New(Options{Addr: l.Addr().String()}, io.Discard)
	src := &scriptedSource{reqs: []*protocol.Request{
		protocol.NewRequest("remove_by_id", protocol.TextArg("7")),
		{}, // empty requests are skipped
		protocol.NewRequest("show", protocol.Argument{}),
	}}

	if err := c.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []protocol.Result{protocol.ResultOK, protocol.ResultError, protocol.ResultOK, protocol.ResultOK}
	if len(src.prevs) != len(want) {
		t.Fatalf("prevs = %v, want %v", src.prevs, want)
	}
	for i := range want {
		if src.prevs[i] != want[i] {
			t.Errorf("prevs[%d] = %q, want %q", i, src.prevs[i], want[i])
		}
	}
}

func TestClient_Run_ExitAndEOFTerminate(t *testing.T) {
	tests := []struct {
		name  string
		final error
	}{
		{"exit command", shell.ErrExit},
		{"end of input", io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received atomic.Int32
			l := fakeServer(t, func(conn net.Conn) {
				codec := protocol.NewCodec(conn)
				defer codec.Close()
				var req protocol.Request
				if codec.Decode(&req) == nil {
					received.Add(1)
				}
			})
			c := New(Options{Addr: l.Addr().String()}, io.Discard)

			err := c.Run(context.Background(), &scriptedSource{final: tt.final})

			if err != nil {
				t.Errorf("Run() error = %v, want nil", err)
			}
			if c.State() != Terminated {
				t.Errorf("State() = %v, want %v", c.State(), Terminated)
			}
			time.Sleep(20 * time.Millisecond)
			if received.Load() != 0 {
				t.Error("server received a request, want none")
			}
		})
	}
}

func TestClient_Run_InlineReconnectAfterBrokenExchange(t *testing.T) {
	// Arrange
	l := fakeServer(t, dropAfterRequest, echoOK)
	var dials atomic.Int32
	var out bytes.Buffer
	c := New(Options{Addr: l.Addr().String()}, &out)
	c.SetDialFunc(countingDial(&dials))
	src := &scriptedSource{reqs: requests("add_if_max", "show")}

	// Act
	err := c.Run(context.Background(), src)

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dials.Load() != 2 {
		t.Errorf("dialed %d times, want 2", dials.Load())
	}
	output := out.String()
	if !strings.Contains(output, "the connection to the server is broken") {
		t.Errorf("output = %q, want broken connection notice", output)
	}
	if !strings.Contains(output, "command 'add_if_max' may not have been executed") {
		t.Errorf("output = %q, want lost command notice", output)
	}
	if !strings.Contains(output, "done: show") {
		t.Errorf("output = %q, want the next command to succeed", output)
	}
	if src.prevs[1] != protocol.ResultError {
		t.Errorf("prev after broken exchange = %q, want %q", src.prevs[1], protocol.ResultError)
	}
}

func TestClient_Run_InlineReconnectFails(t *testing.T) {
	tests := []struct {
		name    string
		command string
		message string
	}{
		{"regular command", "show", "try to repeat the command later"},
		{"server exit", protocol.CmdServerExit, "the command will not be registered on the server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			l := fakeServer(t, func(conn net.Conn) {
				dropAfterRequest(conn)
			})
			addr := l.Addr().String()
			var dials, sleeps atomic.Int32
			dialReal := countingDial(&dials)
			var out bytes.Buffer
			c := New(Options{Addr: addr, ReconnectDelay: time.Second, MaxAttempts: 3}, &out)
			c.SetSleepFunc(noSleep(&sleeps))
			c.SetDialFunc(func(ctx context.Context, network, a string) (net.Conn, error) {
				if dials.Load() >= 1 {
					dials.Add(1)
					return nil, errors.New("connection refused")
				}
				return dialReal(ctx, network, a)
			})
			src := &scriptedSource{reqs: requests(tt.command, "info")}

			// Act
			err := c.Run(context.Background(), src)

			// Assert
			if !errors.Is(err, ErrAttemptsExhausted) {
				t.Fatalf("Run() error = %v, want ErrAttemptsExhausted", err)
			}
			if !strings.Contains(out.String(), tt.message) {
				t.Errorf("output = %q, want %q", out.String(), tt.message)
			}
			// One successful dial, then exactly three failed ones.
			if dials.Load() != 4 {
				t.Errorf("dialed %d times, want 4", dials.Load())
			}
			if c.Attempts() != 3 {
				t.Errorf("Attempts() = %d, want 3", c.Attempts())
			}
		})
	}
}

func TestClient_Run_UnencodableRequestKeepsConnection(t *testing.T) {
	// Arrange
	l := fakeServer(t, echoOK)
	bad := &marine.SpaceMarine{
		Name:        "Titus",
		Coordinates: marine.Coordinates{X: 1, Y: math.NaN()},
		Health:      100,
		HeartCount:  2,
		MeleeWeapon: marine.PowerSword,
		Chapter:     marine.Chapter{Name: "Ultramarines"},
	}
	src := &scriptedSource{reqs: []*protocol.Request{
		protocol.NewRequest(protocol.CmdAdd, protocol.MarineArg(bad)),
		protocol.NewRequest(protocol.CmdShow, protocol.Argument{}),
	}}
	var dials atomic.Int32
	var out bytes.Buffer
	c := New(Options{Addr: l.Addr().String()}, &out)
	c.SetDialFunc(countingDial(&dials))

	// Act
	err := c.Run(context.Background(), src)

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dials.Load() != 1 {
		t.Errorf("dialed %d times, want 1", dials.Load())
	}
	output := out.String()
	if !strings.Contains(output, "command 'add' was not sent") {
		t.Errorf("output = %q, want local send failure", output)
	}
	if strings.Contains(output, "connection to the server is broken") {
		t.Errorf("output = %q, want connection kept", output)
	}
	if !strings.Contains(output, "done: show") {
		t.Errorf("output = %q, want next command answered", output)
	}
	if len(src.prevs) < 2 || src.prevs[1] != protocol.ResultError {
		t.Errorf("prevs = %v, want ERROR after the unsent command", src.prevs)
	}
}

func TestClient_Run_IDMismatchBreaksExchange(t *testing.T) {
	l := fakeServer(t, func(conn net.Conn) {
		codec := protocol.NewCodec(conn)
		defer codec.Close()
		var req protocol.Request
		if codec.Decode(&req) == nil {
			_ = codec.Encode(protocol.NewResponse("someone-else", protocol.ResultOK, "stray"))
		}
		_ = codec.Decode(&req)
	}, echoOK)
	var out bytes.Buffer
	c := New(Options{Addr: l.Addr().String()}, &out)

	err := c.Run(context.Background(), &scriptedSource{reqs: requests("show")})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "stray") {
		t.Errorf("output = %q, mismatched response body must not be printed", out.String())
	}
	if !strings.Contains(out.String(), "does not match") {
		t.Errorf("output = %q, want mismatch reported", out.String())
	}
}

func TestClient_Run_CanceledContext(t *testing.T) {
	var dials atomic.Int32
	c := New(Options{Addr: "127.0.0.1:4000"}, io.Discard)
	c.SetDialFunc(failingDial(&dials))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, &scriptedSource{})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if dials.Load() != 0 {
		t.Errorf("dialed %d times, want 0", dials.Load())
	}
}

// startDaemon runs a real server with an empty collection.
func startDaemon(t *testing.T) (string, *collection.Store, <-chan error) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := collection.New()
	history := daemon.NewHistory(daemon.DefaultHistorySize)
	registry := command.NewDefaultRegistry(command.Deps{Store: store, History: history})
	srv := daemon.NewServer("127.0.0.1:0", 0, daemon.NewHandler(registry, history, logger), logger)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(cancel)

	return srv.Addr().String(), store, done
}

func TestClient_EndToEnd(t *testing.T) {
	// Arrange
	addr, store, done := startDaemon(t)
	titus := &marine.SpaceMarine{
		Name:        "Titus",
		Coordinates: marine.Coordinates{X: 1, Y: 1},
		Health:      100,
		HeartCount:  2,
		Height:      210,
		MeleeWeapon: marine.ChainSword,
		Chapter:     marine.Chapter{Name: "Ultramarines"},
	}
	src := &scriptedSource{reqs: []*protocol.Request{
		protocol.NewRequest(protocol.CmdAdd, protocol.MarineArg(titus)),
		protocol.NewRequest(protocol.CmdShow, protocol.Argument{}),
		protocol.NewRequest(protocol.CmdRemoveByID, protocol.TextArg("abc")),
		protocol.NewRequest(protocol.CmdServerExit, protocol.Argument{}),
		protocol.NewRequest(protocol.CmdInfo, protocol.Argument{}),
	}}
	var dials atomic.Int32
	var out bytes.Buffer
	c := New(Options{Addr: addr}, &out)
	c.SetDialFunc(countingDial(&dials))

	// Act
	err := c.Run(context.Background(), src)

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "id: 1\n") {
		t.Errorf("output = %q, want record with id 1", output)
	}
	if strings.Count(output, command.Delimiter) != 1 {
		t.Errorf("output = %q, want exactly one listed record", output)
	}
	if !strings.Contains(output, "id must be an integer") {
		t.Errorf("output = %q, want numeric id error", output)
	}
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
	if src.next != 4 {
		t.Errorf("source consumed %d requests, want 4 (nothing after server_exit)", src.next)
	}
	if dials.Load() != 1 {
		t.Errorf("dialed %d times, want 1 (no reconnection after server exit)", dials.Load())
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server still running after server_exit")
	}
}
