package daemon

import (
	"context"
	"log/slog"

	"github.com/d2verb/legion/internal/command"
	"github.com/d2verb/legion/internal/protocol"
)

// dispatcher runs a named command.
type dispatcher interface {
	Dispatch(ctx context.Context, name string, arg protocol.Argument) command.Result
}

// Handler turns one request into one response.
type Handler struct {
	commands dispatcher
	history  *History
	logger   *slog.Logger
}

// NewHandler creates a request handler.
func NewHandler(commands dispatcher, history *History, logger *slog.Logger) *Handler {
	return &Handler{
		commands: commands,
		history:  history,
		logger:   logger,
	}
}

// Handle records the command in the history, executes it and wraps the
// handler output in a response correlated with the request.
func (h *Handler) Handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	h.history.Add(req.Command)

	res := h.commands.Dispatch(ctx, req.Command, req.Argument)
	result := resultFor(res.Outcome)
	if result == protocol.ResultError {
		h.logger.Debug("command failed", "command", req.Command, "reason", res.Text)
	}
	return protocol.NewResponse(req.ID, result, res.Text)
}

func resultFor(o command.Outcome) protocol.Result {
	switch o {
	case command.Success:
		return protocol.ResultOK
	case command.Exit:
		return protocol.ResultServerExit
	default:
		return protocol.ResultError
	}
}
