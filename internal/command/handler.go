package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/udisondev/villagerloot/internal/model"
	"github.com/udisondev/villagerloot/internal/settings"
)

// Command failures. Handlers wrap them so Execute can pick the reply.
var (
	ErrInvalidCaller    = errors.New("command requires a player")
	ErrPermissionDenied = errors.New("operator permission required")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Replies for failures that carry no detail of their own.
const (
	MsgInvalidCaller = "§cThis command can only be run by a player."
	MsgStorageFailed = "§cFailed to save the setting. Please try again later."
	MsgFailed        = "§cCommand failed."
)

// Command is one settings action.
type Command interface {
	// Handle executes the action. args includes the action name at [0].
	// The returned string is shown to the caller on success.
	Handle(ctx context.Context, caller *model.Player, args []string) (string, error)
	// Names returns all registered action names.
	Names() []string
}

// Result is the status returned to the host command dispatcher.
type Result struct {
	OK      bool
	Message string
}

// Handler dispatches actions by name.
// Commands are registered once at startup, then read-only.
type Handler struct {
	mu   sync.RWMutex
	cmds map[string]Command // lowercase name → Command
}

// NewHandler creates an empty command handler.
func NewHandler() *Handler {
	return &Handler{cmds: make(map[string]Command, 8)}
}

// Register registers a command under all of its names, case-insensitively.
func (h *Handler) Register(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range cmd.Names() {
		h.cmds[strings.ToLower(name)] = cmd
	}
}

// CommandCount returns number of registered names.
func (h *Handler) CommandCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cmds)
}

// Execute runs one command line (action name plus optional argument) on
// behalf of caller. Failures never panic out of Execute; they become a
// failed Result with a message for the caller.
func (h *Handler) Execute(ctx context.Context, caller *model.Player, line string) (res Result) {
	if caller == nil {
		slog.Warn("settings command without player", "command", line)
		return Result{Message: MsgInvalidCaller}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("settings command panicked",
				"player", caller.Name(),
				"command", line,
				"panic", r)
			res = Result{Message: MsgFailed}
		}
	}()

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return h.failure(caller, line, fmt.Errorf("%w: empty command", ErrUnknownAction))
	}
	name := strings.ToLower(parts[0])
	parts[0] = name

	h.mu.RLock()
	cmd, ok := h.cmds[name]
	h.mu.RUnlock()
	if !ok {
		return h.failure(caller, line, fmt.Errorf("%w: %s", ErrUnknownAction, name))
	}

	msg, err := cmd.Handle(ctx, caller, parts)
	if err != nil {
		return h.failure(caller, line, err)
	}

	slog.Debug("settings command",
		"player", caller.Name(),
		"command", line)
	return Result{OK: true, Message: msg}
}

func (h *Handler) failure(caller *model.Player, line string, err error) Result {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		slog.Warn("settings command access denied",
			"player", caller.Name(),
			"command", line,
			"accessLevel", caller.AccessLevel())
		return Result{Message: "§c" + capitalize(err.Error()) + "."}
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrInvalidArgument):
		return Result{Message: "§c" + capitalize(err.Error()) + ". Type help for usage."}
	case errors.Is(err, ErrInvalidCaller):
		return Result{Message: MsgInvalidCaller}
	case errors.Is(err, settings.ErrStorage):
		slog.Error("settings command storage failure",
			"player", caller.Name(),
			"command", line,
			"error", err)
		return Result{Message: MsgStorageFailed}
	default:
		slog.Error("settings command failed",
			"player", caller.Name(),
			"command", line,
			"error", err)
		return Result{Message: MsgFailed}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseBool accepts true/false, on/off, 1/0 and yes/no, case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true, nil
	case "false", "off", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not true or false", ErrInvalidArgument, s)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
