package repl

import (
	"github.com/dshills/replstorm/internal/dispatcher/execctx"
	"github.com/dshills/replstorm/internal/dispatcher/handler"
	"github.com/dshills/replstorm/internal/driver"
	"github.com/dshills/replstorm/internal/prompt"
	"github.com/dshills/replstorm/internal/session"
)

// REPL action names.
const (
	ActionSendLine   = "repl.sendLine"   // Send the current or given line
	ActionSendRegion = "repl.sendRegion" // Send the active selection
	ActionSendBuffer = "repl.sendBuffer" // Send the whole buffer
	ActionReadiness  = "repl.readiness"  // Classify the session's prompt state
	ActionSwitch     = "repl.switch"     // Switch to a session by name
	ActionList       = "repl.list"       // Enumerate sessions
	ActionRestart    = "repl.restart"    // Restart the current session
	ActionTerminate  = "repl.terminate"  // Terminate a session
	ActionInterrupt  = "repl.interrupt"  // Send Ctrl-C to the session
	ActionClear      = "repl.clear"      // Clear the display surface
)

// Argument keys.
const (
	argText = "text"
	argName = "name"
)

// Handler handles repl namespace actions over the session registry and
// driver pairing. Failures surface as error results; the registry is
// never left half-mutated.
type Handler struct {
	registry   *session.Registry
	drivers    *driver.Set
	classifier *prompt.Classifier
}

// New creates the repl namespace handler.
func New(registry *session.Registry, drivers *driver.Set, classifier *prompt.Classifier) *Handler {
	return &Handler{
		registry:   registry,
		drivers:    drivers,
		classifier: classifier,
	}
}

// Namespace returns the repl namespace.
func (h *Handler) Namespace() string {
	return "repl"
}

// CanHandle returns true if this handler can process the action.
func (h *Handler) CanHandle(actionName string) bool {
	switch actionName {
	case ActionSendLine, ActionSendRegion, ActionSendBuffer, ActionReadiness,
		ActionSwitch, ActionList, ActionRestart, ActionTerminate,
		ActionInterrupt, ActionClear:
		return true
	}
	return false
}

// HandleAction processes a repl action.
func (h *Handler) HandleAction(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	switch action.Name {
	case ActionSendLine:
		return h.sendLine(action, ctx)
	case ActionSendRegion:
		return h.sendRegion(ctx)
	case ActionSendBuffer:
		return h.sendBuffer(action, ctx)
	case ActionReadiness:
		return h.readiness(ctx)
	case ActionSwitch:
		return h.switchSession(action, ctx)
	case ActionList:
		return h.list()
	case ActionRestart:
		return h.restart(ctx)
	case ActionTerminate:
		return h.terminate(action, ctx)
	case ActionInterrupt:
		return h.interrupt(ctx)
	case ActionClear:
		return h.clear(ctx)
	default:
		return handler.Errorf("unknown repl action: %s", action.Name)
	}
}

// currentDriver returns the driver for the issuing endpoint.
func (h *Handler) currentDriver(ctx *execctx.ExecutionContext) *driver.Driver {
	return h.drivers.Get(ctx.DriverID)
}

// resolve returns the endpoint's current session, creating it if
// needed.
func (h *Handler) resolve(ctx *execctx.ExecutionContext) (*session.Session, handler.Result) {
	sess, err := h.currentDriver(ctx).Resolve(h.registry)
	if err != nil {
		return nil, handler.Error(err)
	}
	return sess, handler.Result{}
}

// sendLine trims the line and writes it with a guaranteed trailing
// newline. A cursor already at column zero with a character after it
// means the line was just submitted; sending again is a no-op.
func (h *Handler) sendLine(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	var line string
	advance := false

	if action.HasArg(argText) {
		line = action.ArgString(argText)
	} else {
		if ctx.Buffer == nil {
			return handler.Errorf("no buffer for sendLine")
		}
		text, atLineStart, hasCharAfter := ctx.Buffer.CurrentLine()
		if atLineStart && hasCharAfter {
			return handler.NoOp()
		}
		line = text
		advance = true
	}

	sess, res := h.resolve(ctx)
	if res.IsError() {
		return res
	}

	if err := sess.SendLine(line); err != nil {
		return handler.Error(err)
	}

	if advance {
		ctx.Buffer.AdvanceLine()
	}
	return handler.Success()
}

// sendRegion writes the active selection as one chunk, appending a
// newline only when the text does not already end in one.
func (h *Handler) sendRegion(ctx *execctx.ExecutionContext) handler.Result {
	if ctx.Buffer == nil {
		return handler.Errorf("no buffer for sendRegion")
	}

	text, ok := ctx.Buffer.SelectionText()
	if !ok {
		return handler.Errorf("no active region")
	}

	sess, res := h.resolve(ctx)
	if res.IsError() {
		return res
	}

	if err := sess.SendText(text); err != nil {
		return handler.Error(err)
	}
	return handler.Success()
}

// sendBuffer writes the whole buffer as one chunk with the same
// newline normalization as sendRegion.
func (h *Handler) sendBuffer(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	var text string
	if action.HasArg(argText) {
		text = action.ArgString(argText)
	} else {
		if ctx.Buffer == nil {
			return handler.Errorf("no buffer for sendBuffer")
		}
		text = ctx.Buffer.Text()
	}

	sess, res := h.resolve(ctx)
	if res.IsError() {
		return res
	}

	if err := sess.SendText(text); err != nil {
		return handler.Error(err)
	}
	return handler.Success()
}

// readiness classifies the current session's trailing output window.
// An unmatched prompt is "not ready", not an error.
func (h *Handler) readiness(ctx *execctx.ExecutionContext) handler.Result {
	sess, res := h.resolve(ctx)
	if res.IsError() {
		return res
	}

	symbol := h.classifier.Classify(sess.Window())
	return handler.Result{
		Status: handler.StatusOK,
		Data: map[string]any{
			"session": sess.Name(),
			"symbol":  string(symbol),
			"ready":   symbol.Ready(),
		},
	}
}

// switchSession pins the endpoint to the named session, creating it if
// needed, and brings it to the front of the display.
func (h *Handler) switchSession(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	name := action.ArgString(argName)

	sess, err := h.currentDriver(ctx).Switch(h.registry, name)
	if err != nil {
		return handler.Error(err)
	}

	if ctx.Display != nil {
		ctx.Display.ShowSession(sess.Name())
	}
	return handler.SuccessWithData("session", sess.Name())
}

// list enumerates registered sessions in creation order.
func (h *Handler) list() handler.Result {
	return handler.SuccessWithData("sessions", h.registry.Names())
}

// restart replaces the endpoint's current session with a fresh process.
func (h *Handler) restart(ctx *execctx.ExecutionContext) handler.Result {
	sess, err := h.currentDriver(ctx).Restart(h.registry)
	if err != nil {
		return handler.Error(err)
	}
	return handler.SuccessWithData("session", sess.Name())
}

// terminate ends the named session, or the endpoint's current one when
// no name is given. Terminating a dead or unknown session is a no-op.
func (h *Handler) terminate(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
	name := action.ArgString(argName)
	if name == "" {
		sess, ok := h.registry.Get(h.currentDriver(ctx).BoundName())
		if !ok {
			return handler.NoOp()
		}
		name = sess.Name()
	}

	h.registry.Terminate(name)
	return handler.Success()
}

// interrupt sends ETX to the endpoint's current session.
func (h *Handler) interrupt(ctx *execctx.ExecutionContext) handler.Result {
	sess, res := h.resolve(ctx)
	if res.IsError() {
		return res
	}

	if err := sess.Interrupt(); err != nil {
		return handler.Error(err)
	}
	return handler.Success()
}

// clear clears the current session's scrollback and the display.
func (h *Handler) clear(ctx *execctx.ExecutionContext) handler.Result {
	if sess, ok := h.registry.Get(h.currentDriver(ctx).BoundName()); ok {
		sess.Scrollback().Clear()
	}
	if ctx.Display != nil {
		ctx.Display.Clear()
	}
	return handler.Success()
}
