package dispatcher

import (
	"strings"
	"testing"

	"github.com/dshills/replstorm/internal/dispatcher/execctx"
	"github.com/dshills/replstorm/internal/dispatcher/handler"
)

// echoNamespace handles "test.*" actions.
type echoNamespace struct {
	calls []string
}

func (e *echoNamespace) Namespace() string { return "test" }

func (e *echoNamespace) CanHandle(name string) bool {
	return name == "test.echo" || name == "test.panic"
}

func (e *echoNamespace) HandleAction(action handler.Action, _ *execctx.ExecutionContext) handler.Result {
	e.calls = append(e.calls, action.Name)
	if action.Name == "test.panic" {
		panic("handler exploded")
	}
	return handler.SuccessWithData("echo", action.ArgString("text"))
}

func TestDispatchToNamespace(t *testing.T) {
	d := NewWithDefaults()
	ns := &echoNamespace{}
	d.RegisterNamespace(ns)

	res := d.Dispatch(handler.NewAction("test.echo").WithArg("text", "hi"))
	if !res.IsOK() {
		t.Fatalf("expected ok, got %v: %v", res.Status, res.Error)
	}
	if res.GetDataString("echo") != "hi" {
		t.Errorf("unexpected data: %v", res.Data)
	}
	if len(ns.calls) != 1 {
		t.Errorf("expected 1 handler call, got %d", len(ns.calls))
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	d := NewWithDefaults()
	d.RegisterNamespace(&echoNamespace{})

	res := d.Dispatch(handler.NewAction("test.unknown"))
	if !res.IsError() {
		t.Error("expected error for unknown action in namespace")
	}

	res = d.Dispatch(handler.NewAction("other.echo"))
	if !res.IsError() {
		t.Error("expected error for unknown namespace")
	}
}

func TestDispatchPanicRecovery(t *testing.T) {
	d := NewWithDefaults()
	d.RegisterNamespace(&echoNamespace{})

	res := d.Dispatch(handler.NewAction("test.panic"))
	if !res.IsError() {
		t.Fatal("expected error result from panicking handler")
	}
	if !strings.Contains(res.Error.Error(), "handler exploded") {
		t.Errorf("expected panic message in error, got %v", res.Error)
	}
}

func TestDispatchNoRecovery(t *testing.T) {
	d := New(Config{RecoverFromPanic: false})
	d.RegisterNamespace(&echoNamespace{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic to propagate without recovery")
		}
	}()
	d.Dispatch(handler.NewAction("test.panic"))
}

func TestExactNameHandler(t *testing.T) {
	d := NewWithDefaults()
	d.RegisterHandlerFunc("plain", func(action handler.Action, _ *execctx.ExecutionContext) handler.Result {
		return handler.SuccessWithMessage("handled")
	})

	res := d.Dispatch(handler.NewAction("plain"))
	if !res.IsOK() || res.Message != "handled" {
		t.Errorf("unexpected result: %+v", res)
	}

	if !d.CanDispatch("plain") {
		t.Error("expected CanDispatch true for registered name")
	}
	d.UnregisterHandler("plain")
	if d.CanDispatch("plain") {
		t.Error("expected CanDispatch false after unregister")
	}
}

func TestDispatchContextDefaults(t *testing.T) {
	d := NewWithDefaults()
	d.SetDefaultDriverID("console")

	var seen string
	d.RegisterHandlerFunc("who", func(_ handler.Action, ctx *execctx.ExecutionContext) handler.Result {
		seen = ctx.DriverID
		return handler.Success()
	})

	d.Dispatch(handler.NewAction("who"))
	if seen != "console" {
		t.Errorf("expected default driver id, got %q", seen)
	}
}

func TestDispatchWithExplicitContext(t *testing.T) {
	d := NewWithDefaults()

	var seen string
	d.RegisterHandlerFunc("who", func(_ handler.Action, ctx *execctx.ExecutionContext) handler.Result {
		seen = ctx.DriverID
		return handler.Success()
	})

	ctx := execctx.New().WithDriverID("editor-7")
	d.DispatchWithContext(handler.NewAction("who"), ctx)
	if seen != "editor-7" {
		t.Errorf("expected explicit driver id, got %q", seen)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("b", handler.HandlerFunc(nil))
	r.Register("a", handler.HandlerFunc(nil))

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted names, got %v", names)
	}

	r.Clear()
	if r.Count() != 0 {
		t.Error("expected empty registry after clear")
	}
}

func TestRouterFallback(t *testing.T) {
	r := NewRouter()
	fallback := handler.HandlerFunc(func(handler.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success()
	})
	r.SetFallback(fallback)

	if h := r.Route("anything.at.all"); h == nil {
		t.Error("expected fallback handler")
	}
	if !r.CanRoute("whatever") {
		t.Error("expected CanRoute true with fallback")
	}
}
