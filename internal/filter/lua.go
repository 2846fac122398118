package filter

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// filterGlobal is the function a filter script must define.
const filterGlobal = "filter"

// Script wraps one Lua filter script in a sandboxed VM.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes all
// calls into the VM. A script error at run time passes the chunk
// through unmodified so the pipeline never loses output.
type Script struct {
	L    *lua.LState
	path string

	mu     sync.Mutex
	closed bool
}

// LoadScript loads a Lua filter script. The script must define a global
// filter(chunk) function returning the transformed chunk.
func LoadScript(path string) (*Script, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	s := &Script{L: L, path: path}

	if err := s.doWithRecovery(func() error {
		return L.DoFile(path)
	}); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading filter script %s: %w", path, err)
	}

	fn := L.GetGlobal(filterGlobal)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, path)
	}

	return s, nil
}

// openSafeLibraries opens only side-effect-free Lua standard libraries.
// io, os, debug, and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Path returns the script's file path.
func (s *Script) Path() string {
	return s.path
}

// Func returns the script as a pipeline filter.
func (s *Script) Func() Func {
	return func(chunk string) string {
		out, err := s.apply(chunk)
		if err != nil {
			return chunk
		}
		return out
	}
}

// apply calls the script's filter function with the chunk.
func (s *Script) apply(chunk string) (out string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStateClosed
	}

	fn := s.L.GetGlobal(filterGlobal)
	if fn.Type() != lua.LTFunction {
		return "", ErrNotFunction
	}

	stackTop := s.L.GetTop()
	s.L.Push(fn)
	s.L.Push(lua.LString(chunk))

	if err := s.pcallWithRecovery(1); err != nil {
		s.L.SetTop(stackTop)
		return "", err
	}

	ret := s.L.Get(-1)
	s.L.SetTop(stackTop)

	str, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("filter returned %s, want string", ret.Type())
	}
	return string(str), nil
}

// pcallWithRecovery runs PCall with panic recovery.
func (s *Script) pcallWithRecovery(nargs int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return s.L.PCall(nargs, 1, nil)
}

// doWithRecovery executes a function with panic recovery.
func (s *Script) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// IsClosed returns true if the script state has been closed.
func (s *Script) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. After Close, the script's filter passes
// chunks through unchanged.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
