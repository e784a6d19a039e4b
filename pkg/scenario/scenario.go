// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

// Package scenario runs Lua-scripted harness sessions. A script configures
// expectations and canned responses, invokes bus primitives the way a
// driver would, and asserts on the call ledger - letting a test plan be
// exercised end to end before any driver is compiled against it.
//
// The script environment:
//
//	expect("write", {cmd = 0x01, len = 4, data = any})
//	inject("write", 0)
//	inject_read("read", 0, "\x0A\x0B")
//	inject_open(3)
//	h, st = open("i2c-1", 0x50)
//	st = write(h, 0x01, "\x01\x02\x03\x04")
//	data, st = read(h, 0x02, 2)
//	rx, st = transfer(h, "\xAA\xBB", 2)
//	st = close(h)
//	assert(calls("write") == 1, "write not called")
//	fail("give up")  -- marks the scenario failed
//
// `any` is the wildcard matcher sentinel.
package scenario

import (
	"fmt"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
	"github.com/tidewater-embedded/busbench/pkg/mockbus"
	"github.com/tidewater-embedded/busbench/pkg/report"
)

// Runner executes scenario scripts against one shared harness. The harness
// is armed before each script and torn down after it, so scripts are
// isolated the same way sequential test cases are.
type Runner struct {
	harness *mockbus.Harness
	bus     *mockbus.Mock

	state *lua.LState // script currently executing, nil between runs
	calls []mockbus.Call
}

// NewRunner creates a runner. Options are passed through to the harness
// (e.g. mockbus.WithStrict()).
func NewRunner(opts ...mockbus.Option) *Runner {
	r := &Runner{}
	// Verification failures must abort the script, not just latch: raising
	// through the active Lua state unwinds the script immediately.
	opts = append(opts, mockbus.WithFailureHandler(func(err error) {
		if r.state != nil {
			r.state.RaiseError("%v", err)
		}
	}))
	r.harness = mockbus.New(opts...)
	r.bus = r.harness.Bus()
	return r
}

// RunFile executes one scenario script from disk.
func (r *Runner) RunFile(path string) report.Result {
	return r.run(filepath.Base(path), func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// RunString executes an in-memory script under the given name.
func (r *Runner) RunString(name, src string) report.Result {
	return r.run(name, func(L *lua.LState) error {
		return L.DoString(src)
	})
}

// Calls returns the call log captured by the most recent run.
func (r *Runner) Calls() []mockbus.Call {
	return r.calls
}

func (r *Runner) run(name string, exec func(*lua.LState) error) report.Result {
	res := report.Result{Name: name}
	start := time.Now()

	if err := r.harness.Arm(); err != nil {
		res.Diagnostic = err.Error()
		return res
	}

	L := lua.NewState()
	r.state = L
	r.register(L)
	scriptErr := exec(L)
	r.state = nil
	L.Close()

	r.calls = r.harness.Calls()
	res.Duration = time.Since(start)
	res.Calls = callCounts(r.harness)

	teardownErr := r.harness.Teardown()

	switch {
	case r.harness.Failure() != nil:
		res.Diagnostic = r.harness.Failure().Error()
	case scriptErr != nil:
		res.Diagnostic = scriptErr.Error()
	case teardownErr != nil:
		res.Diagnostic = teardownErr.Error()
	default:
		res.Passed = true
	}
	return res
}

// callCounts flattens the ledger counters for the report.
func callCounts(h *mockbus.Harness) map[string]int {
	out := map[string]int{}
	for _, p := range hwbus.Primitives() {
		if n := h.CountOf(p); n > 0 {
			out[p.String()] = n
		}
	}
	return out
}

// register installs the scenario API into a fresh Lua state.
func (r *Runner) register(L *lua.LState) {
	anySentinel := L.NewUserData()
	L.SetGlobal("any", anySentinel)

	L.SetGlobal("expect", L.NewFunction(func(L *lua.LState) int {
		prim := checkPrimitive(L, 1)
		tbl := L.CheckTable(2)
		e := r.harness.Expect(prim)
		var tblErr error
		tbl.ForEach(func(k, v lua.LValue) {
			name, ok := k.(lua.LString)
			if !ok {
				tblErr = fmt.Errorf("expect: parameter names must be strings, got %s", k.Type())
				return
			}
			switch val := v.(type) {
			case *lua.LUserData:
				if val == anySentinel {
					e.Any(string(name))
					return
				}
				tblErr = fmt.Errorf("expect: unsupported matcher for %q", string(name))
			case lua.LNumber:
				e.Uint(string(name), uint64(val))
			case lua.LString:
				if name == "bus" {
					e.String(string(name), string(val))
				} else {
					e.Bytes(string(name), []byte(val))
				}
			default:
				tblErr = fmt.Errorf("expect: unsupported matcher type %s for %q", v.Type(), string(name))
			}
		})
		if tblErr != nil {
			L.RaiseError("%v", tblErr)
		}
		return 0
	}))

	L.SetGlobal("inject", L.NewFunction(func(L *lua.LState) int {
		prim := checkPrimitive(L, 1)
		status := hwbus.Status(L.CheckInt(2))
		r.harness.InjectStatus(prim, status)
		return 0
	}))

	L.SetGlobal("inject_read", L.NewFunction(func(L *lua.LState) int {
		prim := checkPrimitive(L, 1)
		status := hwbus.Status(L.CheckInt(2))
		payload := []byte(L.CheckString(3))
		r.harness.InjectRead(prim, status, payload)
		return 0
	}))

	L.SetGlobal("inject_open", L.NewFunction(func(L *lua.LState) int {
		r.harness.InjectOpen(hwbus.Handle(L.CheckInt(1)))
		return 0
	}))

	L.SetGlobal("open", L.NewFunction(func(L *lua.LState) int {
		bus := L.CheckString(1)
		addr := uint16(L.CheckInt(2))
		h, st := r.bus.Open(bus, addr)
		L.Push(lua.LNumber(h))
		L.Push(lua.LNumber(st))
		return 2
	}))

	L.SetGlobal("close", L.NewFunction(func(L *lua.LState) int {
		st := r.bus.Close(hwbus.Handle(L.CheckInt(1)))
		L.Push(lua.LNumber(st))
		return 1
	}))

	L.SetGlobal("write", L.NewFunction(func(L *lua.LState) int {
		h := hwbus.Handle(L.CheckInt(1))
		cmd := uint8(L.CheckInt(2))
		data := []byte(L.CheckString(3))
		st := r.bus.Write(h, cmd, data)
		L.Push(lua.LNumber(st))
		return 1
	}))

	L.SetGlobal("read", L.NewFunction(func(L *lua.LState) int {
		h := hwbus.Handle(L.CheckInt(1))
		cmd := uint8(L.CheckInt(2))
		n := L.CheckInt(3)
		buf := make([]byte, n)
		st := r.bus.Read(h, cmd, buf)
		L.Push(lua.LString(buf))
		L.Push(lua.LNumber(st))
		return 2
	}))

	L.SetGlobal("transfer", L.NewFunction(func(L *lua.LState) int {
		h := hwbus.Handle(L.CheckInt(1))
		tx := []byte(L.CheckString(2))
		n := L.CheckInt(3)
		rx := make([]byte, n)
		st := r.bus.Transfer(h, tx, rx)
		L.Push(lua.LString(rx))
		L.Push(lua.LNumber(st))
		return 2
	}))

	L.SetGlobal("calls", L.NewFunction(func(L *lua.LState) int {
		prim := checkPrimitive(L, 1)
		L.Push(lua.LNumber(r.harness.CountOf(prim)))
		return 1
	}))

	L.SetGlobal("fail", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s", L.OptString(1, "scenario failed"))
		return 0
	}))
}

// checkPrimitive reads a primitive name argument.
func checkPrimitive(L *lua.LState, n int) hwbus.PrimitiveID {
	name := L.CheckString(n)
	p, ok := hwbus.ParsePrimitive(name)
	if !ok {
		L.RaiseError("unknown primitive %q (want open/close/read/write/transfer)", name)
	}
	return p
}
