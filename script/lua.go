// Package script loads arbor behaviors written in Lua.
//
// A behavior is a Lua file that returns a table with an update(self, dt)
// function and, optionally, init(self). Qualified names map onto the script
// directory: "enemies.Patrol" is dir/enemies/Patrol.lua.
//
//	local Patrol = {}
//	function Patrol.update(self, dt)
//	  self:translate(10 * dt, 0)
//	end
//	return Patrol
//
// Each loaded behavior gets its own VM. Compiled chunks are cached per path
// and shared between VMs, so many objects can run the same script cheaply.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phanxgames/arbor"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// Sentinel errors returned by LuaLoader.Load.
var (
	ErrScriptNotCompiled = errors.New("script: not compiled")
	ErrNotBehavior       = errors.New("script: not a behavior")
)

// LuaLoader implements arbor.ScriptLoader over gopher-lua.
// Single-goroutine access only (game loop).
type LuaLoader struct {
	log    *zap.Logger
	protos map[string]*lua.FunctionProto
}

var _ arbor.ScriptLoader = (*LuaLoader)(nil)

// NewLuaLoader creates a loader with an empty compile cache.
func NewLuaLoader(log *zap.Logger) *LuaLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &LuaLoader{log: log.Named("script"), protos: make(map[string]*lua.FunctionProto)}
}

// SourcePath maps "a.b.C" to dir/a/b/C.lua.
func (l *LuaLoader) SourcePath(dir, qualifiedName string) string {
	rel := strings.ReplaceAll(qualifiedName, ".", "/") + ".lua"
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// Compile parses and compiles the file at path, replacing any cached chunk.
// A missing file or a syntax error is returned.
func (l *LuaLoader) Compile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	defer f.Close()

	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	l.protos[path] = proto
	l.log.Debug("compiled lua script", zap.String("file", path))
	return nil
}

// Compiled reports whether path has a cached chunk.
func (l *LuaLoader) Compiled(path string) bool {
	_, ok := l.protos[path]
	return ok
}

// Load runs the compiled chunk for qualifiedName in a fresh VM and checks
// that it returned a behavior table.
func (l *LuaLoader) Load(dir, qualifiedName string) (arbor.Behavior, error) {
	path := l.SourcePath(dir, qualifiedName)
	proto, ok := l.protos[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrScriptNotCompiled)
	}

	vm := lua.NewState()
	vm.Push(vm.NewFunctionFromProto(proto))
	if err := vm.PCall(0, 1, nil); err != nil {
		vm.Close()
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	ret := vm.Get(-1)
	vm.Pop(1)

	self, ok := ret.(*lua.LTable)
	if !ok {
		vm.Close()
		return nil, fmt.Errorf("%s returned %s: %w", qualifiedName, ret.Type(), ErrNotBehavior)
	}
	update, ok := self.RawGetString("update").(*lua.LFunction)
	if !ok {
		vm.Close()
		return nil, fmt.Errorf("%s has no update function: %w", qualifiedName, ErrNotBehavior)
	}
	b := &luaBehavior{name: qualifiedName, vm: vm, self: self, update: update, log: l.log}
	if fn, ok := self.RawGetString("init").(*lua.LFunction); ok {
		b.init = fn
	}
	return b, nil
}
