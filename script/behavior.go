package script

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/arbor"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// luaBehavior runs one script table in its own VM. The table is passed as
// self to init and update; Bind installs the methods below on it.
type luaBehavior struct {
	name   string
	vm     *lua.LState
	self   *lua.LTable
	init   *lua.LFunction
	update *lua.LFunction
	log    *zap.Logger

	obj *arbor.GameObject
	env *arbor.ScriptEnv
}

// Bind attaches the behavior to g and installs the self methods:
//
//	self:name()               -> string
//	self:position()           -> x, y
//	self:set_position(x, y)
//	self:translate(dx, dy)
//	self:rotation()           -> radians
//	self:set_rotation(r)
//	self:key_down(key)        -> bool
//	self:find(name)           -> x, y | nil
//	self:log(msg)
func (b *luaBehavior) Bind(g *arbor.GameObject, env *arbor.ScriptEnv) {
	b.obj = g
	b.env = env
	if env != nil && env.Log != nil {
		b.log = env.Log.With(zap.String("script", b.name))
	}
	fns := map[string]lua.LGFunction{
		"name":         b.luaName,
		"position":     b.luaPosition,
		"set_position": b.luaSetPosition,
		"translate":    b.luaTranslate,
		"rotation":     b.luaRotation,
		"set_rotation": b.luaSetRotation,
		"key_down":     b.luaKeyDown,
		"find":         b.luaFind,
		"log":          b.luaLog,
	}
	for name, fn := range fns {
		b.self.RawSetString(name, b.vm.NewFunction(fn))
	}
	b.self.RawSetString("id", lua.LNumber(g.ID))
}

// Init calls init(self) when the script defines it.
func (b *luaBehavior) Init() error {
	if b.init == nil {
		return nil
	}
	return b.vm.CallByParam(lua.P{Fn: b.init, NRet: 0, Protect: true}, b.self)
}

// Update calls update(self, dt).
func (b *luaBehavior) Update(dt float64) error {
	return b.vm.CallByParam(lua.P{Fn: b.update, NRet: 0, Protect: true}, b.self, lua.LNumber(dt))
}

// Close releases the VM.
func (b *luaBehavior) Close() error {
	b.vm.Close()
	return nil
}

func (b *luaBehavior) luaName(L *lua.LState) int {
	if b.obj == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(b.obj.Name))
	return 1
}

func (b *luaBehavior) luaPosition(L *lua.LState) int {
	var p mgl64.Vec2
	if b.obj != nil {
		p = b.obj.Transform.Position
	}
	L.Push(lua.LNumber(p.X()))
	L.Push(lua.LNumber(p.Y()))
	return 2
}

func (b *luaBehavior) luaSetPosition(L *lua.LState) int {
	x, y := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	if b.obj != nil {
		b.obj.Transform.Position = mgl64.Vec2{x, y}
	}
	return 0
}

func (b *luaBehavior) luaTranslate(L *lua.LState) int {
	dx, dy := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	if b.obj != nil {
		b.obj.Transform.Position = b.obj.Transform.Position.Add(mgl64.Vec2{dx, dy})
	}
	return 0
}

func (b *luaBehavior) luaRotation(L *lua.LState) int {
	var r float64
	if b.obj != nil {
		r = b.obj.Transform.Rotation
	}
	L.Push(lua.LNumber(r))
	return 1
}

func (b *luaBehavior) luaSetRotation(L *lua.LState) int {
	r := float64(L.CheckNumber(2))
	if b.obj != nil {
		b.obj.Transform.Rotation = r
	}
	return 0
}

func (b *luaBehavior) luaKeyDown(L *lua.LState) int {
	key := L.CheckString(2)
	down := b.env != nil && b.env.Input.KeyDown(key)
	L.Push(lua.LBool(down))
	return 1
}

func (b *luaBehavior) luaFind(L *lua.LState) int {
	name := L.CheckString(2)
	if b.env == nil || b.env.Objects == nil {
		L.Push(lua.LNil)
		return 1
	}
	g := b.env.Objects.FindByName(name)
	if g == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(g.Transform.Position.X()))
	L.Push(lua.LNumber(g.Transform.Position.Y()))
	return 2
}

func (b *luaBehavior) luaLog(L *lua.LState) int {
	b.log.Info(L.CheckString(2))
	return 0
}
