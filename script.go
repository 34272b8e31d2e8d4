package arbor

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ObjectFinder resolves objects by id or name. View implements it.
type ObjectFinder interface {
	ObjectByID(id uint32) *GameObject
	FindByName(name string) *GameObject
}

// ScriptEnv is the global context a behavior is bound to.
type ScriptEnv struct {
	Input   *InputState
	Objects ObjectFinder
	Log     *zap.Logger
}

// Behavior is the opaque object a ScriptLoader produces.
type Behavior interface {
	// Bind hands the behavior its entity and global context.
	Bind(g *GameObject, env *ScriptEnv)
	// Init runs once before the first Update.
	Init() error
	// Update advances the behavior by dt seconds.
	Update(dt float64) error
}

// ScriptLoader compiles and loads user scripts.
type ScriptLoader interface {
	// SourcePath maps a qualified name to its source file under dir.
	SourcePath(dir, qualifiedName string) string
	// Compile compiles the source at path, failing loudly on errors.
	Compile(path string) error
	// Load resolves qualifiedName under dir to a behavior.
	Load(dir, qualifiedName string) (Behavior, error)
}

// ScriptComponent wraps a user behavior. Update errors are captured per
// component and reported through the error hook; they never escape into the
// frame loop.
type ScriptComponent struct {
	BaseComponent

	Dir  string // script root directory
	Name string // qualified behavior name, e.g. "enemies.Patrol"

	behavior    Behavior
	initialized bool
	parked      bool // Init failed; waits for a reload
	lastErr     error
	failures    int
	onError     func(*ScriptComponent, error)
}

// NewScriptComponent creates an unloaded script component.
func NewScriptComponent(dir, name string) *ScriptComponent {
	return &ScriptComponent{Dir: dir, Name: name}
}

// Kind returns KindScript.
func (s *ScriptComponent) Kind() ComponentKind { return KindScript }

// Load compiles and loads the behavior and binds it to the owner. Failures
// are returned to the caller; the previous behavior, if any, is kept.
func (s *ScriptComponent) Load(loader ScriptLoader, env *ScriptEnv) error {
	if s.owner == nil {
		return fmt.Errorf("load script %s: component is not attached", s.Name)
	}
	path := loader.SourcePath(s.Dir, s.Name)
	if err := loader.Compile(path); err != nil {
		return fmt.Errorf("compile script %s: %w", s.Name, err)
	}
	b, err := loader.Load(s.Dir, s.Name)
	if err != nil {
		return fmt.Errorf("load script %s: %w", s.Name, err)
	}
	b.Bind(s.owner, env)
	s.replace(b)
	s.lastErr = nil
	return nil
}

// replace swaps in b, closing the previous behavior when it holds resources.
func (s *ScriptComponent) replace(b Behavior) {
	if c, ok := s.behavior.(io.Closer); ok && s.behavior != b {
		c.Close()
	}
	s.behavior = b
	s.initialized = false
	s.parked = false
}

// unload closes and drops the behavior. The next insert into a View with a
// loader loads it again.
func (s *ScriptComponent) unload() {
	s.replace(nil)
}

func unloadScripts(g *GameObject) {
	for _, c := range g.components {
		if sc, ok := c.(*ScriptComponent); ok {
			sc.unload()
		}
	}
}

// SetBehavior installs an already-built behavior.
func (s *ScriptComponent) SetBehavior(b Behavior, env *ScriptEnv) {
	if s.owner != nil {
		b.Bind(s.owner, env)
	}
	s.replace(b)
}

// Behavior returns the loaded behavior, or nil.
func (s *ScriptComponent) Behavior() Behavior { return s.behavior }

// LastError returns the most recent init/update failure.
func (s *ScriptComponent) LastError() error { return s.lastErr }

// Failures returns how many init/update calls failed.
func (s *ScriptComponent) Failures() int { return s.failures }

// OnError sets the hook called on each init/update failure.
func (s *ScriptComponent) OnError(fn func(*ScriptComponent, error)) {
	s.onError = fn
}

// Update runs the behavior, initializing it first if it was (re)loaded.
// There is no Start hook: a View only updates scripts in play mode, so user
// code never runs while editing. A behavior whose Init failed stays idle
// until it is reloaded.
func (s *ScriptComponent) Update(dt float64) {
	if s.behavior == nil || s.parked {
		return
	}
	if !s.initialized && !s.init() {
		return
	}
	if err := s.behavior.Update(dt); err != nil {
		s.fail(fmt.Errorf("script %s update: %w", s.Name, err))
	}
}

// Inspect describes the script for UI panels.
func (s *ScriptComponent) Inspect() []Field {
	fields := []Field{
		{Label: "Script", Value: s.Name},
		{Label: "Loaded", Value: s.behavior != nil},
	}
	if s.lastErr != nil {
		fields = append(fields, Field{Label: "Error", Value: s.lastErr.Error()})
	}
	return fields
}

func (s *ScriptComponent) init() bool {
	if s.behavior == nil || s.initialized {
		return s.initialized
	}
	if err := s.behavior.Init(); err != nil {
		s.parked = true
		s.fail(fmt.Errorf("script %s init: %w", s.Name, err))
		return false
	}
	s.initialized = true
	return true
}

func (s *ScriptComponent) fail(err error) {
	s.lastErr = err
	s.failures++
	if s.onError != nil {
		s.onError(s, err)
	}
}
