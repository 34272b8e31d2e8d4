package arbor

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// InputState is a per-frame snapshot of keyboard and mouse state. Key names
// are lower-case Ebitengine key names ("a", "space", "arrowleft").
type InputState struct {
	Mouse     mgl64.Vec2
	Buttons   [3]bool
	Modifiers KeyModifiers

	down        map[string]bool
	justPressed map[string]bool
}

// NewInputState returns an empty snapshot.
func NewInputState() *InputState {
	return &InputState{down: make(map[string]bool), justPressed: make(map[string]bool)}
}

// KeyDown reports whether the named key is held.
func (in *InputState) KeyDown(name string) bool {
	return in != nil && in.down[strings.ToLower(name)]
}

// KeyJustPressed reports whether the named key went down this frame.
func (in *InputState) KeyJustPressed(name string) bool {
	return in != nil && in.justPressed[strings.ToLower(name)]
}

// SetKey marks a key as held (and just pressed when it was not held).
// Used by synthetic input in tests and tools.
func (in *InputState) SetKey(name string, down bool) {
	name = strings.ToLower(name)
	if down && !in.down[name] {
		in.justPressed[name] = true
	}
	if !down {
		delete(in.justPressed, name)
	}
	in.down[name] = down
}

// ButtonDown reports whether the given mouse button is held.
func (in *InputState) ButtonDown(b MouseButton) bool {
	return in != nil && int(b) < len(in.Buttons) && in.Buttons[b]
}

// PollInput reads the current Ebitengine input state into in, reusing its
// maps. Call once per frame from ebiten.Game.Update.
func PollInput(in *InputState, keyBuf []ebiten.Key) []ebiten.Key {
	clear(in.down)
	clear(in.justPressed)

	keyBuf = inpututil.AppendPressedKeys(keyBuf[:0])
	for _, k := range keyBuf {
		in.down[strings.ToLower(k.String())] = true
	}
	keyBuf = inpututil.AppendJustPressedKeys(keyBuf[:0])
	for _, k := range keyBuf {
		in.justPressed[strings.ToLower(k.String())] = true
	}

	mx, my := ebiten.CursorPosition()
	in.Mouse = mgl64.Vec2{float64(mx), float64(my)}
	in.Buttons[MouseButtonLeft] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	in.Buttons[MouseButtonRight] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	in.Buttons[MouseButtonMiddle] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	in.Modifiers = readModifiers()
	return keyBuf
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}
