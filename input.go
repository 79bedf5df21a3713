package canopy

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const defaultDragDeadZone = 4.0 // pixels

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// KeyModifiers is a bitmask of held modifier keys.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// pointerState tracks the mouse between frames.
type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	dragging bool
	button   MouseButton // button captured at press time
	inside   bool
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

// processInput is called from Viewer.tick to handle mouse, wheel and
// keyboard input. An injected pointer event replaces the real mouse for the
// frame it is consumed in. Devices are only polled when live.
func (v *Viewer) processInput(live bool) {
	if !v.processInjectedInput() && live {
		v.processMousePointer()
	}

	if len(v.wheelQueue) > 0 {
		dy := v.wheelQueue[0]
		v.wheelQueue = v.wheelQueue[1:]
		v.processWheel(dy)
	} else if live {
		if _, dy := ebiten.Wheel(); dy != 0 {
			v.processWheel(dy)
		}
	}

	if live {
		if v.search.open {
			v.search.insert(ebiten.AppendInputChars(nil))
		}
		mods := readModifiers()
		for _, k := range inpututil.AppendJustPressedKeys(nil) {
			v.handleKey(k, mods)
		}
	}
	for len(v.keyQueue) > 0 {
		k := v.keyQueue[0]
		v.keyQueue = v.keyQueue[1:]
		v.handleKey(k.key, k.mods)
	}
}

// processMousePointer reads the real mouse.
func (v *Viewer) processMousePointer() {
	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)

	// If pointer is already down, keep the stored button so it cannot change
	// mid-interaction.
	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		switch {
		case left:
			button = MouseButtonLeft
		case right:
			button = MouseButtonRight
		default:
			button = MouseButtonMiddle
		}
	}

	inside := sx >= 0 && sy >= 0 && sx < float64(v.width) && sy < float64(v.height)
	if !inside && !v.pointer.down {
		if v.pointer.inside {
			v.pointer.inside = false
			v.ex.PointerLeave()
		}
		return
	}
	v.pointer.inside = true
	v.processPointer(sx, sy, pressed, button)
}

// processPointer runs the pointer state machine in screen coordinates.
func (v *Viewer) processPointer(sx, sy float64, pressed bool, button MouseButton) {
	ps := &v.pointer

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = sx, sy
		ps.lastX, ps.lastY = sx, sy
		ps.dragging = false

	case !pressed && ps.down:
		if !ps.dragging {
			v.click(sx, sy, ps.button)
		}
		ps.down = false
		ps.dragging = false
		ps.lastX, ps.lastY = sx, sy
		v.ex.PointerMove(sx, sy)

	case pressed && ps.down:
		if sx == ps.lastX && sy == ps.lastY {
			return
		}
		if ps.button == MouseButtonRight {
			ps.lastX, ps.lastY = sx, sy
			return
		}
		if !ps.dragging {
			dx, dy := sx-ps.startX, sy-ps.startY
			if ps.button == MouseButtonMiddle || math.Sqrt(dx*dx+dy*dy) > v.dragDeadZone {
				ps.dragging = true
				ps.lastX, ps.lastY = ps.startX, ps.startY
			}
		}
		if ps.dragging {
			v.ex.Pan(sx-ps.lastX, sy-ps.lastY)
		}
		ps.lastX, ps.lastY = sx, sy

	default:
		// Hover move.
		if sx != ps.lastX || sy != ps.lastY || !v.hoverInit {
			v.hoverInit = true
			ps.lastX, ps.lastY = sx, sy
			if v.crumbAt(sx, sy) == nil {
				v.ex.PointerMove(sx, sy)
			} else {
				v.ex.PointerLeave()
			}
		}
	}
}

// click handles a press and release without a drag.
func (v *Viewer) click(sx, sy float64, button MouseButton) {
	switch button {
	case MouseButtonLeft:
		if n := v.crumbAt(sx, sy); n != nil {
			v.ex.GoTo(n, true)
			return
		}
		v.ex.Click(sx, sy)
	case MouseButtonRight:
		v.ex.GoParent()
	}
}

// processWheel zooms about the last pointer position. Positive dy zooms in.
func (v *Viewer) processWheel(dy float64) {
	v.ex.Wheel(v.pointer.lastX, v.pointer.lastY, dy)
}

// --- Keyboard ---

type keyPress struct {
	key  ebiten.Key
	mods KeyModifiers
}

// keyBinding maps keys to a viewer action. The help overlay lists bindings
// in declaration order.
type keyBinding struct {
	keys  []ebiten.Key
	shift bool
	label string
	help  string
	fn    func(v *Viewer)
}

var keyBindings = []keyBinding{
	{keys: []ebiten.Key{ebiten.KeyR}, label: "R", help: "reset to root", fn: func(v *Viewer) { v.ex.Reset() }},
	{keys: []ebiten.Key{ebiten.KeyBackspace}, label: "Backspace", help: "go to parent", fn: func(v *Viewer) { v.ex.GoParent() }},
	{keys: []ebiten.Key{ebiten.KeyF}, label: "F", help: "fit hovered or focused node", fn: func(v *Viewer) { v.ex.FitTarget() }},
	{keys: []ebiten.Key{ebiten.KeyEnter, ebiten.KeyNumpadEnter}, label: "Enter", help: "search by name", fn: func(v *Viewer) { v.search.begin() }},
	{keys: []ebiten.Key{ebiten.KeyX}, label: "X", help: "clear highlight", fn: func(v *Viewer) { v.ex.ClearHighlight() }},
	{keys: []ebiten.Key{ebiten.KeyU}, label: "U", help: "surprise me", fn: func(v *Viewer) { v.ex.Surprise() }},
	{keys: []ebiten.Key{ebiten.KeyS}, label: "S", help: "search the web for the node", fn: func(v *Viewer) { v.searchProvider() }},
	{keys: []ebiten.Key{ebiten.KeyBracketLeft}, label: "[", help: "previous search provider", fn: func(v *Viewer) { v.ex.CycleProvider(-1) }},
	{keys: []ebiten.Key{ebiten.KeyBracketRight}, label: "]", help: "next search provider", fn: func(v *Viewer) { v.ex.CycleProvider(1) }},
	{keys: []ebiten.Key{ebiten.KeyP}, label: "P", help: "pin or unpin preview", fn: func(v *Viewer) { v.ex.TogglePin() }},
	{keys: []ebiten.Key{ebiten.KeyC}, label: "C", help: "copy link", fn: func(v *Viewer) { v.copyLink() }},
	{keys: []ebiten.Key{ebiten.KeyV}, label: "V", help: "paste link", fn: func(v *Viewer) { v.pasteLink() }},
	{keys: []ebiten.Key{ebiten.KeyE}, label: "E", help: "save screenshot", fn: func(v *Viewer) { v.Screenshot("canopy") }},
	{keys: []ebiten.Key{ebiten.KeyTab}, label: "Tab", help: "toggle FPS", fn: func(v *Viewer) { v.fps.visible = !v.fps.visible }},
	{keys: []ebiten.Key{ebiten.KeySlash}, shift: true, label: "?", help: "toggle help", fn: func(v *Viewer) { v.showHelp = !v.showHelp }},
	{keys: []ebiten.Key{ebiten.KeyF1}, label: "F1", help: "toggle help", fn: func(v *Viewer) { v.showHelp = !v.showHelp }},
	{keys: []ebiten.Key{ebiten.KeyEscape}, label: "Esc", help: "close overlays", fn: func(v *Viewer) { v.showHelp = false }},
}

// handleKey dispatches one key press. While the search box is open it
// receives all keys.
func (v *Viewer) handleKey(k ebiten.Key, mods KeyModifiers) {
	if v.search.open {
		switch k {
		case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
			if q := v.search.submit(); q != "" {
				v.ex.Search(q)
			}
		case ebiten.KeyEscape:
			v.search.cancel()
		case ebiten.KeyBackspace:
			v.search.backspace()
		}
		v.ex.RequestRender()
		return
	}
	for _, b := range keyBindings {
		if b.shift && mods&ModShift == 0 {
			continue
		}
		for _, bk := range b.keys {
			if bk == k {
				b.fn(v)
				v.ex.RequestRender()
				return
			}
		}
	}
}
