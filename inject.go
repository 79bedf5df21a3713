package canopy

import "github.com/hajimehoshi/ebiten/v2"

// syntheticPointerEvent is a single injected pointer event in screen
// coordinates, fed through the same state machine as the real mouse.
type syntheticPointerEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
}

// InjectPress queues a left-button press at the given screen coordinates.
// Each queued event is consumed by one frame.
func (v *Viewer) InjectPress(x, y float64) {
	v.injectButton(x, y, true, MouseButtonLeft)
}

// InjectMove queues a pointer move with the button held down. Use this
// between InjectPress and InjectRelease to simulate a drag.
func (v *Viewer) InjectMove(x, y float64) {
	v.injectButton(x, y, true, MouseButtonLeft)
}

// InjectRelease queues a left-button release.
func (v *Viewer) InjectRelease(x, y float64) {
	v.injectButton(x, y, false, MouseButtonLeft)
}

// InjectHover queues a move with no button held.
func (v *Viewer) InjectHover(x, y float64) {
	v.injectButton(x, y, false, MouseButtonLeft)
}

func (v *Viewer) injectButton(x, y float64, pressed bool, b MouseButton) {
	v.injectQueue = append(v.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: pressed,
		button:  b,
	})
}

// InjectClick queues a press followed by a release at the same screen
// coordinates. Consumes two frames.
func (v *Viewer) InjectClick(x, y float64) {
	v.InjectPress(x, y)
	v.InjectRelease(x, y)
}

// InjectRightClick queues a right-button click, which goes to the parent.
func (v *Viewer) InjectRightClick(x, y float64) {
	v.injectButton(x, y, true, MouseButtonRight)
	v.injectButton(x, y, false, MouseButtonRight)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY), frames-2
// linearly interpolated moves ending at (toX, toY), and the release. The
// sequence consumes `frames` frames; the minimum is 3.
func (v *Viewer) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 3 {
		frames = 3
	}
	v.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		v.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	v.InjectRelease(toX, toY)
}

// InjectWheel moves the pointer to (x, y) and queues a wheel turn of dy
// notches on the following frame.
func (v *Viewer) InjectWheel(x, y, dy float64) {
	v.InjectHover(x, y)
	v.wheelQueue = append(v.wheelQueue, 0, dy)
}

// InjectKey queues a key press.
func (v *Viewer) InjectKey(k ebiten.Key, mods KeyModifiers) {
	v.keyQueue = append(v.keyQueue, keyPress{key: k, mods: mods})
}

// InjectText types text into the search box, if it is open.
func (v *Viewer) InjectText(s string) {
	v.search.insert([]rune(s))
}

// pending reports whether injected input is still queued.
func (v *Viewer) pending() bool {
	return len(v.injectQueue) > 0 || len(v.wheelQueue) > 0 || len(v.keyQueue) > 0
}

// processInjectedInput pops one queued pointer event and feeds it through
// processPointer. Returns true if an event was consumed (real mouse input
// should be skipped).
func (v *Viewer) processInjectedInput() bool {
	if len(v.injectQueue) == 0 {
		return false
	}
	evt := v.injectQueue[0]
	copy(v.injectQueue, v.injectQueue[1:])
	v.injectQueue = v.injectQueue[:len(v.injectQueue)-1]

	v.pointer.inside = true
	v.processPointer(evt.screenX, evt.screenY, evt.pressed, evt.button)
	return true
}
