package canopy

import (
	"encoding/json"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Key    string  `json:"key,omitempty"`
	Shift  bool    `json:"shift,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Text   string  `json:"text,omitempty"`

	key ebiten.Key
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// maxSettleFrames bounds how long a "settle" step waits.
const maxSettleFrames = 600

// TestRunner sequences injected input and screenshots across frames for
// automated visual testing. Pass it to the viewer in ViewerOptions.Script.
//
// Actions: screenshot, click, rightclick, hover, drag, wheel, key, type,
// search, link, wait and settle. "settle" waits until background loads have
// finished and the camera has stopped.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	settling  int
	done      bool
}

// LoadTestScript parses a JSON test script.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i := range script.Steps {
		st := &script.Steps[i]
		switch st.Action {
		case "screenshot", "click", "rightclick", "hover", "drag", "wheel", "type", "search", "link", "wait", "settle":
		case "key":
			if err := st.key.UnmarshalText([]byte(st.Key)); err != nil {
				return nil, fmt.Errorf("parse test script: step %d: unknown key %q", i+1, st.Key)
			}
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i+1, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Viewer.tick.
func (r *TestRunner) step(v *Viewer) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if v.pending() {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.settling > 0 {
		if (v.ex.Busy() || v.ex.Camera().Animating()) && r.settling < maxSettleFrames {
			r.settling++
			return
		}
		r.settling = 0
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		v.Screenshot(st.Label)
	case "click":
		v.InjectClick(st.X, st.Y)
	case "rightclick":
		v.InjectRightClick(st.X, st.Y)
	case "hover":
		v.InjectHover(st.X, st.Y)
	case "drag":
		v.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wheel":
		v.InjectWheel(st.X, st.Y, st.Delta)
	case "key":
		var mods KeyModifiers
		if st.Shift {
			mods |= ModShift
		}
		v.InjectKey(st.key, mods)
	case "type":
		v.InjectText(st.Text)
	case "search":
		v.ex.Search(st.Text)
	case "link":
		v.ex.OpenLink(st.Text)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "settle":
		r.settling = 1
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.settling == 0 && !v.pending() {
		r.done = true
	}
}
