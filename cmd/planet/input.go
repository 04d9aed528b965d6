package main

import (
	"sdf-planet/core"
	"sdf-planet/pipeline"
)

// InputSource is the part of the window the controls read.
type InputSource interface {
	IsKeyPressed(key int) bool
	GetCursorPos() (float64, float64)
}

var layerKeys = [pipeline.NumLayers]int{
	core.Key1, core.Key2, core.Key3, core.Key4, core.Key5,
	core.Key6, core.Key7, core.Key8, core.Key9,
}

// Actions is what the user asked for this frame. Toggles and one-shot
// commands fire on the press edge only.
type Actions struct {
	Quit          bool
	ToggleCursor  bool
	ToggleGravity bool
	SaveBookmark  bool
	LoadBookmark  bool
	Commit        bool
	Reset         bool
	CyclePreset   bool
	ReseedNoise   bool
	Layer         int // 1..9, 0 for none
	Move          MoveInput
	MouseDX       float32
	MouseDY       float32
}

// Controls turns raw key and cursor state into Actions.
type Controls struct {
	wasDown map[int]bool

	lastX, lastY float64
	firstMouse   bool
}

// NewControls returns controls that ignore the first cursor sample.
func NewControls() *Controls {
	return &Controls{wasDown: make(map[int]bool), firstMouse: true}
}

func (c *Controls) pressed(src InputSource, key int) bool {
	down := src.IsKeyPressed(key)
	edge := down && !c.wasDown[key]
	c.wasDown[key] = down
	return edge
}

// Poll samples src once. Mouse deltas are only reported while the cursor is
// captured; releasing it re-arms the first-sample skip.
func (c *Controls) Poll(src InputSource, captured bool) Actions {
	a := Actions{
		Quit:          src.IsKeyPressed(core.KeyEscape),
		ToggleCursor:  c.pressed(src, core.KeySpace),
		ToggleGravity: c.pressed(src, core.KeyG),
		SaveBookmark:  c.pressed(src, core.KeyF5),
		LoadBookmark:  c.pressed(src, core.KeyF9),
		Commit:        c.pressed(src, core.KeyC),
		Reset:         c.pressed(src, core.KeyR),
		CyclePreset:   c.pressed(src, core.KeyP),
		ReseedNoise:   c.pressed(src, core.KeyN),
		Move: MoveInput{
			Forward:  src.IsKeyPressed(core.KeyW),
			Backward: src.IsKeyPressed(core.KeyS),
			Left:     src.IsKeyPressed(core.KeyA),
			Right:    src.IsKeyPressed(core.KeyD),
			Fast:     src.IsKeyPressed(core.KeyLeftShift),
		},
	}
	for i, key := range layerKeys {
		if c.pressed(src, key) && a.Layer == 0 {
			a.Layer = i + 1
		}
	}

	if !captured {
		c.firstMouse = true
		return a
	}
	x, y := src.GetCursorPos()
	if c.firstMouse {
		c.lastX, c.lastY = x, y
		c.firstMouse = false
	}
	a.MouseDX = float32(x - c.lastX)
	a.MouseDY = float32(c.lastY - y)
	c.lastX, c.lastY = x, y
	return a
}
