package pipeline

import "fmt"

// NumLayers is the number of debug layers the composite pass can show.
const NumLayers = 9

var layerNames = [NumLayers]string{
	"position",
	"normal",
	"material",
	"lighting",
	"atmosphere",
	"clouds",
	"lit+atmosphere",
	"lit+clouds",
	"final",
}

// LayerName returns the name of the 1-indexed layer n.
func LayerName(n int) string {
	if n < 1 || n > NumLayers {
		return fmt.Sprintf("layer(%d)", n)
	}
	return layerNames[n-1]
}

// LayerMode selects how the composite pass picks what to display.
type LayerMode int

const (
	// LayerModeDebugLevel shows exactly one layer, 1-indexed.
	LayerModeDebugLevel LayerMode = iota
	// LayerModeVisibility blends every layer whose flag is set.
	LayerModeVisibility
)

func (m LayerMode) String() string {
	if m == LayerModeVisibility {
		return "visibility"
	}
	return "debug_level"
}

// ParseLayerMode accepts "debug_level" or "visibility".
func ParseLayerMode(s string) (LayerMode, error) {
	switch s {
	case "", "debug_level", "level":
		return LayerModeDebugLevel, nil
	case "visibility", "mask":
		return LayerModeVisibility, nil
	}
	return LayerModeDebugLevel, fmt.Errorf("unknown layer mode %q", s)
}

// LayerSelector is the composite pass's display control.
type LayerSelector struct {
	Mode    LayerMode
	Level   int // 1..NumLayers, used by LayerModeDebugLevel
	Visible [NumLayers]bool
}

// DebugLevel selects a single layer. Out-of-range levels clamp to the final
// image.
func DebugLevel(n int) LayerSelector {
	if n < 1 || n > NumLayers {
		n = NumLayers
	}
	return LayerSelector{Mode: LayerModeDebugLevel, Level: n}
}

// VisibilityMask shows the given layers; missing trailing flags are false.
func VisibilityMask(flags ...bool) LayerSelector {
	s := LayerSelector{Mode: LayerModeVisibility, Level: NumLayers}
	copy(s.Visible[:], flags)
	return s
}

// Select handles a number key press (1..9). In debug-level mode it switches
// the shown layer; in visibility mode it toggles that layer.
func (s *LayerSelector) Select(n int) bool {
	if n < 1 || n > NumLayers {
		return false
	}
	if s.Mode == LayerModeVisibility {
		return s.Toggle(n - 1)
	}
	s.Level = n
	return true
}

// Toggle flips the 0-indexed layer i in visibility mode.
func (s *LayerSelector) Toggle(i int) bool {
	if i < 0 || i >= NumLayers {
		return false
	}
	s.Visible[i] = !s.Visible[i]
	return true
}

func (s LayerSelector) String() string {
	if s.Mode == LayerModeDebugLevel {
		return fmt.Sprintf("level %d (%s)", s.Level, LayerName(s.Level))
	}
	var shown []string
	for i, v := range s.Visible {
		if v {
			shown = append(shown, layerNames[i])
		}
	}
	return fmt.Sprintf("visible %v", shown)
}
