package visualization

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Distance slider bounds used by interactive hosts.
const (
	SliderMin  = 50.0
	SliderMax  = 300.0
	SliderStep = 10.0
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SnapDistance rounds v to the slider step and clamps it to the slider range.
func SnapDistance(v float64) float64 {
	if math.IsNaN(v) {
		return SliderMin
	}
	return clamp(math.Round(v/SliderStep)*SliderStep, SliderMin, SliderMax)
}

func polar(center Position, radius, angle float64) Position {
	return Position{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y + radius*math.Sin(angle),
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
