package visualization

import (
	"fmt"
	"math"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the size of the rendering surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScaleFactor is min(width, height) / 1000.
func (v Viewport) ScaleFactor() float64 {
	return math.Min(v.Width, v.Height) / 1000
}

// Center returns the midpoint of the viewport.
func (v Viewport) Center() Position {
	return Position{X: v.Width / 2, Y: v.Height / 2}
}

// Extent returns the smaller dimension.
func (v Viewport) Extent() float64 {
	return math.Min(v.Width, v.Height)
}

// Validate rejects non-finite or non-positive dimensions.
func (v Viewport) Validate() error {
	if !finitePositive(v.Width) || !finitePositive(v.Height) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidViewport, v.Width, v.Height)
	}
	return nil
}

// Mode selects which nodes PlaceRadial assigns.
type Mode int

const (
	// PlaceAll clears every position and places the whole graph.
	PlaceAll Mode = iota
	// PlaceUnplaced only assigns nodes without coordinates.
	PlaceUnplaced
)

func (m Mode) String() string {
	switch m {
	case PlaceAll:
		return "all"
	case PlaceUnplaced:
		return "unplaced"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// LayoutConfig configures radial placement. Ring radii are fractions of the
// smaller viewport dimension and must increase with tier depth.
type LayoutConfig struct {
	SectorRing       float64 // Sector ring radius
	SubsectorRing    float64
	OrganizationRing float64
	DistributionRing float64
	CommunityRing    float64
	SubsectorSpread  float64 // Degrees between sibling subsectors
	OrgSpread        float64 // Degrees between sibling organizations
	MaxWedge         float64 // Widest fan of siblings around a sector, degrees
}

// DefaultLayoutConfig returns the standard ring layout.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		SectorRing:       0.20,
		SubsectorRing:    0.30,
		OrganizationRing: 0.38,
		DistributionRing: 0.44,
		CommunityRing:    0.50,
		SubsectorSpread:  14,
		OrgSpread:        9,
		MaxWedge:         100,
	}
}
