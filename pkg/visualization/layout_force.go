package visualization

import (
	"fmt"
	"math"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// Force policy constants.
const (
	MinLinkDistance  = 30.0
	BaseChargeUnit   = -200.0
	CollisionPadding = 5.0

	DefaultStructureDistance = 140.0
	DefaultFlowDistance      = 100.0
)

// DistanceSettings holds the user-adjustable base distance of each link type
// before viewport scaling.
type DistanceSettings struct {
	Structure     float64 `json:"structure" yaml:"structure" toml:"structure"`
	GrantFlow     float64 `json:"grant-flow" yaml:"grant-flow" toml:"grant-flow"`
	ServiceFlow   float64 `json:"service-flow" yaml:"service-flow" toml:"service-flow"`
	KnowledgeFlow float64 `json:"knowledge-flow" yaml:"knowledge-flow" toml:"knowledge-flow"`
}

// DefaultDistances returns structure=140 and 100 for every flow type.
func DefaultDistances() DistanceSettings {
	return DistanceSettings{
		Structure:     DefaultStructureDistance,
		GrantFlow:     DefaultFlowDistance,
		ServiceFlow:   DefaultFlowDistance,
		KnowledgeFlow: DefaultFlowDistance,
	}
}

// Base returns the configured distance for lt. Unknown types get 100.
func (d DistanceSettings) Base(lt catalog.LinkType) float64 {
	switch lt {
	case catalog.LinkStructure:
		return d.Structure
	case catalog.LinkGrantFlow:
		return d.GrantFlow
	case catalog.LinkServiceFlow:
		return d.ServiceFlow
	case catalog.LinkKnowledgeFlow:
		return d.KnowledgeFlow
	default:
		return DefaultFlowDistance
	}
}

// With returns a copy with lt set to v. It rejects unknown link types and
// values that are not finite and positive.
func (d DistanceSettings) With(lt catalog.LinkType, v float64) (DistanceSettings, error) {
	if !finitePositive(v) {
		return d, fmt.Errorf("%w: %s=%v", ErrInvalidDistance, lt, v)
	}
	switch lt {
	case catalog.LinkStructure:
		d.Structure = v
	case catalog.LinkGrantFlow:
		d.GrantFlow = v
	case catalog.LinkServiceFlow:
		d.ServiceFlow = v
	case catalog.LinkKnowledgeFlow:
		d.KnowledgeFlow = v
	default:
		return d, fmt.Errorf("%w: unknown link type %q", ErrInvalidDistance, lt)
	}
	return d, nil
}

// Apply sets every entry of values, all or nothing.
func (d DistanceSettings) Apply(values map[catalog.LinkType]float64) (DistanceSettings, error) {
	out := d
	for lt, v := range values {
		var err error
		if out, err = out.With(lt, v); err != nil {
			return d, err
		}
	}
	return out, nil
}

// Map renders the settings keyed by link type.
func (d DistanceSettings) Map() map[catalog.LinkType]float64 {
	out := make(map[catalog.LinkType]float64, len(catalog.LinkTypes))
	for _, lt := range catalog.LinkTypes {
		out[lt] = d.Base(lt)
	}
	return out
}

// Validate checks every entry.
func (d DistanceSettings) Validate() error {
	_, err := d.Apply(d.Map())
	return err
}

// ForcePolicy maps node and link attributes to simulation parameters for a
// given viewport. It is a value; recompute it after any control change.
type ForcePolicy struct {
	Distances DistanceSettings
	Viewport  Viewport
}

// NewForcePolicy returns a policy with the given settings.
func NewForcePolicy(d DistanceSettings, vp Viewport) ForcePolicy {
	return ForcePolicy{Distances: d, Viewport: vp}
}

// LinkDistance is max(base(lt) * scale, 30).
func (p ForcePolicy) LinkDistance(lt catalog.LinkType) float64 {
	return math.Max(p.Distances.Base(lt)*p.Viewport.ScaleFactor(), MinLinkDistance)
}

// Charge is scale * -200 * tier multiplier.
func (p ForcePolicy) Charge(n *catalog.Node) float64 {
	return p.Viewport.ScaleFactor() * BaseChargeUnit * ChargeMultiplier(n.Tier)
}

// CollisionRadius is max(size * scale + padding, tier minimum).
func (p ForcePolicy) CollisionRadius(n *catalog.Node) float64 {
	r := n.Size*p.Viewport.ScaleFactor() + CollisionPadding
	if math.IsNaN(r) {
		r = 0
	}
	return math.Max(r, CollisionMinimum(n.Tier))
}
