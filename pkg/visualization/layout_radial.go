package visualization

import (
	"math"
	"math/rand"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// PlaceRadial seeds node positions on concentric rings around the viewport
// center.
//
// The root sits on the center and sectors are spread evenly starting at
// -90 degrees; both are pinned. Subsectors and organizations fan out around
// their sector's angle. Distribution and community nodes, and tiers outside
// the hierarchy, get a uniform angle drawn from rng. Subsectors and
// organizations with no resolvable sector are left unplaced; their ids are
// returned.
func PlaceRadial(cat *catalog.Catalog, vp Viewport, rng *rand.Rand, mode Mode, cfg LayoutConfig) []string {
	if mode == PlaceAll {
		for _, n := range cat.Nodes() {
			n.X, n.Y, n.Fx, n.Fy = nil, nil, nil, nil
			n.Vx, n.Vy = 0, 0
		}
	}

	center := vp.Center()
	extent := vp.Extent()
	hier := cat.Hierarchy()

	sectors := cat.NodesByTier(catalog.TierSector)
	sectorAngle := make(map[string]float64, len(sectors))
	for i, s := range sectors {
		angle := radians(-90 + float64(i)*360/float64(len(sectors)))
		if mode == PlaceUnplaced {
			if x, y, ok := s.Position(); ok {
				angle = math.Atan2(y-center.Y, x-center.X)
			}
		}
		sectorAngle[s.ID] = angle
	}

	spread := newSiblingSpread(cat, hier, cfg)

	var skipped []string
	for _, n := range cat.Nodes() {
		if mode == PlaceUnplaced && n.Placed() {
			continue
		}
		radius := cfg.ringFraction(n.Tier) * extent

		switch n.Tier {
		case catalog.TierRoot:
			n.Pin(center.X, center.Y)
		case catalog.TierSector:
			p := polar(center, radius, sectorAngle[n.ID])
			n.Pin(p.X, p.Y)
		case catalog.TierSubsector, catalog.TierOrganization:
			sector, ok := hier.SectorOf(n.ID)
			if !ok {
				skipped = append(skipped, n.ID)
				continue
			}
			p := polar(center, radius, sectorAngle[sector.ID]+spread.offset(n.ID))
			n.SetPosition(p.X, p.Y)
		default:
			p := polar(center, radius, rng.Float64()*2*math.Pi)
			n.SetPosition(p.X, p.Y)
		}
	}
	return skipped
}

// siblingSpread assigns each subsector/organization a fixed angular offset
// inside its sector's wedge, ordered by catalog position.
type siblingSpread struct {
	offsets map[string]float64
}

func newSiblingSpread(cat *catalog.Catalog, hier *catalog.Hierarchy, cfg LayoutConfig) siblingSpread {
	type group struct {
		sector string
		tier   catalog.Tier
	}
	members := make(map[group][]string)
	var order []group
	for _, n := range cat.Nodes() {
		if n.Tier != catalog.TierSubsector && n.Tier != catalog.TierOrganization {
			continue
		}
		sector, ok := hier.SectorOf(n.ID)
		if !ok {
			continue
		}
		g := group{sector: sector.ID, tier: n.Tier}
		if _, seen := members[g]; !seen {
			order = append(order, g)
		}
		members[g] = append(members[g], n.ID)
	}

	s := siblingSpread{offsets: make(map[string]float64)}
	for _, g := range order {
		ids := members[g]
		step := cfg.SubsectorSpread
		if g.tier == catalog.TierOrganization {
			step = cfg.OrgSpread
		}
		if k := float64(len(ids)); k > 1 && step*(k-1) > cfg.MaxWedge {
			step = cfg.MaxWedge / (k - 1)
		}
		mid := float64(len(ids)-1) / 2
		for i, id := range ids {
			s.offsets[id] = radians((float64(i) - mid) * step)
		}
	}
	return s
}

func (s siblingSpread) offset(id string) float64 {
	return s.offsets[id]
}
