package visualization

import "github.com/dd0wney/stratnet/pkg/catalog"

// Per-tier tables. Every switch covers all six tiers and carries an explicit
// default for values outside the hierarchy.

// ringFraction returns the placement ring of a tier as a fraction of the
// smaller viewport dimension. Unknown tiers share the outermost ring.
func (c LayoutConfig) ringFraction(t catalog.Tier) float64 {
	switch t {
	case catalog.TierRoot:
		return 0
	case catalog.TierSector:
		return c.SectorRing
	case catalog.TierSubsector:
		return c.SubsectorRing
	case catalog.TierOrganization:
		return c.OrganizationRing
	case catalog.TierDistribution:
		return c.DistributionRing
	case catalog.TierCommunity:
		return c.CommunityRing
	default:
		return c.CommunityRing
	}
}

// ChargeMultiplier scales the base repulsion. Strictly decreasing from root
// to community; unknown tiers get 1.
func ChargeMultiplier(t catalog.Tier) float64 {
	switch t {
	case catalog.TierRoot:
		return 3
	case catalog.TierSector:
		return 2
	case catalog.TierSubsector:
		return 1.5
	case catalog.TierOrganization:
		return 1
	case catalog.TierDistribution:
		return 0.8
	case catalog.TierCommunity:
		return 0.6
	default:
		return 1
	}
}

// CollisionMinimum is the smallest collision radius a tier may shrink to.
func CollisionMinimum(t catalog.Tier) float64 {
	switch t {
	case catalog.TierRoot:
		return 30
	case catalog.TierSector:
		return 24
	case catalog.TierSubsector:
		return 18
	case catalog.TierOrganization:
		return 14
	case catalog.TierDistribution:
		return 12
	case catalog.TierCommunity:
		return 10
	default:
		return 10
	}
}
