package catalog

// Seed returns the built-in starting network: the root and the three
// top-level sectors joined by structure links.
func Seed() *Catalog {
	c := New()
	c.Metadata = Metadata{
		Name:        "Community Distribution Network",
		Description: "Government, education and business sectors serving communities",
		Version:     "1.0",
	}

	c.addNode(&Node{ID: "root", Name: "Community Distribution Network", Tier: TierRoot, Color: "#FFFFFF", Size: 15})
	c.addNode(&Node{
		ID: "gov", Name: "Government Sector", Tier: TierSector, Color: "#FF6B6B", Size: 12,
		Description: "Policy makers and public service providers",
		Funding:     "$50B+", Population: "328M citizens",
	})
	c.addNode(&Node{
		ID: "edu", Name: "Higher Education", Tier: TierSector, Color: "#4ECDC4", Size: 12,
		Description: "Universities, colleges, and research institutions",
		Funding:     "$70B+", Population: "20M students",
	})
	c.addNode(&Node{
		ID: "biz", Name: "Business Sector", Tier: TierSector, Color: "#45B7D1", Size: 12,
		Description: "Private companies and corporate entities",
		Funding:     "$25B+ CSR", Population: "160M employees",
	})

	c.addLink(Link{Source: "root", Target: "gov", Type: LinkStructure})
	c.addLink(Link{Source: "root", Target: "edu", Type: LinkStructure})
	c.addLink(Link{Source: "root", Target: "biz", Type: LinkStructure})
	return c
}
