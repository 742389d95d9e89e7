package resorts

// Groups maps resort IDs to the features (runs or lifts) that refer to them.
type Groups struct {
	features map[string][]*Feature

	// The number of features with no ski area references at all.
	Unreferenced int
	// The number of features whose references all point at unknown resorts.
	Unmatched int
}

func NewGroups() *Groups {

	g := &Groups{
		features: make(map[string][]*Feature),
	}

	return g
}

// Get returns the features for id, in source order. The result is never nil.
func (g *Groups) Get(id string) []*Feature {

	features, exists := g.features[id]

	if !exists {
		return []*Feature{}
	}

	return features
}

// Len returns the number of resorts with at least one feature.
func (g *Groups) Len() int {
	return len(g.features)
}

// Orphans returns the number of features that were not assigned to any resort.
func (g *Groups) Orphans() int {
	return g.Unreferenced + g.Unmatched
}

// GroupByResort assigns each feature to every known resort it refers to. The same routine is used
// for both runs and lifts; a feature shared by several resorts is added to each of them.
func GroupByResort(features []*Feature, resorts *Resorts) *Groups {

	groups := NewGroups()

	for _, f := range features {

		ids := DeriveSkiAreaIds(f.Body)

		if len(ids) == 0 {
			groups.Unreferenced += 1
			continue
		}

		matched := false

		for _, id := range ids {

			if !resorts.Contains(id) {
				continue
			}

			groups.features[id] = append(groups.features[id], f)
			matched = true
		}

		if !matched {
			groups.Unmatched += 1
		}
	}

	return groups
}
