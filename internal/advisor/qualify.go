package advisor

import "sort"

// maxIndexWidth caps composite candidates; wider indexes have diminishing
// selectivity gain and high write-maintenance cost.
const maxIndexWidth = 5

// Qualify reduces raw candidates to the minimal schema-safe set.
//
// Candidates are considered widest-first (stable on ties). A candidate is
// dropped when it is wider than the cap, when its column sequence exactly
// matches an existing index, or when its column set equals or is a subset of
// an already accepted candidate's set. The subset rule intentionally ignores
// column order, unlike left-prefix redundancy over existing indexes: a
// narrower candidate with a different leading column is still discarded.
//
// existing holds the reduced column lists of the table's current indexes.
func Qualify(raw []*Candidate, existing [][]string) []*Candidate {
	sorted := make([]*Candidate, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Columns) > len(sorted[j].Columns)
	})

	var accepted []*Candidate
	for _, c := range sorted {
		if len(c.Columns) > maxIndexWidth {
			continue
		}
		if matchesExisting(c, existing) {
			continue
		}
		if subsumed(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

// matchesExisting reports an exact, order-sensitive column-sequence match
// against any existing index.
func matchesExisting(c *Candidate, existing [][]string) bool {
	for _, cols := range existing {
		if columnsEqual(c.Columns, cols) {
			return true
		}
	}
	return false
}

// subsumed reports whether c's column set equals or is contained in the set
// of any already accepted candidate.
func subsumed(c *Candidate, accepted []*Candidate) bool {
	set := c.columnSet()
	for _, a := range accepted {
		if setWithin(set, a.columnSet()) {
			return true
		}
	}
	return false
}

func setWithin(sub, super map[string]struct{}) bool {
	if len(sub) > len(super) {
		return false
	}
	for col := range sub {
		if _, ok := super[col]; !ok {
			return false
		}
	}
	return true
}
