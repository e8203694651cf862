// Package reconcile computes the difference between an existing and a
// desired set of association keys.
package reconcile

// Plan is the outcome of Reconcile: keys to insert and keys to delete.
type Plan[K comparable] struct {
	ToAdd    []K
	ToRemove []K
}

// Reconcile returns the keys present in desired but not existing (ToAdd) and
// those present in existing but not desired (ToRemove). Duplicates are
// collapsed and input order is kept.
func Reconcile[K comparable](existing, desired []K) Plan[K] {
	have := make(map[K]struct{}, len(existing))
	for _, k := range existing {
		have[k] = struct{}{}
	}
	want := make(map[K]struct{}, len(desired))
	for _, k := range desired {
		want[k] = struct{}{}
	}

	var plan Plan[K]
	added := make(map[K]struct{})
	for _, k := range desired {
		if _, ok := have[k]; ok {
			continue
		}
		if _, dup := added[k]; dup {
			continue
		}
		added[k] = struct{}{}
		plan.ToAdd = append(plan.ToAdd, k)
	}
	removed := make(map[K]struct{})
	for _, k := range existing {
		if _, ok := want[k]; ok {
			continue
		}
		if _, dup := removed[k]; dup {
			continue
		}
		removed[k] = struct{}{}
		plan.ToRemove = append(plan.ToRemove, k)
	}
	return plan
}
