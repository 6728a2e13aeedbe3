package contact

import "sort"

// TypeFilter restricts a dispatch system to contacts between objects of
// allowed types, e.g. NewTypeFilter("player", "enemy").
type TypeFilter struct {
	types map[string]struct{}
}

// NewTypeFilter creates a filter allowing the given types.
func NewTypeFilter(types ...string) *TypeFilter {
	f := &TypeFilter{types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		f.types[t] = struct{}{}
	}
	return f
}

// Check reports whether both objects' types are allowed. A nil filter
// allows everything.
func (f *TypeFilter) Check(a, b Object) bool {
	if f == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	_, okA := f.types[a.Type()]
	_, okB := f.types[b.Type()]
	return okA && okB
}

// Allows reports whether a single type is in the set.
func (f *TypeFilter) Allows(typ string) bool {
	if f == nil {
		return true
	}
	_, ok := f.types[typ]
	return ok
}

// Types returns the allowed types, sorted.
func (f *TypeFilter) Types() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.types))
	for t := range f.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
