package broker

import "sort"

// stringSet tracks publisher and subscriber membership. Both topic flavors
// share it so the duplicate-add / absent-remove rules live in one place.
type stringSet map[string]struct{}

// add inserts name and reports whether it was absent before.
func (s stringSet) add(name string) bool {
	if _, ok := s[name]; ok {
		return false
	}
	s[name] = struct{}{}
	return true
}

// remove deletes name and reports whether it was present.
func (s stringSet) remove(name string) bool {
	if _, ok := s[name]; !ok {
		return false
	}
	delete(s, name)
	return true
}

func (s stringSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// names returns the members sorted for stable projections.
func (s stringSet) names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
