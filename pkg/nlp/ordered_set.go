package nlp

// OrderedSet keeps strings in first-insertion order without duplicates.
type OrderedSet struct {
	items []string
	seen  map[string]struct{}
}

func NewOrderedSet(items ...string) *OrderedSet {
	s := &OrderedSet{seen: make(map[string]struct{})}
	s.Add(items...)
	return s
}

// Add appends items not already present.
func (s *OrderedSet) Add(items ...string) {
	for _, it := range items {
		if _, ok := s.seen[it]; ok {
			continue
		}
		s.seen[it] = struct{}{}
		s.items = append(s.items, it)
	}
}

func (s *OrderedSet) Contains(item string) bool {
	_, ok := s.seen[item]
	return ok
}

func (s *OrderedSet) Len() int { return len(s.items) }

// Items returns a copy of the set in insertion order.
func (s *OrderedSet) Items() []string {
	return append([]string{}, s.items...)
}
