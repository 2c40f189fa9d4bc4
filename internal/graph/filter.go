package graph

import "gamebooks/internal/domain"

// Filters narrow the visible graph. An empty list means no restriction.
type Filters struct {
	Types []domain.NodeType `json:"types"`
	Tags  []string          `json:"tags"`
}

func (f Filters) hides(n domain.Node) bool {
	if len(f.Types) > 0 {
		allowed := false
		for _, t := range f.Types {
			if n.Type == t {
				allowed = true
				break
			}
		}
		if !allowed {
			return true
		}
	}
	if len(f.Tags) > 0 {
		for _, tag := range f.Tags {
			if n.HasTag(tag) {
				return false
			}
		}
		return true
	}
	return false
}

// ApplyFilters marks the nodes failing f, and edges touching them, as
// hidden. This is view state only: nothing is marked dirty and hidden flags
// never reach the saved document.
func (s *Store) ApplyFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = Filters{
		Types: append([]domain.NodeType(nil), f.Types...),
		Tags:  append([]string(nil), f.Tags...),
	}
	s.applyFiltersLocked()
}

func (s *Store) applyFiltersLocked() {
	hidden := make(map[string]bool)
	for i := range s.nodes {
		h := s.filters.hides(s.nodes[i])
		s.nodes[i].Hidden = h
		if h {
			hidden[s.nodes[i].ID] = true
		}
	}
	for i := range s.edges {
		s.edges[i].Hidden = hidden[s.edges[i].Source] || hidden[s.edges[i].Target]
	}
}
