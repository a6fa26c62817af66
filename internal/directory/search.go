package directory

import (
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/models"
)

// SearchPageSize is how many matches a new query reveals.
const SearchPageSize = 2

// Catalog provides the doctors a Search looks through.
type Catalog interface {
	Doctors() []models.Doctor
}

// Search backs the search page. Nothing is shown until a non-blank query is
// entered; then the first SearchPageSize matches are visible and Next reveals
// the rest.
type Search struct {
	mu      sync.Mutex
	catalog Catalog
	query   string
	matches []models.Doctor
	visible int
}

// NewSearch creates a search over catalog.
func NewSearch(catalog Catalog) *Search {
	return &Search{catalog: catalog, visible: SearchPageSize}
}

// SetQuery runs a new search and resets the visible count.
func (s *Search) SetQuery(query string) []models.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.visible = SearchPageSize
	if strings.TrimSpace(query) == "" {
		s.matches = nil
	} else {
		s.matches = FilterDoctors(s.catalog.Doctors(), query)
	}
	return s.resultsLocked()
}

// Next reveals all remaining matches.
func (s *Search) Next() []models.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.matches) > s.visible {
		s.visible = len(s.matches)
	}
	return s.resultsLocked()
}

// Query returns the current query.
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results returns the visible matches.
func (s *Search) Results() []models.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultsLocked()
}

// HasMore reports whether Next would reveal more matches.
func (s *Search) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches) > s.visible
}

// MatchCount is the number of matches, visible or not.
func (s *Search) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func (s *Search) resultsLocked() []models.Doctor {
	n := s.visible
	if n > len(s.matches) {
		n = len(s.matches)
	}
	return cloneDoctors(s.matches[:n])
}
