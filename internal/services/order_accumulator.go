package services

import (
	"errors"
	"sync"

	domain "github.com/pearlpos/api/internal/domain"
)

// ErrDraftLineIndex indicates a remove targeting a line that does not exist.
var ErrDraftLineIndex = errors.New("order draft: line index out of range")

// draftStore holds the in-progress order per register, keyed by the signed-in
// employee. Drafts survive failed submits; only a successful submit or an
// explicit clear empties them.
type draftStore struct {
	mu     sync.Mutex
	drafts map[int][]domain.OrderLine
}

func newDraftStore() *draftStore {
	return &draftStore{drafts: make(map[int][]domain.OrderLine)}
}

func (s *draftStore) add(employeeID int, line domain.OrderLine) []domain.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[employeeID] = append(s.drafts[employeeID], line)
	return cloneLines(s.drafts[employeeID])
}

func (s *draftStore) remove(employeeID, index int) ([]domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.drafts[employeeID]
	if index < 0 || index >= len(lines) {
		return nil, ErrDraftLineIndex
	}
	lines = append(lines[:index], lines[index+1:]...)
	if len(lines) == 0 {
		delete(s.drafts, employeeID)
	} else {
		s.drafts[employeeID] = lines
	}
	return cloneLines(lines), nil
}

func (s *draftStore) lines(employeeID int) []domain.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.drafts[employeeID])
}

func (s *draftStore) clear(employeeID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, employeeID)
}

func cloneLines(lines []domain.OrderLine) []domain.OrderLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]domain.OrderLine, len(lines))
	copy(out, lines)
	return out
}

func draftTotal(lines []domain.OrderLine) domain.Money {
	var total domain.Money
	for _, line := range lines {
		total = total.Add(line.UnitPrice.MulInt(line.Quantity))
	}
	return total
}
