package synonyms

import (
	"fmt"
	"strings"
)

// ensure returns the node id for word, creating a singleton group if needed.
// Caller must hold the write lock.
func (s *Store) ensure(word string) int {
	if id, ok := s.index[word]; ok {
		return id
	}
	id := len(s.nodes)
	s.nodes = append(s.nodes, node{parent: id, members: []string{word}})
	s.index[word] = id
	s.groups++
	return id
}

// find walks to the root without touching the arena. Safe under RLock.
func (s *Store) find(id int) int {
	for s.nodes[id].parent != id {
		id = s.nodes[id].parent
	}
	return id
}

// findCompress finds the root and points every node on the way at it.
// Caller must hold the write lock.
func (s *Store) findCompress(id int) int {
	root := s.find(id)
	for id != root {
		next := s.nodes[id].parent
		s.nodes[id].parent = root
		id = next
	}
	return root
}

// union joins the groups rooted at a and b by rank and returns the new root.
// The merged member list is built first so a failure leaves both groups
// untouched.
func (s *Store) union(a, b int) (int, error) {
	merged, err := s.mergeMembers(s.nodes[a].members, s.nodes[b].members)
	if err != nil {
		return a, err
	}

	if s.nodes[a].rank < s.nodes[b].rank {
		a, b = b, a
	}
	s.nodes[b].parent = a
	s.nodes[b].members = nil
	if s.nodes[a].rank == s.nodes[b].rank {
		s.nodes[a].rank++
	}
	s.nodes[a].members = merged
	s.groups--

	if s.metrics != nil {
		s.metrics.StoreMergesTotal.Inc()
	}
	return a, nil
}

// mergeMembers merges two lists sorted by compare into a new sorted list.
func (s *Store) mergeMembers(left, right []string) ([]string, error) {
	out := make([]string, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch c := s.compare(left[i], right[j]); {
		case c < 0:
			out = append(out, left[i])
			i++
		case c > 0:
			out = append(out, right[j])
			j++
		default:
			return nil, fmt.Errorf("%w: %q", ErrInconsistentGroup, left[i])
		}
	}
	out = append(out, left[i:]...)
	out = append(out, right[j:]...)
	return out, nil
}

// compare orders words by primary-strength collation. Words that collate
// equal but differ in bytes ("D" and "d") are ordered by their bytes, which
// keeps the order total and independent of insertion history.
func (s *Store) compare(a, b string) int {
	if c := s.collator.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
