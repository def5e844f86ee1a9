// Package synonyms implements the in-memory synonym store.
//
// Words live in a flat union-find arena. Every root carries the complete,
// collation-sorted membership of its group, rebuilt on each union by a
// linear merge of the two sorted lists, so a query is a find plus a slice
// copy. Writers take the exclusive lock and compress paths; readers share
// the lock and never mutate the arena.
package synonyms

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
)

// DefaultLocale is used when no locale option is given.
var DefaultLocale = language.English

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index:  make(map[string]int),
		locale: DefaultLocale,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// primary strength: case, accents and width are ignored
	s.collator = collate.New(s.locale, collate.Loose)
	return s
}

// Locale returns the collation locale of the store.
func (s *Store) Locale() language.Tag {
	return s.locale
}

// AddSynonyms puts word and every synonym into one group. Unknown words are
// created on the fly; repeated or already-joined words are no-ops.
func (s *Store) AddSynonyms(word string, synonyms []string) error {
	start := time.Now()

	s.mu.Lock()
	err := s.addLocked(word, synonyms)
	words, groups := len(s.index), s.groups
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("synonym group corrupted",
			logging.Word(word), logging.Strings("synonyms", synonyms), logging.Error(err))
	}
	s.observe("add", err, start)
	if s.metrics != nil {
		s.metrics.UpdateStoreSize(words, groups)
	}
	return err
}

func (s *Store) addLocked(word string, synonyms []string) error {
	root := s.findCompress(s.ensure(word))
	for _, syn := range synonyms {
		other := s.findCompress(s.ensure(syn))
		if other == root {
			continue
		}
		merged, err := s.union(root, other)
		if err != nil {
			return fmt.Errorf("join %q with %q: %w", word, syn, err)
		}
		root = merged
	}
	return nil
}

// GetSynonyms returns up to limit synonyms of word in collation order,
// together with the total number of synonyms. A non-positive limit yields
// an empty page with the real total. Unknown words have no synonyms.
func (s *Store) GetSynonyms(word string, limit int) Page {
	start := time.Now()
	defer s.observe("get", nil, start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.index[word]
	if !ok {
		return Page{Total: 0, Synonyms: []string{}}
	}

	members := s.nodes[s.find(id)].members
	page := Page{
		Total:    len(members) - 1,
		Synonyms: make([]string, 0, min(max(limit, 0), len(members)-1)),
	}
	for _, m := range members {
		if len(page.Synonyms) >= limit {
			break
		}
		if m != word {
			page.Synonyms = append(page.Synonyms, m)
		}
	}
	return page
}

// Entries returns one entry per group. Singleton groups are included with
// an empty synonym list so a full transfer also carries isolated words.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, s.groups)
	for i := range s.nodes {
		if s.nodes[i].parent != i {
			continue
		}
		members := s.nodes[i].members
		rest := make([]string, len(members)-1)
		copy(rest, members[1:])
		entries = append(entries, Entry{Word: members[0], Synonyms: rest})
	}
	return entries
}

// Import applies a batch of entries. Every entry is attempted; the returned
// error joins the failures.
func (s *Store) Import(entries []Entry) error {
	start := time.Now()

	var errs []error
	for _, e := range entries {
		if err := s.AddSynonyms(e.Word, e.Synonyms); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	s.observe("import", err, start)
	return err
}

// Stats reports word and group counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Words: len(s.index), Groups: s.groups}
	for i := range s.nodes {
		if s.nodes[i].parent == i && len(s.nodes[i].members) > st.LargestGroup {
			st.LargestGroup = len(s.nodes[i].members)
		}
	}
	return st
}

func (s *Store) observe(op string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordStoreOperation(op, status, time.Since(start))
}
