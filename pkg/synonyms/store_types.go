package synonyms

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
)

// Entry is one synonym group in transfer form: its first member as Word and
// every other member in Synonyms. It is also the bulk import payload.
type Entry struct {
	Word     string   `json:"word"`
	Synonyms []string `json:"synonyms"`
}

// Page is the answer to a synonym query. Total counts every synonym of the
// word even when Synonyms was truncated.
type Page struct {
	Total    int      `json:"total"`
	Synonyms []string `json:"synonyms"`
}

// Stats summarises the store contents.
type Stats struct {
	Words        int `json:"words"`
	Groups       int `json:"groups"`
	LargestGroup int `json:"largest_group"`
}

// node is one union-find element. members is authoritative only while the
// node is a root.
type node struct {
	parent  int
	rank    uint8
	members []string
}

// Store keeps words in transitive synonym groups.
type Store struct {
	mu     sync.RWMutex
	nodes  []node
	index  map[string]int
	groups int

	// collator is not safe for concurrent use; it is only touched under mu.Lock.
	collator *collate.Collator
	locale   language.Tag

	metrics *metrics.Registry
	logger  logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLocale selects the collation locale used to order group members.
func WithLocale(tag language.Tag) Option {
	return func(s *Store) {
		s.locale = tag
	}
}

// WithMetrics publishes store operation metrics to reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Store) {
		s.metrics = reg
	}
}

// WithLogger sets the store logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}
