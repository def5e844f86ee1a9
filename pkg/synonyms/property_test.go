package synonyms

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type pair struct {
	Word    string
	Synonym string
}

// genPairs draws word pairs from a small alphabet so groups actually collide.
func genPairs() gopter.Gen {
	word := gen.OneConstOf("a", "b", "c", "d", "e", "A", "B", "é", "1", "x", "X", "y")
	return gen.SliceOf(gopter.CombineGens(word, word).Map(func(v []interface{}) pair {
		return pair{Word: v[0].(string), Synonym: v[1].(string)}
	}))
}

func buildStore(pairs []pair) *Store {
	s := NewStore()
	for _, p := range pairs {
		_ = s.AddSynonyms(p.Word, []string{p.Synonym})
	}
	return s
}

// referenceGroups computes the expected partition with a naive closure.
func referenceGroups(pairs []pair) map[string]map[string]bool {
	groups := make(map[string]map[string]bool)
	for _, p := range pairs {
		for _, w := range []string{p.Word, p.Synonym} {
			if groups[w] == nil {
				groups[w] = map[string]bool{w: true}
			}
		}
		if sameSet(groups[p.Word], groups[p.Synonym]) {
			continue
		}
		merged := groups[p.Word]
		for w := range groups[p.Synonym] {
			merged[w] = true
		}
		for w := range merged {
			groups[w] = merged
		}
	}
	return groups
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func TestStoreInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("groups match the transitive closure", prop.ForAll(
		func(pairs []pair) bool {
			s := buildStore(pairs)
			for w, group := range referenceGroups(pairs) {
				page := s.GetSynonyms(w, len(group))
				if page.Total != len(group)-1 || len(page.Synonyms) != len(group)-1 {
					return false
				}
				for _, syn := range page.Synonyms {
					if syn == w || !group[syn] {
						return false
					}
				}
			}
			return true
		},
		genPairs(),
	))

	properties.Property("synonymy is symmetric", prop.ForAll(
		func(pairs []pair) bool {
			s := buildStore(pairs)
			for _, p := range pairs {
				if p.Word == p.Synonym {
					continue
				}
				if !contains(s.GetSynonyms(p.Synonym, 100).Synonyms, p.Word) {
					return false
				}
			}
			return true
		},
		genPairs(),
	))

	properties.Property("pages are prefixes of the full answer", prop.ForAll(
		func(pairs []pair, limit int) bool {
			s := buildStore(pairs)
			for _, p := range pairs {
				full := s.GetSynonyms(p.Word, 100)
				page := s.GetSynonyms(p.Word, limit)
				if page.Total != full.Total || len(page.Synonyms) != min(limit, full.Total) {
					return false
				}
				for i := range page.Synonyms {
					if page.Synonyms[i] != full.Synonyms[i] {
						return false
					}
				}
			}
			return true
		},
		genPairs(),
		gen.IntRange(0, 12),
	))

	properties.Property("member order does not depend on insertion order", prop.ForAll(
		func(pairs []pair) bool {
			reversed := make([]pair, len(pairs))
			for i, p := range pairs {
				reversed[len(pairs)-1-i] = pair{Word: p.Synonym, Synonym: p.Word}
			}
			a, b := buildStore(pairs), buildStore(reversed)
			for _, p := range pairs {
				pa, pb := a.GetSynonyms(p.Word, 100), b.GetSynonyms(p.Word, 100)
				if pa.Total != pb.Total {
					return false
				}
				for i := range pa.Synonyms {
					if pa.Synonyms[i] != pb.Synonyms[i] {
						return false
					}
				}
			}
			return true
		},
		genPairs(),
	))

	properties.Property("adding the same data twice is a no-op", prop.ForAll(
		func(pairs []pair) bool {
			s := buildStore(pairs)
			before := s.Entries()
			for _, p := range pairs {
				_ = s.AddSynonyms(p.Word, []string{p.Synonym})
			}
			return sameEntries(before, s.Entries())
		},
		genPairs(),
	))

	properties.Property("import of entries reproduces the store", prop.ForAll(
		func(pairs []pair) bool {
			src := buildStore(pairs)
			dst := NewStore()
			if err := dst.Import(src.Entries()); err != nil {
				return false
			}
			return sameEntries(src.Entries(), dst.Entries()) && src.Stats() == dst.Stats()
		},
		genPairs(),
	))

	properties.TestingRun(t)
}

func contains(list []string, w string) bool {
	for _, v := range list {
		if v == w {
			return true
		}
	}
	return false
}

func sameEntries(a, b []Entry) bool {
	key := func(e Entry) string { return e.Word }
	sort.Slice(a, func(i, j int) bool { return key(a[i]) < key(a[j]) })
	sort.Slice(b, func(i, j int) bool { return key(b[i]) < key(b[j]) })
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Word != b[i].Word || len(a[i].Synonyms) != len(b[i].Synonyms) {
			return false
		}
		for j := range a[i].Synonyms {
			if a[i].Synonyms[j] != b[i].Synonyms[j] {
				return false
			}
		}
	}
	return true
}
