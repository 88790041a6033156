package matcher

import "github.com/eshaffer321/backoffice-recon/internal/domain/record"

// Index maps helper keys to candidate positions in insertion order.
type Index struct {
	candidates []*record.Record
	byKey      map[string][]int
	invalid    []record.Invalid
}

// NewIndex indexes every candidate under HelperKey1 and HelperKey2 (once when
// the two keys are equal). Nil candidates are skipped and reported by Invalid.
func NewIndex(candidates []*record.Record) *Index {
	idx := &Index{
		candidates: candidates,
		byKey:      make(map[string][]int, len(candidates)*2),
	}

	for pos, c := range candidates {
		if c == nil {
			idx.invalid = append(idx.invalid, record.NewInvalid(pos, "nil candidate"))
			continue
		}
		idx.byKey[c.HelperKey1] = append(idx.byKey[c.HelperKey1], pos)
		if c.HelperKey2 != c.HelperKey1 {
			idx.byKey[c.HelperKey2] = append(idx.byKey[c.HelperKey2], pos)
		}
	}

	return idx
}

// Lookup returns the candidate positions indexed under key, earliest first.
// The returned slice must not be modified.
func (idx *Index) Lookup(key string) []int {
	return idx.byKey[key]
}

// Len returns the number of candidate slots, including skipped nil ones.
func (idx *Index) Len() int {
	return len(idx.candidates)
}

// Candidate returns the candidate at pos, or nil when pos is out of range.
func (idx *Index) Candidate(pos int) *record.Record {
	if pos < 0 || pos >= len(idx.candidates) {
		return nil
	}
	return idx.candidates[pos]
}

// Invalid lists the candidates skipped while indexing.
func (idx *Index) Invalid() []record.Invalid {
	return idx.invalid
}
