// Package vocab turns tokenized documents into integer term IDs.
package vocab

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrEmptyCorpus is returned when there is nothing to build a vocabulary from.
var ErrEmptyCorpus = errors.New("vocab: empty corpus")

// Document is the integer-encoded view of one training document.
// Terms keeps the original token order, repeats included.
type Document struct {
	Terms []int
}

// Len returns the number of token occurrences in the document.
func (d Document) Len() int { return len(d.Terms) }

// Vocabulary maps terms to stable IDs and tracks corpus statistics.
// It is immutable once returned by Build or New.
type Vocabulary struct {
	ids      map[string]int
	terms    []string
	occ      []int64
	postings []*roaring.Bitmap
	docs     int
}

// Build assigns IDs to terms in first-seen order and encodes every document.
// Empty tokens are skipped. A corpus with no documents or no tokens at all
// yields ErrEmptyCorpus.
func Build(docs [][]string) (*Vocabulary, []Document, error) {
	if len(docs) == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	v := &Vocabulary{
		ids:  make(map[string]int),
		docs: len(docs),
	}
	encoded := make([]Document, len(docs))
	total := 0

	for d, tokens := range docs {
		terms := make([]int, 0, len(tokens))
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			id, ok := v.ids[tok]
			if !ok {
				id = len(v.terms)
				v.ids[tok] = id
				v.terms = append(v.terms, tok)
				v.occ = append(v.occ, 0)
				v.postings = append(v.postings, roaring.New())
			}
			v.occ[id]++
			v.postings[id].Add(uint32(d))
			terms = append(terms, id)
		}
		encoded[d] = Document{Terms: terms}
		total += len(terms)
	}

	if total == 0 {
		return nil, nil, ErrEmptyCorpus
	}
	for _, p := range v.postings {
		p.RunOptimize()
	}
	return v, encoded, nil
}

// New restores a vocabulary from a persisted term list. ID i maps to terms[i].
// Corpus statistics are not persisted, so DocFreq and Occurrences report zero.
func New(terms []string) *Vocabulary {
	v := &Vocabulary{
		ids:   make(map[string]int, len(terms)),
		terms: make([]string, len(terms)),
	}
	copy(v.terms, terms)
	for i, t := range v.terms {
		v.ids[t] = i
	}
	return v
}

// Size returns the number of distinct terms.
func (v *Vocabulary) Size() int { return len(v.terms) }

// ID returns the ID for a term.
func (v *Vocabulary) ID(term string) (int, bool) {
	id, ok := v.ids[term]
	return id, ok
}

// Term returns the term for an ID.
func (v *Vocabulary) Term(id int) (string, bool) {
	if id < 0 || id >= len(v.terms) {
		return "", false
	}
	return v.terms[id], true
}

// Terms returns a copy of all terms in ID order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Contains reports whether id is a valid term ID.
func (v *Vocabulary) Contains(id int) bool {
	return id >= 0 && id < len(v.terms)
}

// DocFreq returns the number of training documents containing the term.
func (v *Vocabulary) DocFreq(id int) int {
	if id < 0 || id >= len(v.postings) {
		return 0
	}
	return int(v.postings[id].GetCardinality())
}

// Occurrences returns the total number of occurrences of the term in the corpus.
func (v *Vocabulary) Occurrences(id int) int64 {
	if id < 0 || id >= len(v.occ) {
		return 0
	}
	return v.occ[id]
}

// Documents returns the indices of training documents that contain the term.
// The returned bitmap is a copy.
func (v *Vocabulary) Documents(id int) *roaring.Bitmap {
	if id < 0 || id >= len(v.postings) {
		return roaring.New()
	}
	return v.postings[id].Clone()
}

// DocumentCount returns the number of documents the vocabulary was built from.
func (v *Vocabulary) DocumentCount() int { return v.docs }

// Encode maps tokens onto known IDs, dropping tokens outside the vocabulary.
// It returns the encoded document and the number of dropped tokens.
func (v *Vocabulary) Encode(tokens []string) (Document, int) {
	terms := make([]int, 0, len(tokens))
	unknown := 0
	for _, tok := range tokens {
		if id, ok := v.ids[tok]; ok {
			terms = append(terms, id)
			continue
		}
		unknown++
	}
	return Document{Terms: terms}, unknown
}
