package model

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/lda/pkg/lda/vocab"
)

const describeCacheSize = 256

// Model is a trained topic model: the vocabulary, the hyperparameters and the
// term-topic distribution φ. It is immutable and safe for concurrent use.
type Model struct {
	vocab  *vocab.Vocabulary
	topics int
	alpha  float64
	beta   float64
	// phi is row-major by topic: phi[k*terms+w]
	phi   []float64
	terms int

	described *lru.Cache[describeKey, TopicDescription]
}

type describeKey struct {
	topic, n int
}

// NewModel rebuilds a model from persisted parameters. phi must hold one row
// of v.Size() probabilities per topic.
func NewModel(v *vocab.Vocabulary, topics int, alpha, beta float64, phi [][]float64) (*Model, error) {
	if topics <= 0 {
		return nil, ErrInvalidTopicCount
	}
	if v == nil || v.Size() == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(phi) != topics {
		return nil, fmt.Errorf("%w: %d phi rows for %d topics", ErrShapeMismatch, len(phi), topics)
	}
	for k, row := range phi {
		if len(row) != v.Size() {
			return nil, fmt.Errorf("%w: topic %d has %d terms, vocabulary has %d", ErrShapeMismatch, k, len(row), v.Size())
		}
	}
	return newModel(v, topics, alpha, beta, phi)
}

func newModel(v *vocab.Vocabulary, topics int, alpha, beta float64, phi [][]float64) (*Model, error) {
	terms := v.Size()
	flat := make([]float64, 0, topics*terms)
	for _, row := range phi {
		flat = append(flat, row...)
	}
	cache, err := lru.New[describeKey, TopicDescription](describeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Model{
		vocab:     v,
		topics:    topics,
		alpha:     alpha,
		beta:      beta,
		phi:       flat,
		terms:     terms,
		described: cache,
	}, nil
}

// Topics returns K.
func (m *Model) Topics() int { return m.topics }

// Alpha returns the document-topic prior.
func (m *Model) Alpha() float64 { return m.alpha }

// Beta returns the topic-term prior.
func (m *Model) Beta() float64 { return m.beta }

// Vocabulary returns the model's vocabulary.
func (m *Model) Vocabulary() *vocab.Vocabulary { return m.vocab }

// Phi returns a copy of topic k's term distribution indexed by term ID.
func (m *Model) Phi(k int) ([]float64, error) {
	if k < 0 || k >= m.topics {
		return nil, fmt.Errorf("%w: %d", ErrTopicNotFound, k)
	}
	out := make([]float64, m.terms)
	copy(out, m.phi[k*m.terms:(k+1)*m.terms])
	return out, nil
}

// PhiMatrix returns a copy of the whole term-topic distribution.
func (m *Model) PhiMatrix() [][]float64 {
	out := make([][]float64, m.topics)
	for k := range out {
		out[k], _ = m.Phi(k)
	}
	return out
}

// TermProbability returns φ[k][w].
func (m *Model) TermProbability(k, w int) (float64, error) {
	if k < 0 || k >= m.topics {
		return 0, fmt.Errorf("%w: %d", ErrTopicNotFound, k)
	}
	if w < 0 || w >= m.terms {
		return 0, &MalformedDocumentError{TermID: w, VocabSize: m.terms}
	}
	return m.phi[k*m.terms+w], nil
}

// TermWeight is one entry of a topic description.
type TermWeight struct {
	TermID      int
	Term        string
	Probability float64
}

// TopicDescription lists the most probable terms of a topic.
type TopicDescription struct {
	TopicID int
	Terms   []TermWeight
}

// TopicKey is the comparable identity of a TopicDescription, usable as a map key.
type TopicKey struct {
	TopicID int
	Terms   string
}

// Key returns the description's structural key.
func (d TopicDescription) Key() TopicKey {
	terms := make([]string, len(d.Terms))
	for i, t := range d.Terms {
		terms[i] = t.Term
	}
	return TopicKey{TopicID: d.TopicID, Terms: strings.Join(terms, "\x1f")}
}

// Equal reports whether two descriptions name the same topic and terms.
func (d TopicDescription) Equal(o TopicDescription) bool {
	return d.Key() == o.Key()
}

// TermList returns the described terms in rank order.
func (d TopicDescription) TermList() []string {
	out := make([]string, len(d.Terms))
	for i, t := range d.Terms {
		out[i] = t.Term
	}
	return out
}

func (d TopicDescription) String() string {
	return fmt.Sprintf("[%d] %s", d.TopicID, strings.Join(d.TermList(), " "))
}

// Describe returns the top n terms of topic k by probability, ties broken by
// lower term ID. n <= 0 means DefaultDescribeTerms.
func (m *Model) Describe(k, n int) (TopicDescription, error) {
	if k < 0 || k >= m.topics {
		return TopicDescription{}, fmt.Errorf("%w: %d", ErrTopicNotFound, k)
	}
	if n <= 0 {
		n = DefaultDescribeTerms
	}
	if n > m.terms {
		n = m.terms
	}

	key := describeKey{topic: k, n: n}
	if d, ok := m.described.Get(key); ok {
		return copyDescription(d), nil
	}

	row := m.phi[k*m.terms : (k+1)*m.terms]
	ids := make([]int, m.terms)
	for i := range ids {
		ids[i] = i
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := row[ids[i]], row[ids[j]]
		if pi != pj {
			return pi > pj
		}
		return ids[i] < ids[j]
	})

	desc := TopicDescription{TopicID: k, Terms: make([]TermWeight, n)}
	for i := 0; i < n; i++ {
		term, _ := m.vocab.Term(ids[i])
		desc.Terms[i] = TermWeight{TermID: ids[i], Term: term, Probability: row[ids[i]]}
	}
	m.described.Add(key, desc)
	return copyDescription(desc), nil
}

func copyDescription(d TopicDescription) TopicDescription {
	terms := make([]TermWeight, len(d.Terms))
	copy(terms, d.Terms)
	return TopicDescription{TopicID: d.TopicID, Terms: terms}
}
