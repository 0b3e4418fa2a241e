package model

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/lda/pkg/lda/vocab"
)

// InferOptions controls a single inference call.
type InferOptions struct {
	// Iterations is the number of restricted Gibbs passes over the document.
	// Zero or negative means DefaultInferIterations.
	Iterations int
	// Seed drives topic initialization and sampling.
	Seed uint64
}

// TopicScore is the probability mass a document places on one topic.
type TopicScore struct {
	TopicID int
	Score   float64
}

// Distribution is a document-topic distribution ordered by topic ID.
type Distribution []TopicScore

// Top returns the most likely topic. Ties go to the lower topic ID.
func (d Distribution) Top() (TopicScore, bool) {
	if len(d) == 0 {
		return TopicScore{}, false
	}
	best := d[0]
	for _, ts := range d[1:] {
		if ts.Score > best.Score || (ts.Score == best.Score && ts.TopicID < best.TopicID) {
			best = ts
		}
	}
	return best, true
}

// Sorted returns a copy ordered by descending score, then ascending topic ID.
func (d Distribution) Sorted() Distribution {
	out := make(Distribution, len(d))
	copy(out, d)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TopicID < out[j].TopicID
	})
	return out
}

// Sum returns the total mass, 1 up to rounding for any inference result.
func (d Distribution) Sum() float64 {
	sum := 0.0
	for _, ts := range d {
		sum += ts.Score
	}
	return sum
}

// Infer estimates the topic distribution of a tokenized document. Tokens
// outside the vocabulary are ignored; a document with no known tokens fails
// with ErrNoSignal.
func (m *Model) Infer(tokens []string, opts InferOptions) (Distribution, error) {
	doc, _ := m.vocab.Encode(tokens)
	return m.InferDocument(doc, opts)
}

// InferDocument is Infer for an already encoded document.
//
// φ stays fixed; only the document's own assignments are resampled, with
// weight (n_dk + α) · φ_k,w. The result is the document's topic counts after
// the final pass divided by its known-token count.
func (m *Model) InferDocument(doc vocab.Document, opts InferOptions) (Distribution, error) {
	if doc.Len() == 0 {
		return nil, ErrNoSignal
	}
	for i, w := range doc.Terms {
		if !m.vocab.Contains(w) {
			return nil, &MalformedDocumentError{Position: i, TermID: w, VocabSize: m.terms}
		}
	}
	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = DefaultInferIterations
	}

	rng := rand.New(rand.NewPCG(opts.Seed, 0))
	z := make([]int, doc.Len())
	nd := make([]int32, m.topics)
	for i := range z {
		k := rng.IntN(m.topics)
		z[i] = k
		nd[k]++
	}

	weights := make([]float64, m.topics)
	for it := 0; it < iterations; it++ {
		for i, w := range doc.Terms {
			nd[z[i]]--
			cum := 0.0
			for k := 0; k < m.topics; k++ {
				cum += (float64(nd[k]) + m.alpha) * m.phi[k*m.terms+w]
				weights[k] = cum
			}
			k := sampleCumulative(weights, rng.Float64()*cum)
			z[i] = k
			nd[k]++
		}
	}

	n := float64(doc.Len())
	out := make(Distribution, m.topics)
	for k, c := range nd {
		out[k] = TopicScore{TopicID: k, Score: float64(c) / n}
	}
	return out, nil
}

// Theme counts the documents whose most likely topic is Description.TopicID.
type Theme struct {
	Description TopicDescription
	Documents   int
}

// ThemeOptions controls Themes.
type ThemeOptions struct {
	Infer InferOptions
	// Terms is the description length. Zero means DefaultDescribeTerms.
	Terms int
	// Concurrency bounds parallel inference calls. Zero means runtime.NumCPU.
	Concurrency int
}

// ThemeReport is the outcome of Themes.
type ThemeReport struct {
	// Themes is ordered by descending document count, then topic ID.
	Themes []Theme
	// NoSignal counts documents that had no known terms.
	NoSignal int
}

// Themes infers every document and groups them by most likely topic.
// Document i is inferred with seed opts.Infer.Seed+i so reports are
// reproducible regardless of scheduling.
func (m *Model) Themes(ctx context.Context, docs [][]string, opts ThemeOptions) (ThemeReport, error) {
	top := make([]int, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)
	for i, tokens := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			inferOpts := opts.Infer
			inferOpts.Seed += uint64(i)
			dist, err := m.Infer(tokens, inferOpts)
			if errors.Is(err, ErrNoSignal) {
				top[i] = -1
				return nil
			}
			if err != nil {
				return err
			}
			best, _ := dist.Top()
			top[i] = best.TopicID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ThemeReport{}, err
	}

	var report ThemeReport
	counts := make(map[TopicKey]int)
	descs := make(map[TopicKey]TopicDescription)
	for _, k := range top {
		if k < 0 {
			report.NoSignal++
			continue
		}
		desc, err := m.Describe(k, opts.Terms)
		if err != nil {
			return ThemeReport{}, err
		}
		key := desc.Key()
		counts[key]++
		descs[key] = desc
	}

	for key, n := range counts {
		report.Themes = append(report.Themes, Theme{Description: descs[key], Documents: n})
	}
	sort.Slice(report.Themes, func(i, j int) bool {
		a, b := report.Themes[i], report.Themes[j]
		if a.Documents != b.Documents {
			return a.Documents > b.Documents
		}
		return a.Description.TopicID < b.Description.TopicID
	})
	return report, nil
}
