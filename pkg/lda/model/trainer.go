package model

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cognicore/lda/pkg/lda/vocab"
)

// Result is the outcome of a training run.
type Result struct {
	Model *Model
	// DocumentTopics holds θ for every training document, in input order.
	DocumentTopics [][]float64
	// Counts is the final state of the count tables.
	Counts *Counts
	// LogLikelihood is the corpus log-likelihood after the final pass.
	LogLikelihood float64
}

// sampler holds the collapsed Gibbs state for one training run.
type sampler struct {
	cfg    Config
	docs   []vocab.Document
	topics int
	terms  int

	wt *table // term-topic, shared, terms x topics
	nk *table // topic totals, shared, topics x 1

	// shard-owned: only the shard covering document d touches z[d] and nd[d]
	z  [][]int32
	nd [][]int32

	shards []*shard
}

type shard struct {
	start, end int
	rng        *rand.Rand
	weights    []float64
}

// Train runs collapsed Gibbs sampling over the encoded documents and freezes
// the resulting term-topic distribution into a Model.
//
// Invalid settings and malformed documents are rejected before any sampling
// starts. The context is checked at every pass barrier only; a cancelled run
// returns ctx.Err() and no model.
func Train(ctx context.Context, v *vocab.Vocabulary, docs []vocab.Document, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if v == nil || len(docs) == 0 || v.Size() == 0 {
		return nil, ErrEmptyCorpus
	}
	tokens, err := checkDocuments(v, docs)
	if err != nil {
		return nil, err
	}
	if tokens == 0 {
		return nil, ErrEmptyCorpus
	}

	cfg = cfg.withDefaults(len(docs))
	log := cfg.Logger.With().
		Int("topics", cfg.Topics).
		Int("terms", v.Size()).
		Int("documents", len(docs)).
		Int("shards", cfg.Concurrency).
		Logger()

	s := newSampler(cfg, v.Size(), docs)
	s.initialize()
	log.Info().Int("tokens", tokens).Int("iterations", cfg.Iterations).Msg("training started")

	started := time.Now()
	ll := math.NaN()
	for pass := 1; pass <= cfg.Iterations; pass++ {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("pass", pass).Err(err).Msg("training aborted")
			return nil, err
		}

		passStart := time.Now()
		s.sweep()
		elapsed := time.Since(passStart)
		if cfg.Observer != nil {
			cfg.Observer.PassCompleted(pass, elapsed)
		}

		if pass == cfg.Iterations || (cfg.LogEvery > 0 && pass%cfg.LogEvery == 0) {
			ll = s.logLikelihood()
			if cfg.Observer != nil {
				cfg.Observer.LogLikelihood(pass, ll)
			}
			log.Debug().Int("pass", pass).Float64("log_likelihood", ll).Dur("elapsed", elapsed).Msg("pass completed")
		}
	}

	m, err := newModel(v, cfg.Topics, cfg.Alpha, cfg.Beta, s.phi())
	if err != nil {
		return nil, err
	}
	log.Info().
		Float64("log_likelihood", ll).
		Dur("duration", time.Since(started)).
		Msg("training completed")

	return &Result{
		Model:          m,
		DocumentTopics: s.theta(),
		Counts:         s.counts(),
		LogLikelihood:  ll,
	}, nil
}

func checkDocuments(v *vocab.Vocabulary, docs []vocab.Document) (int, error) {
	tokens := 0
	for d, doc := range docs {
		for i, w := range doc.Terms {
			if !v.Contains(w) {
				return 0, &MalformedDocumentError{Document: d, Position: i, TermID: w, VocabSize: v.Size()}
			}
		}
		tokens += doc.Len()
	}
	return tokens, nil
}

func newSampler(cfg Config, terms int, docs []vocab.Document) *sampler {
	s := &sampler{
		cfg:    cfg,
		docs:   docs,
		topics: cfg.Topics,
		terms:  terms,
		wt:     newTable(terms, cfg.Topics),
		nk:     newTable(cfg.Topics, 1),
		z:      make([][]int32, len(docs)),
		nd:     make([][]int32, len(docs)),
	}

	chunk := (len(docs) + cfg.Concurrency - 1) / cfg.Concurrency
	for w := 0; w < cfg.Concurrency; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(docs) {
			end = len(docs)
		}
		if start >= end {
			break
		}
		s.shards = append(s.shards, &shard{
			start:   start,
			end:     end,
			rng:     rand.New(rand.NewPCG(cfg.Seed, uint64(w)+1)),
			weights: make([]float64, cfg.Topics),
		})
	}
	return s
}

// initialize draws a uniform topic for every token and fills the count tables.
func (s *sampler) initialize() {
	rng := rand.New(rand.NewPCG(s.cfg.Seed, 0))
	for d, doc := range s.docs {
		z := make([]int32, doc.Len())
		nd := make([]int32, s.topics)
		for i, w := range doc.Terms {
			k := rng.IntN(s.topics)
			z[i] = int32(k)
			nd[k]++
			s.wt.add(w, k, 1)
			s.nk.add(k, 0, 1)
		}
		s.z[d] = z
		s.nd[d] = nd
	}
}

// sweep runs one full pass with every shard in its own goroutine. Wait is
// the pass barrier.
func (s *sampler) sweep() {
	var wg sync.WaitGroup
	wg.Add(len(s.shards))
	for _, sh := range s.shards {
		go func() {
			defer wg.Done()
			s.sampleShard(sh)
		}()
	}
	wg.Wait()
}

func (s *sampler) sampleShard(sh *shard) {
	alpha := s.cfg.Alpha
	beta := s.cfg.Beta
	vBeta := beta * float64(s.terms)

	for d := sh.start; d < sh.end; d++ {
		z := s.z[d]
		nd := s.nd[d]
		for i, w := range s.docs[d].Terms {
			k := int(z[i])

			nd[k]--
			s.wt.add(w, k, -1)
			s.nk.add(k, 0, -1)

			cum := 0.0
			for t := 0; t < s.topics; t++ {
				cum += (float64(nd[t]) + alpha) *
					(float64(s.wt.get(w, t)) + beta) /
					(float64(s.nk.get(t, 0)) + vBeta)
				sh.weights[t] = cum
			}
			k = sampleCumulative(sh.weights, sh.rng.Float64()*cum)

			z[i] = int32(k)
			nd[k]++
			s.wt.add(w, k, 1)
			s.nk.add(k, 0, 1)
		}
	}
}

// sampleCumulative returns the first index whose cumulative weight exceeds u.
func sampleCumulative(cum []float64, u float64) int {
	for k, c := range cum {
		if u < c {
			return k
		}
	}
	return len(cum) - 1
}

// phi returns the smoothed term-topic distribution, one row per topic.
func (s *sampler) phi() [][]float64 {
	beta := s.cfg.Beta
	vBeta := beta * float64(s.terms)
	out := make([][]float64, s.topics)
	for k := 0; k < s.topics; k++ {
		row := make([]float64, s.terms)
		denom := float64(s.nk.get(k, 0)) + vBeta
		for w := 0; w < s.terms; w++ {
			row[w] = (float64(s.wt.get(w, k)) + beta) / denom
		}
		out[k] = row
	}
	return out
}

// theta returns the smoothed document-topic distribution of every document.
func (s *sampler) theta() [][]float64 {
	out := make([][]float64, len(s.docs))
	for d := range s.docs {
		out[d] = smoothedTheta(s.nd[d], s.docs[d].Len(), s.cfg.Alpha)
	}
	return out
}

func smoothedTheta(nd []int32, length int, alpha float64) []float64 {
	k := len(nd)
	denom := float64(length) + float64(k)*alpha
	out := make([]float64, k)
	for t, c := range nd {
		out[t] = (float64(c) + alpha) / denom
	}
	return out
}

// logLikelihood returns Σ_d Σ_i log Σ_k φ_k,w θ_d,k under the current counts.
func (s *sampler) logLikelihood() float64 {
	phi := s.phi()
	sum := 0.0
	for d, doc := range s.docs {
		theta := smoothedTheta(s.nd[d], doc.Len(), s.cfg.Alpha)
		for _, w := range doc.Terms {
			p := 0.0
			for k := 0; k < s.topics; k++ {
				p += phi[k][w] * theta[k]
			}
			sum += math.Log(p)
		}
	}
	return sum
}

func (s *sampler) counts() *Counts {
	nd := make([][]int32, len(s.nd))
	for d, row := range s.nd {
		nd[d] = append([]int32(nil), row...)
	}
	return &Counts{
		Topics:      s.topics,
		Terms:       s.terms,
		TermTopic:   s.wt.snapshot(),
		DocTopic:    nd,
		TopicTotals: s.nk.snapshot(),
	}
}
