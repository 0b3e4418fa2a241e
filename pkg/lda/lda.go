// Package lda is the topic engine facade: it ties the ingestion pipeline,
// the vocabulary builder, the Gibbs trainer, the codec and a model store
// into train / save / load / predict operations over raw text.
package lda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda/codec"
	"github.com/cognicore/lda/pkg/lda/ingest"
	"github.com/cognicore/lda/pkg/lda/metrics"
	"github.com/cognicore/lda/pkg/lda/model"
	"github.com/cognicore/lda/pkg/lda/store"
	"github.com/cognicore/lda/pkg/lda/store/memstore"
	"github.com/cognicore/lda/pkg/lda/vocab"
)

// Engine is the main topic engine facade
type Engine struct {
	store    store.Store
	pipeline *ingest.Pipeline
	log      zerolog.Logger
}

// Options configures an Engine
type Options struct {
	// Store persists models. Nil means an in-memory store.
	Store store.Store
	// Pipeline tokenizes raw text. Nil means the default English tokenizer
	// with language detection.
	Pipeline *ingest.Pipeline
	// Logger defaults to the process logger tagged component=lda.
	Logger *zerolog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	s := opts.Store
	if s == nil {
		s = memstore.New()
	}
	p := opts.Pipeline
	if p == nil {
		p = ingest.NewPipeline(ingest.NewTokenizer(ingest.DefaultStopwords()), nil, ingest.NewStopwordDetector())
	}
	log := logging.Component("lda")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Engine{
		store:    metrics.InstrumentStore(s),
		pipeline: p,
		log:      log,
	}
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Document is one raw training or prediction input.
type Document struct {
	ID   string
	Text string
	// Language is the known language code; empty means detect it.
	Language string
}

// TrainOptions controls Engine.Train.
type TrainOptions struct {
	// Name is recorded in the model metadata and used as the store ID by Save.
	Name string
	// Language keeps only documents in that language. Documents whose
	// language cannot be determined are kept. Empty keeps everything.
	Language string
	// MinDocFreq drops terms found in fewer documents. Zero disables it.
	MinDocFreq int
	// MaxDocRatio drops terms found in more than this share of documents.
	// Zero disables it.
	MaxDocRatio float64
	// Model is passed to the trainer. A nil Observer is replaced by the
	// Prometheus observer and a nil Logger by the engine's logger.
	Model model.Config
}

// TrainResult is the outcome of Engine.Train.
type TrainResult struct {
	*model.Result
	Metadata codec.Metadata
	// Skipped counts documents filtered out by language.
	Skipped int
	// Pruned counts vocabulary terms removed by the frequency filters.
	Pruned int
}

// Train tokenizes docs, builds the vocabulary and trains a model.
func (e *Engine) Train(ctx context.Context, docs []Document, opts TrainOptions) (*TrainResult, error) {
	started := time.Now()
	res, err := e.train(ctx, docs, opts)
	metrics.RecordTraining(err)
	if err != nil {
		return nil, err
	}
	res.Metadata.DurationMS = time.Since(started).Milliseconds()
	return res, nil
}

func (e *Engine) train(ctx context.Context, docs []Document, opts TrainOptions) (*TrainResult, error) {
	var tokens [][]string
	skipped := 0
	for _, d := range docs {
		processed := e.pipeline.Process(d.Text)
		lang := d.Language
		if lang == "" {
			lang = processed.Language
		}
		if opts.Language != "" && lang != ingest.Undetermined && lang != "" && lang != opts.Language {
			skipped++
			continue
		}
		tokens = append(tokens, processed.Tokens)
	}
	if len(tokens) == 0 {
		return nil, model.ErrEmptyCorpus
	}

	v, encoded, err := vocab.Build(tokens)
	if err != nil {
		return nil, err
	}
	pruned := 0
	if opts.MinDocFreq > 0 || opts.MaxDocRatio > 0 {
		before := v.Size()
		tokens = prune(v, tokens, opts.MinDocFreq, opts.MaxDocRatio)
		if v, encoded, err = vocab.Build(tokens); err != nil {
			return nil, fmt.Errorf("vocabulary pruning left no terms: %w", err)
		}
		pruned = before - v.Size()
	}

	cfg := opts.Model
	if cfg.Observer == nil {
		cfg.Observer = metrics.TrainObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = &e.log
	}

	e.log.Info().
		Str("name", opts.Name).
		Int("documents", len(encoded)).
		Int("skipped", skipped).
		Int("terms", v.Size()).
		Int("pruned", pruned).
		Msg("corpus prepared")

	result, err := model.Train(ctx, v, encoded, cfg)
	if err != nil {
		return nil, err
	}

	return &TrainResult{
		Result: result,
		Metadata: codec.Metadata{
			ID:             codec.NewID(),
			Name:           opts.Name,
			Topics:         result.Model.Topics(),
			VocabularySize: v.Size(),
			Documents:      len(encoded),
			Iterations:     cfg.Iterations,
			Alpha:          result.Model.Alpha(),
			Beta:           result.Model.Beta(),
			Seed:           cfg.Seed,
			TrainedAt:      time.Now().UTC(),
		},
		Skipped: skipped,
		Pruned:  pruned,
	}, nil
}

// prune drops the tokens whose document frequency falls outside the limits.
func prune(v *vocab.Vocabulary, docs [][]string, minDF int, maxRatio float64) [][]string {
	maxDF := v.DocumentCount()
	if maxRatio > 0 {
		maxDF = int(maxRatio * float64(v.DocumentCount()))
	}
	keep := make([]bool, v.Size())
	for id := range keep {
		df := v.DocFreq(id)
		keep[id] = df >= minDF && df <= maxDF
	}

	out := make([][]string, len(docs))
	for i, doc := range docs {
		kept := make([]string, 0, len(doc))
		for _, tok := range doc {
			if id, ok := v.ID(tok); ok && keep[id] {
				kept = append(kept, tok)
			}
		}
		out[i] = kept
	}
	return out
}

// Save encodes m with meta and stores it under meta.Name.
func (e *Engine) Save(ctx context.Context, m *model.Model, meta codec.Metadata) error {
	if err := store.ValidateID(meta.Name); err != nil {
		return err
	}
	blob, err := codec.Encode(m, meta)
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, meta.Name, blob); err != nil {
		return fmt.Errorf("save model %s: %w", meta.Name, err)
	}
	e.log.Info().Str("name", meta.Name).Int("bytes", len(blob)).Msg("model saved")
	return nil
}

// Load restores the model stored under name.
func (e *Engine) Load(ctx context.Context, name string) (*model.Model, codec.Metadata, error) {
	blob, err := e.store.Load(ctx, name)
	if err != nil {
		return nil, codec.Metadata{}, fmt.Errorf("load model %s: %w", name, err)
	}
	m, meta, err := codec.Decode(blob)
	if err != nil {
		return nil, codec.Metadata{}, fmt.Errorf("decode model %s: %w", name, err)
	}
	return m, meta, nil
}

// Metadata returns the metadata of the model stored under name without
// decoding its parameters.
func (e *Engine) Metadata(ctx context.Context, name string) (codec.Metadata, error) {
	blob, err := e.store.Load(ctx, name)
	if err != nil {
		return codec.Metadata{}, fmt.Errorf("load model %s: %w", name, err)
	}
	meta, err := codec.ReadMetadata(blob)
	if err != nil {
		return codec.Metadata{}, fmt.Errorf("read metadata %s: %w", name, err)
	}
	return meta, nil
}

// Delete removes the model stored under name.
func (e *Engine) Delete(ctx context.Context, name string) error {
	return e.store.Delete(ctx, name)
}

// List returns the names of stored models with the given prefix.
func (e *Engine) List(ctx context.Context, prefix string) ([]string, error) {
	return e.store.List(ctx, prefix)
}

// Predict tokenizes text and infers its topic distribution. Text without
// any known term fails with model.ErrNoSignal.
func (e *Engine) Predict(ctx context.Context, m *model.Model, text string, opts model.InferOptions) (model.Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	dist, err := m.Infer(e.pipeline.Process(text).Tokens, opts)
	metrics.RecordInference(err, time.Since(start))
	return dist, err
}

// Themes predicts every text and groups them by most likely topic.
func (e *Engine) Themes(ctx context.Context, m *model.Model, texts []string, opts model.ThemeOptions) (model.ThemeReport, error) {
	processed := e.pipeline.ProcessAll(texts)
	report, err := m.Themes(ctx, ingest.TokenLists(processed), opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.log.Error().Err(err).Msg("theme report failed")
	}
	return report, err
}
