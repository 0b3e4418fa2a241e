package lda

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lda/pkg/lda/codec"
	"github.com/cognicore/lda/pkg/lda/config"
	"github.com/cognicore/lda/pkg/lda/internalerr"
	"github.com/cognicore/lda/pkg/lda/model"
	"github.com/cognicore/lda/pkg/lda/store"
	"github.com/cognicore/lda/pkg/lda/store/memstore"
)

var (
	energy  = []string{"crude", "oil", "barrel", "opec", "refinery", "pipeline"}
	farming = []string{"wheat", "corn", "grain", "harvest", "farmers", "soybean"}
)

func commodityDocs(perTheme int, extra func(i int) string) []Document {
	var docs []Document
	for i := 0; i < perTheme*2; i++ {
		words := energy
		if i%2 == 1 {
			words = farming
		}
		var b strings.Builder
		for j := range words {
			b.WriteString(words[(i+j)%len(words)])
			b.WriteByte(' ')
		}
		if extra != nil {
			b.WriteString(extra(i))
		}
		docs = append(docs, Document{ID: fmt.Sprintf("doc-%d", i), Text: b.String()})
	}
	return docs
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := zerolog.Nop()
	e := New(Options{Logger: &logger})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func trainOptions(name string) TrainOptions {
	return TrainOptions{
		Name:  name,
		Model: model.Config{Topics: 2, Iterations: 300, Alpha: 0.5, Seed: 3, Concurrency: 2},
	}
}

func themeOf(t *testing.T, m *model.Model, k int) []string {
	t.Helper()
	desc, err := m.Describe(k, 3)
	require.NoError(t, err)
	return desc.TermList()
}

func TestEngineTrainSavePredict(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	res, err := e.Train(ctx, commodityDocs(15, nil), trainOptions("commodities"))
	require.NoError(t, err)
	assert.Equal(t, 30, res.Metadata.Documents)
	assert.Equal(t, 12, res.Metadata.VocabularySize)
	assert.Equal(t, 2, res.Metadata.Topics)
	assert.Equal(t, 0.5, res.Metadata.Alpha)
	assert.NotEmpty(t, res.Metadata.ID)
	assert.Len(t, res.DocumentTopics, 30)

	require.NoError(t, e.Save(ctx, res.Model, res.Metadata))
	names, err := e.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"commodities"}, names)

	loaded, meta, err := e.Load(ctx, "commodities")
	require.NoError(t, err)
	assert.Equal(t, res.Metadata.ID, meta.ID)
	assert.Equal(t, res.Model.PhiMatrix(), loaded.PhiMatrix())

	dist, err := e.Predict(ctx, loaded, "Crude oil and OPEC barrel prices", model.InferOptions{Seed: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dist.Sum(), 1e-9)
	top, ok := dist.Top()
	require.True(t, ok)
	assert.Subset(t, energy, themeOf(t, loaded, top.TopicID))
}

func TestEnginePredictNoSignal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	res, err := e.Train(ctx, commodityDocs(5, nil), trainOptions("small"))
	require.NoError(t, err)

	_, err = e.Predict(ctx, res.Model, "quantum chromodynamics", model.InferOptions{})
	assert.ErrorIs(t, err, model.ErrNoSignal)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Predict(cancelled, res.Model, "crude oil", model.InferOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineThemes(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	res, err := e.Train(ctx, commodityDocs(15, nil), trainOptions("themes"))
	require.NoError(t, err)

	report, err := e.Themes(ctx, res.Model, []string{
		"wheat harvest and corn",
		"grain farmers",
		"soybean wheat",
		"opec crude",
		"nothing we know",
	}, model.ThemeOptions{Terms: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NoSignal)
	require.Len(t, report.Themes, 2)
	assert.Equal(t, 3, report.Themes[0].Documents)
	assert.Subset(t, farming, report.Themes[0].Description.TermList())
	assert.Equal(t, 1, report.Themes[1].Documents)
}

func TestEngineTrainLanguageFilter(t *testing.T) {
	docs := commodityDocs(5, nil)
	for i := range docs {
		docs[i].Language = "en"
	}
	docs = append(docs,
		Document{Text: "le prix du pétrole", Language: "fr"},
		Document{Text: "Le prix du blé est dans la hausse et les stocks sont bas"},
	)

	opts := trainOptions("english")
	opts.Language = "en"
	res, err := newTestEngine(t).Train(context.Background(), docs, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 10, res.Metadata.Documents)
}

func TestEngineTrainPrunesVocabulary(t *testing.T) {
	docs := commodityDocs(10, func(i int) string {
		return fmt.Sprintf("market rare%d", i)
	})

	opts := trainOptions("pruned")
	opts.MinDocFreq = 2
	opts.MaxDocRatio = 0.9
	res, err := newTestEngine(t).Train(context.Background(), docs, opts)
	require.NoError(t, err)

	assert.Equal(t, 21, res.Pruned)
	assert.Equal(t, 12, res.Metadata.VocabularySize)
	_, ok := res.Model.Vocabulary().ID("market")
	assert.False(t, ok)
}

func TestEngineTrainErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Train(ctx, nil, trainOptions("empty"))
	assert.ErrorIs(t, err, model.ErrEmptyCorpus)

	_, err = e.Train(ctx, []Document{{Text: "the and of"}}, trainOptions("stopwords"))
	assert.ErrorIs(t, err, model.ErrEmptyCorpus)

	opts := trainOptions("bad")
	opts.Model.Topics = 0
	_, err = e.Train(ctx, commodityDocs(2, nil), opts)
	assert.ErrorIs(t, err, model.ErrInvalidTopicCount)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Train(cancelled, commodityDocs(2, nil), trainOptions("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineLoadMissing(t *testing.T) {
	e := newTestEngine(t)

	_, _, err := e.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = e.Metadata(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngineMetadata(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	logger := zerolog.Nop()
	e := New(Options{Store: st, Logger: &logger})
	t.Cleanup(func() { _ = e.Close() })

	res, err := e.Train(ctx, commodityDocs(5, nil), trainOptions("commodities"))
	require.NoError(t, err)
	require.NoError(t, e.Save(ctx, res.Model, res.Metadata))

	meta, err := e.Metadata(ctx, "commodities")
	require.NoError(t, err)
	assert.Equal(t, res.Metadata.ID, meta.ID)
	assert.Equal(t, "commodities", meta.Name)
	assert.Equal(t, res.Metadata.Topics, meta.Topics)
	assert.Equal(t, res.Metadata.VocabularySize, meta.VocabularySize)

	require.NoError(t, st.Save(ctx, "garbage", []byte("not a model")))
	_, err = e.Metadata(ctx, "garbage")
	assert.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestEngineSaveRequiresName(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	res, err := e.Train(ctx, commodityDocs(2, nil), trainOptions(""))
	require.NoError(t, err)

	err = e.Save(ctx, res.Model, res.Metadata)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	res.Metadata.Name = "named"
	require.NoError(t, e.Save(ctx, res.Model, res.Metadata))
	require.NoError(t, e.Delete(ctx, "named"))
	_, _, err = e.Load(ctx, "named")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []config.StoreConfig{
		{Backend: "memory"},
		{Backend: "sqlite", Path: filepath.Join(dir, "models.db")},
		{Backend: "badger", Path: filepath.Join(dir, "badger")},
	} {
		s, err := OpenStore(ctx, cfg)
		require.NoError(t, err, cfg.Backend)
		require.NoError(t, s.Save(ctx, "m", []byte("x")), cfg.Backend)
		require.NoError(t, s.Close(), cfg.Backend)
	}

	_, err := OpenStore(ctx, config.StoreConfig{Backend: "redis"})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestNewTrainOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Topics = 9
	cfg.Model.MinDocFreq = 3
	cfg.Ingest.Language = "fr"

	opts := NewTrainOptions(cfg, "reuters")
	assert.Equal(t, "reuters", opts.Name)
	assert.Equal(t, "fr", opts.Language)
	assert.Equal(t, 3, opts.MinDocFreq)
	assert.Equal(t, 9, opts.Model.Topics)
	assert.Nil(t, opts.Model.Logger)
}
