package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cognicore/lda/internal/corpus"
	"github.com/cognicore/lda/pkg/lda"
	"github.com/cognicore/lda/pkg/lda/config"
	"github.com/cognicore/lda/pkg/lda/ingest"
	"github.com/cognicore/lda/pkg/lda/model"
)

func testPipeline() *ingest.Pipeline {
	return ingest.NewPipeline(ingest.NewTokenizer(ingest.DefaultStopwords()), nil, ingest.NewStopwordDetector())
}

func trainedEngine(t *testing.T) *lda.Engine {
	t.Helper()
	logger := zerolog.Nop()
	engine := lda.New(lda.Options{Pipeline: testPipeline(), Logger: &logger})
	t.Cleanup(func() { engine.Close() })

	var docs []lda.Document
	for i := 0; i < 10; i++ {
		text := "crude oil barrel refinery"
		if i%2 == 1 {
			text = "wheat corn grain harvest"
		}
		docs = append(docs, lda.Document{Text: text})
	}
	ctx := context.Background()
	res, err := engine.Train(ctx, docs, lda.TrainOptions{
		Name:  "commodities",
		Model: model.Config{Topics: 2, Iterations: 50, Alpha: 0.5, Seed: 1, Concurrency: 1},
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if err := engine.Save(ctx, res.Model, res.Metadata); err != nil {
		t.Fatalf("save: %v", err)
	}
	return engine
}

func TestPrintTags(t *testing.T) {
	records := []corpus.Record{
		{ID: "a", Text: "Farmers harvested wheat quickly"},
		{ID: "b", Text: "Refining"},
	}
	var buf bytes.Buffer
	printTags(testPipeline(), records, &buf)

	want := "NN\tfarmers\nVBD\tharvested\nNN\twheat\nRB\tquickly\n\nVBG\trefining\n"
	if got := buf.String(); got != want {
		t.Errorf("printTags() = %q, want %q", got, want)
	}
}

func TestDetectLanguages(t *testing.T) {
	records := []corpus.Record{
		{ID: "en", Text: "the farmers and the wheat of the valley"},
		{ID: "none", Text: "12345"},
	}
	var buf bytes.Buffer
	detectLanguages(testPipeline(), records, &buf)

	want := "en\ten\nnone\tund\n"
	if got := buf.String(); got != want {
		t.Errorf("detectLanguages() = %q, want %q", got, want)
	}
}

func TestListModels(t *testing.T) {
	engine := trainedEngine(t)

	var buf bytes.Buffer
	if err := listModels(context.Background(), engine, &buf); err != nil {
		t.Fatalf("listModels: %v", err)
	}
	line := buf.String()
	if !strings.HasPrefix(line, "commodities\tid=") {
		t.Errorf("unexpected listing %q", line)
	}
	for _, part := range []string{"topics=2", "vocabulary=8", "documents=10"} {
		if !strings.Contains(line, part) {
			t.Errorf("listing %q missing %q", line, part)
		}
	}
}

func TestPredict(t *testing.T) {
	engine := trainedEngine(t)
	cfg := config.Default()
	records := []corpus.Record{
		{ID: "oil", Text: "oil refinery"},
		{ID: "grain", Text: "wheat harvest"},
		{ID: "other", Text: "quantum chromodynamics"},
	}

	var buf bytes.Buffer
	if err := predict(context.Background(), cfg, engine, zerolog.Nop(), "commodities", records, &buf); err != nil {
		t.Fatalf("predict: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"oil\t", "grain\t", "other\tno signal", "THEMES", "no signal: 1 documents"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := predict(context.Background(), cfg, engine, zerolog.Nop(), "missing", records, &buf); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestInputs(t *testing.T) {
	records, err := inputs("", "crude oil")
	if err != nil || len(records) != 1 || records[0].Text != "crude oil" {
		t.Fatalf("inputs(text) = %+v, %v", records, err)
	}
	if _, err := inputs("", "  "); err == nil {
		t.Error("expected error without input")
	}
}
