package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/cognicore/lda/internal/corpus"
	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda"
	"github.com/cognicore/lda/pkg/lda/config"
	"github.com/cognicore/lda/pkg/lda/ingest"
	"github.com/cognicore/lda/pkg/lda/model"
)

func main() {
	os.Exit(execute())
}

// execute returns the exit code once every deferred cleanup has run.
func execute() int {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults to $LDA_CONFIG)")
		name       = flag.String("name", "", "Saved model to use")
		dataPath   = flag.String("data", "", "JSONL documents to classify")
		text       = flag.String("text", "", "Single text to classify")
		list       = flag.Bool("list", false, "List saved models and exit")
		del        = flag.Bool("delete", false, "Delete the named model and exit")
		detect     = flag.Bool("detect", false, "Only print the detected language of each document")
		tags       = flag.Bool("tags", false, "Only print the part-of-speech tag and value of every token")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	logging.Init(cfg.LoggingConfig())
	log := logging.Component("lda-predict")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := cfg.Pipeline()
	if err != nil {
		log.Error().Err(err).Msg("build pipeline")
		return 1
	}
	st, err := lda.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return 1
	}
	engine := lda.New(lda.Options{Store: st, Pipeline: pipeline, Logger: &log})
	defer engine.Close()

	out := os.Stdout
	switch {
	case *list:
		err = listModels(ctx, engine, out)
	case *del:
		if *name == "" {
			err = errors.New("--name required with --delete")
			break
		}
		err = engine.Delete(ctx, *name)
	default:
		var records []corpus.Record
		records, err = inputs(*dataPath, *text)
		if err != nil {
			break
		}
		switch {
		case *tags:
			printTags(pipeline, records, out)
		case *detect:
			detectLanguages(pipeline, records, out)
		case *name == "":
			err = errors.New("--name required")
		default:
			err = predict(ctx, cfg, engine, log, *name, records, out)
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("lda-predict failed")
		return 1
	}
	return 0
}

func inputs(dataPath, text string) ([]corpus.Record, error) {
	switch {
	case dataPath != "":
		return corpus.LoadFromJSONL(dataPath)
	case strings.TrimSpace(text) != "":
		return []corpus.Record{{ID: "text", Text: text}}, nil
	default:
		return nil, errors.New("one of --data or --text is required")
	}
}

// listModels prints one line per stored model from its metadata alone.
func listModels(ctx context.Context, engine *lda.Engine, w io.Writer) error {
	names, err := engine.List(ctx, "")
	if err != nil {
		return err
	}
	for _, n := range names {
		meta, err := engine.Metadata(ctx, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\tid=%s topics=%d vocabulary=%d documents=%d trained=%s\n",
			n, meta.ID, meta.Topics, meta.VocabularySize, meta.Documents, meta.TrainedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func printTags(p *ingest.Pipeline, records []corpus.Record, w io.Writer) {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		doc := p.Process(r.Body())
		for j, tok := range doc.Tokens {
			fmt.Fprintf(w, "%s\t%s\n", doc.Tags[j], tok)
		}
	}
}

func detectLanguages(p *ingest.Pipeline, records []corpus.Record, w io.Writer) {
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\n", r.ID, p.Process(r.Body()).Language)
	}
}

func predict(ctx context.Context, cfg *config.Config, engine *lda.Engine, log zerolog.Logger, name string, records []corpus.Record, w io.Writer) error {
	m, meta, err := engine.Load(ctx, name)
	if err != nil {
		return err
	}
	log.Info().Str("model", name).Str("id", meta.ID).Int("topics", meta.Topics).Msg("model loaded")

	opts := cfg.InferOptions()
	for _, r := range records {
		dist, err := engine.Predict(ctx, m, r.Body(), opts)
		if errors.Is(err, model.ErrNoSignal) {
			fmt.Fprintf(w, "%s\tno signal\n", r.ID)
			continue
		}
		if err != nil {
			return err
		}
		best, _ := dist.Top()
		desc, err := m.Describe(best.TopicID, cfg.Model.DescribeTerms)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.3f\t%s\n", r.ID, best.Score, desc)
	}

	if len(records) < 2 {
		return nil
	}
	report, err := engine.Themes(ctx, m, corpus.Texts(records), model.ThemeOptions{
		Infer:       opts,
		Terms:       cfg.Model.DescribeTerms,
		Concurrency: cfg.Infer.Concurrency,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "THEMES")
	for _, theme := range report.Themes {
		fmt.Fprintf(w, "%s: %d documents\n", theme.Description, theme.Documents)
	}
	if report.NoSignal > 0 {
		fmt.Fprintf(w, "no signal: %d documents\n", report.NoSignal)
	}
	return nil
}
