package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/lda/internal/corpus"
	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda"
	"github.com/cognicore/lda/pkg/lda/config"
	"github.com/cognicore/lda/pkg/lda/metrics"
	"github.com/cognicore/lda/pkg/lda/model"
)

func main() {
	os.Exit(execute())
}

// execute returns the exit code once every deferred cleanup has run.
func execute() int {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults to $LDA_CONFIG)")
		dataPath   = flag.String("data", "", "Input JSONL corpus (required)")
		name       = flag.String("name", "", "Name to save the model under (required)")
		holdout    = flag.Float64("holdout", 0, "Fraction of the corpus kept back for the theme report")
		topics     = flag.Int("topics", 0, "Override model.topics")
		iterations = flag.Int("iterations", 0, "Override model.iterations")
	)
	flag.Parse()

	if *dataPath == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "--data and --name are required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	if *topics > 0 {
		cfg.Model.Topics = *topics
	}
	if *iterations > 0 {
		cfg.Model.Iterations = *iterations
	}
	logging.Init(cfg.LoggingConfig())
	log := logging.Component("lda-train")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *dataPath, *name, *holdout); err != nil {
		log.Error().Err(err).Msg("training failed")
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, dataPath, name string, holdout float64) error {
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		defer srv.Close()
	}

	pipeline, err := cfg.Pipeline()
	if err != nil {
		return err
	}
	st, err := lda.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	engine := lda.New(lda.Options{Store: st, Pipeline: pipeline, Logger: &log})
	defer engine.Close()

	records, err := corpus.LoadFromJSONL(dataPath)
	if err != nil {
		return err
	}
	train, test := corpus.Split(records, holdout)
	log.Info().Int("train", len(train)).Int("holdout", len(test)).Str("data", dataPath).Msg("corpus loaded")

	res, err := engine.Train(ctx, corpus.Documents(train), lda.NewTrainOptions(cfg, name))
	if err != nil {
		return err
	}
	log.Info().
		Str("id", res.Metadata.ID).
		Int("documents", res.Metadata.Documents).
		Int("vocabulary", res.Metadata.VocabularySize).
		Int("skipped", res.Skipped).
		Int("pruned", res.Pruned).
		Int64("duration_ms", res.Metadata.DurationMS).
		Float64("log_likelihood", res.LogLikelihood).
		Msg("training complete")

	if err := engine.Save(ctx, res.Model, res.Metadata); err != nil {
		return err
	}

	for k := 0; k < res.Model.Topics(); k++ {
		desc, err := res.Model.Describe(k, cfg.Model.DescribeTerms)
		if err != nil {
			return err
		}
		fmt.Println(desc)
	}

	if len(test) == 0 {
		return nil
	}
	report, err := engine.Themes(ctx, res.Model, corpus.Texts(test), model.ThemeOptions{
		Infer:       cfg.InferOptions(),
		Terms:       cfg.Model.DescribeTerms,
		Concurrency: cfg.Infer.Concurrency,
	})
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("THEMES")
	for _, theme := range report.Themes {
		fmt.Printf("%s: %d documents\n", theme.Description, theme.Documents)
	}
	if report.NoSignal > 0 {
		fmt.Printf("no signal: %d documents\n", report.NoSignal)
	}
	return nil
}

func serveMetrics(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
