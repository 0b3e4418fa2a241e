package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda/ingest"
	"github.com/cognicore/lda/pkg/lda/internalerr"
	"github.com/cognicore/lda/pkg/lda/model"
)

// Config is the full runtime configuration of the engine and its CLIs.
type Config struct {
	Model   ModelConfig   `koanf:"model"`
	Infer   InferConfig   `koanf:"infer"`
	Store   StoreConfig   `koanf:"store"`
	Ingest  IngestConfig  `koanf:"ingest"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ModelConfig holds the training settings.
type ModelConfig struct {
	Topics      int     `koanf:"topics" validate:"gt=0"`
	Iterations  int     `koanf:"iterations" validate:"gt=0"`
	Concurrency int     `koanf:"concurrency" validate:"gte=0"`
	Alpha       float64 `koanf:"alpha" validate:"gte=0"`
	Beta        float64 `koanf:"beta" validate:"gte=0"`
	Seed        uint64  `koanf:"seed"`
	LogEvery    int     `koanf:"log_every"`
	// DescribeTerms is the number of terms printed per topic.
	DescribeTerms int `koanf:"describe_terms" validate:"gte=0"`
	// MinDocFreq and MaxDocRatio prune rare and ubiquitous terms before
	// training. Zero disables either filter.
	MinDocFreq  int     `koanf:"min_doc_freq" validate:"gte=0"`
	MaxDocRatio float64 `koanf:"max_doc_ratio" validate:"gte=0,lte=1"`
}

// InferConfig holds the inference settings.
type InferConfig struct {
	Iterations  int    `koanf:"iterations" validate:"gte=0"`
	Seed        uint64 `koanf:"seed"`
	Concurrency int    `koanf:"concurrency" validate:"gte=0"`
}

// StoreConfig selects and configures the model store backend.
type StoreConfig struct {
	Backend string      `koanf:"backend" validate:"oneof=memory sqlite badger minio"`
	Path    string      `koanf:"path" validate:"required_if=Backend sqlite"`
	Minio   MinioConfig `koanf:"minio"`
}

// MinioConfig configures the minio backend.
type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Prefix    string `koanf:"prefix"`
	Secure    bool   `koanf:"secure"`
}

// IngestConfig configures tokenization.
type IngestConfig struct {
	// StoplistPath points at a YAML stoplist; empty uses the built-in list.
	StoplistPath string `koanf:"stoplist_path"`
	// PhrasesPath points at a YAML phrase dictionary. Optional.
	PhrasesPath string `koanf:"phrases_path"`
	// DetectLanguage enables language detection on every document.
	DetectLanguage bool `koanf:"detect_language"`
	// Language keeps only training documents in that language.
	Language string `koanf:"language"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the Prometheus endpoint of the CLIs.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Topics:        5,
			Iterations:    1000,
			Concurrency:   0, // 0 = runtime.NumCPU()
			Alpha:         0, // 0 = 50/K
			Beta:          model.DefaultBeta,
			Seed:          1,
			LogEvery:      model.DefaultLogEvery,
			DescribeTerms: model.DefaultDescribeTerms,
		},
		Infer: InferConfig{
			Iterations: model.DefaultInferIterations,
			Seed:       1,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "lda-models.db",
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "lda-models",
			},
		},
		Ingest: IngestConfig{
			DetectLanguage: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var validate = validator.New()

// Validate checks field constraints. Failures match internalerr.ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(msgs, "; "))
}

// TrainConfig converts the model section into a trainer configuration.
func (c *Config) TrainConfig(logger *zerolog.Logger) model.Config {
	return model.Config{
		Topics:      c.Model.Topics,
		Iterations:  c.Model.Iterations,
		Concurrency: c.Model.Concurrency,
		Alpha:       c.Model.Alpha,
		Beta:        c.Model.Beta,
		Seed:        c.Model.Seed,
		LogEvery:    c.Model.LogEvery,
		Logger:      logger,
	}
}

// InferOptions converts the infer section into inference options.
func (c *Config) InferOptions() model.InferOptions {
	return model.InferOptions{Iterations: c.Infer.Iterations, Seed: c.Infer.Seed}
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// Phrases represents the multi-word phrase dictionary
type Phrases struct {
	Phrases []ingest.Phrase `yaml:"phrases"`
}

// LoadPhrases loads the phrase dictionary from a YAML file
func LoadPhrases(path string) (*Phrases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Phrases
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Pipeline builds the ingestion pipeline described by the ingest section.
func (c *Config) Pipeline() (*ingest.Pipeline, error) {
	stops := ingest.DefaultStopwords()
	if c.Ingest.StoplistPath != "" {
		sl, err := LoadStoplist(c.Ingest.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops = sl.Terms
	}

	var phrases *ingest.PhraseParser
	if c.Ingest.PhrasesPath != "" {
		p, err := LoadPhrases(c.Ingest.PhrasesPath)
		if err != nil {
			return nil, fmt.Errorf("load phrases: %w", err)
		}
		phrases = ingest.NewPhraseParser(p.Phrases)
	}

	var detector ingest.LanguageDetector
	if c.Ingest.DetectLanguage {
		detector = ingest.NewStopwordDetector()
	}
	return ingest.NewPipeline(ingest.NewTokenizer(stops), phrases, detector), nil
}
