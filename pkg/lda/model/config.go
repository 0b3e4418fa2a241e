package model

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Default hyperparameters and loop settings.
const (
	DefaultBeta            = 0.01
	DefaultLogEvery        = 10
	DefaultInferIterations = 50
	DefaultDescribeTerms   = 10
)

// Config controls a training run.
type Config struct {
	// Topics is the number of latent topics K. Must be positive.
	Topics int
	// Iterations is the exact number of Gibbs passes. Must be positive.
	Iterations int
	// Concurrency is the number of document shards sampled in parallel.
	// Zero or negative means runtime.NumCPU(). Capped at the document count.
	Concurrency int
	// Alpha is the document-topic prior. Zero or negative means 50/K.
	Alpha float64
	// Beta is the topic-term prior. Zero or negative means DefaultBeta.
	Beta float64
	// Seed drives topic initialization and every shard's sampler.
	Seed uint64
	// LogEvery computes and logs the corpus log-likelihood every N passes.
	// Zero means DefaultLogEvery, negative disables periodic evaluation
	// (the final pass is always evaluated).
	LogEvery int
	// Logger receives progress events. Nil disables logging.
	Logger *zerolog.Logger
	// Observer receives per-pass callbacks, e.g. for metrics. Optional.
	Observer Observer
}

// Observer is notified at pass boundaries. Calls happen on the goroutine
// that runs Train, never concurrently.
type Observer interface {
	PassCompleted(pass int, elapsed time.Duration)
	LogLikelihood(pass int, value float64)
}

func (c Config) validate() error {
	if c.Topics <= 0 {
		return ErrInvalidTopicCount
	}
	if c.Iterations <= 0 {
		return ErrInvalidIterationCount
	}
	return nil
}

func (c Config) withDefaults(docs int) Config {
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.Concurrency > docs {
		c.Concurrency = docs
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Alpha <= 0 {
		c.Alpha = 50.0 / float64(c.Topics)
	}
	if c.Beta <= 0 {
		c.Beta = DefaultBeta
	}
	if c.LogEvery == 0 {
		c.LogEvery = DefaultLogEvery
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
