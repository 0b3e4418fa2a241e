package model

import (
	"errors"
	"fmt"

	"github.com/cognicore/lda/pkg/lda/vocab"
)

var (
	// ErrEmptyCorpus is returned when training receives no tokens.
	ErrEmptyCorpus = vocab.ErrEmptyCorpus
	// ErrInvalidTopicCount is returned when the topic count is not positive.
	ErrInvalidTopicCount = errors.New("model: topic count must be positive")
	// ErrInvalidIterationCount is returned when the iteration count is not positive.
	ErrInvalidIterationCount = errors.New("model: iteration count must be positive")
	// ErrMalformedDocument matches any *MalformedDocumentError.
	ErrMalformedDocument = errors.New("model: malformed document")
	// ErrNoSignal is returned by inference when a document has no known terms.
	ErrNoSignal = errors.New("model: document has no known terms")
	// ErrUnknownTerms is an alias of ErrNoSignal.
	ErrUnknownTerms = ErrNoSignal
	// ErrTopicNotFound is returned for topic IDs outside [0, K).
	ErrTopicNotFound = errors.New("model: topic not found")
	// ErrShapeMismatch is returned when restored parameters disagree with the vocabulary.
	ErrShapeMismatch = errors.New("model: parameter shape mismatch")
)

// MalformedDocumentError reports a term ID outside the vocabulary.
type MalformedDocumentError struct {
	Document  int
	Position  int
	TermID    int
	VocabSize int
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("model: document %d position %d: term id %d outside vocabulary of %d terms",
		e.Document, e.Position, e.TermID, e.VocabSize)
}

// Is lets errors.Is(err, ErrMalformedDocument) match.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}
