// Package codec serializes trained models into self-describing blobs.
//
// Layout: magic "LDAM", one version byte, the SHA-256 of the body, then the
// body itself: a msgpack envelope carrying Metadata and the zstd-compressed,
// msgpack-encoded model parameters.
package codec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cognicore/lda/pkg/lda/model"
	"github.com/cognicore/lda/pkg/lda/vocab"
)

const (
	version    byte = 1
	headerSize      = len(magic) + 1 + sha256.Size
)

var magic = []byte("LDAM")

var (
	// ErrCorrupt means the blob is not a model or cannot be decoded.
	ErrCorrupt = errors.New("codec: corrupt model blob")
	// ErrChecksumMismatch means the body does not match its checksum.
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")
)

// Metadata describes how a model was trained. It travels with the model.
type Metadata struct {
	ID             string    `msgpack:"id" json:"id"`
	Name           string    `msgpack:"name" json:"name"`
	Topics         int       `msgpack:"topics" json:"topics"`
	VocabularySize int       `msgpack:"vocabulary_size" json:"vocabulary_size"`
	Documents      int       `msgpack:"documents" json:"documents"`
	Iterations     int       `msgpack:"iterations" json:"iterations"`
	Alpha          float64   `msgpack:"alpha" json:"alpha"`
	Beta           float64   `msgpack:"beta" json:"beta"`
	Seed           uint64    `msgpack:"seed" json:"seed"`
	TrainedAt      time.Time `msgpack:"trained_at" json:"trained_at"`
	DurationMS     int64     `msgpack:"duration_ms" json:"duration_ms"`
}

// NewID returns a fresh, time-ordered model identifier.
func NewID() string {
	return ulid.Make().String()
}

type envelope struct {
	Meta    Metadata `msgpack:"meta"`
	Payload []byte   `msgpack:"payload"`
}

type payload struct {
	Topics int         `msgpack:"topics"`
	Alpha  float64     `msgpack:"alpha"`
	Beta   float64     `msgpack:"beta"`
	Terms  []string    `msgpack:"terms"`
	Phi    [][]float64 `msgpack:"phi"`
}

var (
	encoderPool sync.Pool
	decoderPool sync.Pool
)

func getEncoder() (*zstd.Encoder, error) {
	if v := encoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getDecoder() (*zstd.Decoder, error) {
	if v := decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Encode serializes m together with meta. Missing shape fields of meta are
// filled from the model and an empty ID gets a fresh one.
func Encode(m *model.Model, meta Metadata) ([]byte, error) {
	if m == nil {
		return nil, errors.New("codec: nil model")
	}
	if meta.ID == "" {
		meta.ID = NewID()
	}
	meta.Topics = m.Topics()
	meta.VocabularySize = m.Vocabulary().Size()
	if meta.Alpha == 0 {
		meta.Alpha = m.Alpha()
	}
	if meta.Beta == 0 {
		meta.Beta = m.Beta()
	}

	raw, err := msgpack.Marshal(payload{
		Topics: m.Topics(),
		Alpha:  m.Alpha(),
		Beta:   m.Beta(),
		Terms:  m.Vocabulary().Terms(),
		Phi:    m.PhiMatrix(),
	})
	if err != nil {
		return nil, fmt.Errorf("codec: encode payload: %w", err)
	}

	enc, err := getEncoder()
	if err != nil {
		return nil, fmt.Errorf("codec: zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(raw, nil)
	encoderPool.Put(enc)

	body, err := msgpack.Marshal(envelope{Meta: meta, Payload: compressed})
	if err != nil {
		return nil, fmt.Errorf("codec: encode envelope: %w", err)
	}

	sum := sha256.Sum256(body)
	out := make([]byte, 0, headerSize+len(body))
	out = append(out, magic...)
	out = append(out, version)
	out = append(out, sum[:]...)
	out = append(out, body...)
	return out, nil
}

// Decode restores a model and its metadata from a blob produced by Encode.
func Decode(data []byte) (*model.Model, Metadata, error) {
	meta, compressed, err := open(data)
	if err != nil {
		return nil, Metadata{}, err
	}

	dec, err := getDecoder()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("codec: zstd reader: %w", err)
	}
	raw, err := dec.DecodeAll(compressed, nil)
	decoderPool.Put(dec)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: decompress payload: %v", ErrCorrupt, err)
	}

	var p payload
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: decode payload: %v", ErrCorrupt, err)
	}

	m, err := model.NewModel(vocab.New(p.Terms), p.Topics, p.Alpha, p.Beta, p.Phi)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return m, meta, nil
}

// ReadMetadata returns the metadata of a blob without decompressing the
// model parameters.
func ReadMetadata(data []byte) (Metadata, error) {
	meta, _, err := open(data)
	return meta, err
}

func open(data []byte) (Metadata, []byte, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(magic)], magic) {
		return Metadata{}, nil, ErrCorrupt
	}
	if v := data[len(magic)]; v != version {
		return Metadata{}, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	body := data[headerSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], data[len(magic)+1:headerSize]) {
		return Metadata{}, nil, ErrChecksumMismatch
	}

	var env envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return Metadata{}, nil, fmt.Errorf("%w: decode envelope: %v", ErrCorrupt, err)
	}
	return env.Meta, env.Payload, nil
}
