// Package corpus reads training and evaluation documents from JSONL files.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/cognicore/lda/internal/logging"
	"github.com/cognicore/lda/pkg/lda"
	"github.com/cognicore/lda/pkg/lda/ingest"
)

const maxLine = 16 << 20

// Record is one line of a corpus file.
type Record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	// HTML is used when Text is empty.
	HTML string `json:"html,omitempty"`
	Lang string `json:"lang,omitempty"`
}

// Body returns the text to tokenize: title and text, or the visible text of
// HTML when there is no plain text.
func (r Record) Body() string {
	text := r.Text
	if strings.TrimSpace(text) == "" && r.HTML != "" {
		text = ingest.StripHTML(r.HTML)
	}
	if r.Title == "" {
		return text
	}
	return r.Title + "\n" + text
}

// Document converts the record for the engine.
func (r Record) Document() lda.Document {
	return lda.Document{ID: r.ID, Text: r.Body(), Language: r.Lang}
}

// LoadFromJSONL loads records from a JSONL file. Files ending in .gz or .zst
// are decompressed on the fly.
func LoadFromJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	records, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", path)
	}
	return records, nil
}

// Read parses JSONL records. Blank and malformed lines are skipped with a
// warning; records without a title or any text are dropped.
func Read(r io.Reader) ([]Record, error) {
	log := logging.Component("corpus")
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var records []Record
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed record")
			continue
		}
		if strings.TrimSpace(rec.Title+rec.Text+rec.HTML) == "" {
			continue
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("line-%d", line)
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}

// Writer appends records to a JSONL stream.
type Writer struct {
	enc *json.Encoder
	n   int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write encodes one record as a line.
func (w *Writer) Write(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.n }

// Split keeps the first part of records for training and the rest, about
// holdout of the total, for evaluation.
func Split(records []Record, holdout float64) (train, test []Record) {
	if holdout <= 0 || len(records) < 2 {
		return records, nil
	}
	n := int(float64(len(records)) * holdout)
	if n < 1 {
		n = 1
	}
	if n >= len(records) {
		n = len(records) - 1
	}
	cut := len(records) - n
	return records[:cut], records[cut:]
}

// Documents converts records for the engine.
func Documents(records []Record) []lda.Document {
	out := make([]lda.Document, len(records))
	for i, r := range records {
		out[i] = r.Document()
	}
	return out
}

// Texts returns the body of every record.
func Texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Body()
	}
	return out
}
