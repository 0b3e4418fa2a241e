package ingest

// Pipeline orchestrates the ingestion flow:
// text → tokenization → phrase merging → tagging, plus language detection
// on the raw text.
type Pipeline struct {
	tokenizer *Tokenizer
	phrases   *PhraseParser
	detector  LanguageDetector
}

// NewPipeline creates an ingestion pipeline. phrases and detector may be nil.
func NewPipeline(tokenizer *Tokenizer, phrases *PhraseParser, detector LanguageDetector) *Pipeline {
	return &Pipeline{
		tokenizer: tokenizer,
		phrases:   phrases,
		detector:  detector,
	}
}

// ProcessedDoc represents a document after ingestion processing
type ProcessedDoc struct {
	Tokens   []string
	Tags     []string
	Language string
}

// Process runs a document through the pipeline.
func (p *Pipeline) Process(text string) ProcessedDoc {
	tokens := p.tokenizer.Tokenize(text)
	tokens = p.phrases.Parse(tokens)

	lang := Undetermined
	if p.detector != nil {
		lang = p.detector.Detect(text)
	}
	return ProcessedDoc{
		Tokens:   tokens,
		Tags:     p.tokenizer.tagger.Tag(tokens),
		Language: lang,
	}
}

// ProcessAll runs Process over every text, preserving order.
func (p *Pipeline) ProcessAll(texts []string) []ProcessedDoc {
	out := make([]ProcessedDoc, len(texts))
	for i, text := range texts {
		out[i] = p.Process(text)
	}
	return out
}

// TokenLists extracts the token streams of processed documents.
func TokenLists(docs []ProcessedDoc) [][]string {
	out := make([][]string, len(docs))
	for i, d := range docs {
		out[i] = d.Tokens
	}
	return out
}
