package ingest

import (
	"strings"
	"unicode"
)

// Token is a normalized token with its part-of-speech tag.
type Token struct {
	Value string
	Tag   string
}

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
	tagger    Tagger
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, tagger: SuffixTagger{}}
}

// SetTagger replaces the default suffix tagger.
func (t *Tokenizer) SetTagger(tagger Tagger) {
	t.tagger = tagger
}

// Tokenize splits text into normalized tokens, removing stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			if word := t.processToken(current.String()); word != "" {
				tokens = append(tokens, word)
			}
			current.Reset()
		}
	}

	if current.Len() > 0 {
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
	}

	return tokens
}

// TokenizeTagged is Tokenize followed by part-of-speech tagging.
func (t *Tokenizer) TokenizeTagged(text string) []Token {
	values := t.Tokenize(text)
	tags := t.tagger.Tag(values)
	out := make([]Token, len(values))
	for i, v := range values {
		out[i] = Token{Value: v, Tag: tags[i]}
	}
	return out
}

// processToken applies cleaning and stopword filtering.
func (t *Tokenizer) processToken(token string) string {
	word := cleanToken(token)
	if len([]rune(word)) <= 1 {
		return ""
	}

	// Mixed tokens like "gpt-4" or "utf-8" are kept.
	if isNumericOnly(word) {
		return ""
	}

	if t.isStopword(word) {
		return ""
	}
	return word
}

// cleanToken strips leading/trailing hyphens and collapses consecutive ones
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
