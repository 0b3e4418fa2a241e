package ingest

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenizerBasic(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the", "a", "and", "of"})

	tokens := tokenizer.Tokenize("The quick brown fox jumps over the lazy dog")

	expected := []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerHyphensAndNumbers(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("machine-learning --beats-- GPT-4 in 2024, 10-20 times")

	expected := []string{"machine-learning", "beats", "gpt-4", "in", "times"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerCaseAndUnicode(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("Café RÉSUMÉ naïve é")
	expected := []string{"café", "résumé", "naïve"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestAddRemoveStopword(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the"})

	tokens := tokenizer.Tokenize("the cat")
	if len(tokens) != 1 || tokens[0] != "cat" {
		t.Error("Should filter 'the'")
	}

	tokenizer.RemoveStopword("THE")
	if tokens = tokenizer.Tokenize("the cat"); len(tokens) != 2 {
		t.Error("'the' should not be filtered after removal")
	}

	tokenizer.AddStopword("The")
	if tokens = tokenizer.Tokenize("the cat"); len(tokens) != 1 {
		t.Error("Should filter 'the' after re-adding")
	}
}

func TestTokenizerEmptyAndWhitespace(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	for _, text := range []string{"", "   \t\n\r   ", "a b c", "!!! ???"} {
		if tokens := tokenizer.Tokenize(text); len(tokens) != 0 {
			t.Errorf("%q should produce no tokens, got %v", text, tokens)
		}
	}
}

func TestTokenizerVeryLongWord(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	longWord := strings.Repeat("verylongword", 20)
	tokens := tokenizer.Tokenize("normal " + longWord + " text")
	if len(tokens) != 3 || tokens[1] != longWord {
		t.Errorf("Expected 3 tokens with the long word intact, got %d", len(tokens))
	}
}

func TestTokenizeTagged(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the"})

	got := tokenizer.TokenizeTagged("The markets rallied quickly")
	expected := []Token{
		{Value: "markets", Tag: TagNoun},
		{Value: "rallied", Tag: TagPast},
		{Value: "quickly", Tag: TagAdverb},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

type upperTagger struct{}

func (upperTagger) Tag(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToUpper(t)
	}
	return out
}

func TestTokenizerCustomTagger(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	tokenizer.SetTagger(upperTagger{})

	got := tokenizer.TokenizeTagged("wheat corn")
	if got[0].Tag != "WHEAT" || got[1].Tag != "CORN" {
		t.Errorf("custom tagger not used: %v", got)
	}
}
