package ingest

import (
	"regexp"
	"unicode"
)

// Coarse part-of-speech tags produced by SuffixTagger.
const (
	TagNoun      = "NN"
	TagVerb      = "VB"
	TagGerund    = "VBG"
	TagPast      = "VBD"
	TagAdverb    = "RB"
	TagAdjective = "ADJ"
	TagNumber    = "NUM"
)

// Tagger assigns one tag per token.
type Tagger interface {
	Tag(tokens []string) []string
}

var (
	reVBG = regexp.MustCompile(`ing$`)
	reVBD = regexp.MustCompile(`ed$`)
	reRB  = regexp.MustCompile(`ly$`)
	reADJ = regexp.MustCompile(`(ous|ful|ive|able|ible|less|ical)$`)
	reVB  = regexp.MustCompile(`^(is|are|be|was|were|been|has|have|had)$`)
)

// SuffixTagger tags English tokens from their endings. It is a fallback for
// when no trained tagger is wired in; anything it cannot place is a noun.
type SuffixTagger struct{}

// Tag implements Tagger.
func (SuffixTagger) Tag(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		switch {
		case hasDigit(t):
			out[i] = TagNumber
		case reVB.MatchString(t):
			out[i] = TagVerb
		case reVBG.MatchString(t) && len(t) > 5:
			out[i] = TagGerund
		case reVBD.MatchString(t) && len(t) > 4:
			out[i] = TagPast
		case reRB.MatchString(t):
			out[i] = TagAdverb
		case reADJ.MatchString(t):
			out[i] = TagAdjective
		default:
			out[i] = TagNoun
		}
	}
	return out
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
