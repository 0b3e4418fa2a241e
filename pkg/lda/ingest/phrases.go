package ingest

import "strings"

// Phrase maps one or more multi-word variants onto a canonical token.
type Phrase struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// PhraseParser merges known multi-word phrases into single tokens so that
// "new york" becomes one vocabulary term.
type PhraseParser struct {
	dict   map[string]string // phrase -> canonical token
	maxLen int
}

// NewPhraseParser builds a parser. Canonical forms have spaces replaced by
// hyphens so they survive later tokenization.
func NewPhraseParser(phrases []Phrase) *PhraseParser {
	dict := make(map[string]string)
	maxLen := 1
	add := func(phrase, canonical string) {
		phrase = strings.ToLower(strings.Join(strings.Fields(phrase), " "))
		if phrase == "" {
			return
		}
		dict[phrase] = canonical
		if l := len(strings.Fields(phrase)); l > maxLen {
			maxLen = l
		}
	}
	for _, p := range phrases {
		canonical := strings.ToLower(strings.Join(strings.Fields(p.Canonical), "-"))
		add(p.Canonical, canonical)
		for _, v := range p.Variants {
			add(v, canonical)
		}
	}
	return &PhraseParser{dict: dict, maxLen: maxLen}
}

// Parse applies greedy longest-match over tokens.
func (p *PhraseParser) Parse(tokens []string) []string {
	if p == nil || len(p.dict) == 0 {
		return tokens
	}

	result := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		n := p.maxLen
		if remaining := len(tokens) - i; n > remaining {
			n = remaining
		}
		matched := false
		for ; n >= 2; n-- {
			if canonical, ok := p.dict[strings.Join(tokens[i:i+n], " ")]; ok {
				result = append(result, canonical)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if canonical, ok := p.dict[tokens[i]]; ok {
			result = append(result, canonical)
		} else {
			result = append(result, tokens[i])
		}
		i++
	}
	return result
}
