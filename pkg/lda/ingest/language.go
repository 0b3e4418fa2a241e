package ingest

import (
	"sort"
	"strings"
	"unicode"
)

// Undetermined is the ISO 639 code for "no evidence".
const Undetermined = "und"

// LanguageDetector identifies the language of raw text and returns an
// ISO 639-1 code, or Undetermined.
type LanguageDetector interface {
	Detect(text string) string
}

var stopwordTables = map[string][]string{
	"en": {"the", "and", "of", "to", "in", "is", "that", "it", "for", "on", "with", "was", "are", "be", "this", "by", "over", "from", "at", "an", "or", "not", "but", "have", "has", "they", "which"},
	"fr": {"le", "la", "les", "de", "des", "du", "et", "est", "un", "une", "ce", "qui", "que", "dans", "pour", "au", "aux", "en", "sur", "pas", "nous", "vous", "il", "ils", "avec", "sont"},
	"es": {"el", "la", "los", "las", "de", "del", "que", "en", "un", "una", "es", "por", "con", "para", "su", "al", "se", "lo", "como", "más", "pero", "sus"},
	"it": {"il", "lo", "la", "gli", "le", "di", "del", "della", "che", "un", "una", "per", "con", "ed", "sono", "non", "quel", "nel", "alla", "anche"},
	"de": {"der", "die", "das", "und", "ist", "im", "den", "dem", "des", "ein", "eine", "nicht", "mit", "auf", "durch", "zu", "von", "für", "sich", "auch", "wird"},
	"pt": {"um", "uma", "os", "de", "do", "da", "dos", "das", "que", "em", "para", "com", "não", "por", "no", "na", "se", "ao", "mais", "foi"},
}

// distinctive letters that count as one hit for a single language
var letterHints = map[rune]string{
	'ñ': "es",
	'ß': "de",
	'ã': "pt",
	'õ': "pt",
}

type scriptRule struct {
	table *unicode.RangeTable
	code  string
}

// Scripts that identify a language (or a default for it) on their own.
var scriptRules = []scriptRule{
	{unicode.Hangul, "ko"},
	{unicode.Hiragana, "ja"},
	{unicode.Katakana, "ja"},
	{unicode.Han, "zh"},
	{unicode.Thai, "th"},
	{unicode.Devanagari, "hi"},
	{unicode.Hebrew, "he"},
	{unicode.Arabic, "ar"},
	{unicode.Armenian, "hy"},
	{unicode.Greek, "el"},
	{unicode.Malayalam, "ml"},
	{unicode.Cyrillic, "ru"},
}

// StopwordDetector guesses the language from the script of the text and,
// for Latin text, from the overlap with small per-language stopword tables.
type StopwordDetector struct {
	words map[string][]string // word -> languages
	langs []string
}

// NewStopwordDetector builds a detector over the built-in tables
// (en, fr, es, de, it, pt).
func NewStopwordDetector() *StopwordDetector {
	d := &StopwordDetector{words: make(map[string][]string)}
	for lang, words := range stopwordTables {
		d.langs = append(d.langs, lang)
		for _, w := range words {
			d.words[w] = append(d.words[w], lang)
		}
	}
	sort.Strings(d.langs)
	return d
}

// Languages returns the codes the Latin-script tables can recognise.
func (d *StopwordDetector) Languages() []string {
	return append([]string(nil), d.langs...)
}

// Detect implements LanguageDetector.
func (d *StopwordDetector) Detect(text string) string {
	if code, ok := detectScript(text); ok {
		return code
	}

	hits := make(map[string]int)
	for _, r := range strings.ToLower(text) {
		if lang, ok := letterHints[r]; ok {
			hits[lang]++
		}
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, lang := range d.words[w] {
			hits[lang]++
		}
	}

	best, bestHits, tied := Undetermined, 0, false
	for _, lang := range d.langs {
		switch n := hits[lang]; {
		case n > bestHits:
			best, bestHits, tied = lang, n, false
		case n == bestHits && n > 0:
			tied = true
		}
	}
	if bestHits == 0 || tied {
		return Undetermined
	}
	return best
}

// detectScript reports a language when non-Latin letters dominate the text.
func detectScript(text string) (string, bool) {
	counts := make([]int, len(scriptRules))
	latin, other := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		for i, rule := range scriptRules {
			if unicode.Is(rule.table, r) {
				counts[i]++
				other++
				break
			}
		}
	}
	if other == 0 || other <= latin {
		return "", false
	}

	// Kana decides Japanese even when Han characters outnumber it.
	if counts[1]+counts[2] > 0 {
		return "ja", true
	}
	best := 0
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}
	code := scriptRules[best].code
	if code == "ru" {
		code = cyrillicLanguage(text)
	}
	return code, true
}

// cyrillicLanguage separates a few Cyrillic languages by their letters.
func cyrillicLanguage(text string) string {
	has := func(chars string) bool { return strings.ContainsAny(strings.ToLower(text), chars) }
	switch {
	case has("өү"):
		return "mn"
	case has("ґєії"):
		return "uk"
	case has("ъ") && !has("ыэё"):
		return "bg"
	default:
		return "ru"
	}
}
