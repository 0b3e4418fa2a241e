package ingest

// DefaultStopwords returns a small English stoplist used when no stoplist
// file is configured.
func DefaultStopwords() []string {
	return []string{
		"a", "about", "after", "all", "also", "an", "and", "any", "are", "as", "at",
		"be", "been", "before", "but", "by", "can", "could", "did", "do", "does",
		"for", "from", "had", "has", "have", "he", "her", "his", "how", "if", "in",
		"into", "is", "it", "its", "more", "most", "no", "not", "of", "on", "one",
		"or", "other", "our", "out", "said", "she", "so", "some", "than", "that",
		"the", "their", "them", "then", "there", "these", "they", "this", "to",
		"up", "was", "we", "were", "what", "when", "which", "who", "will", "with",
		"would", "you", "your",
	}
}
