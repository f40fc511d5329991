package ml

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "so": {}, "can": {}, "my": {}, "i": {}, "been": {},
	"am": {}, "me": {}, "we": {}, "you": {}, "your": {},
}

// tokenize lower-cases text, splits on non-alphanumeric boundaries, removes
// stop-words and single-character terms, and applies a light suffix stemmer
// so near-identical phrasings share terms.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	suffixes := []struct {
		suffix      string
		replacement string
		minLen      int
	}{
		{"ization", "ize", 2},
		{"fulness", "ful", 2},
		{"ations", "ate", 2},
		{"ing", "", 4},
		{"edly", "", 4},
		{"ied", "y", 3},
		{"ies", "y", 3},
		{"ed", "", 4},
		{"es", "e", 3},
		{"ly", "", 4},
		{"s", "", 4},
	}
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			stemmedLen := len(word) - len(rule.suffix)
			if stemmedLen >= rule.minLen {
				return word[:stemmedLen] + rule.replacement
			}
		}
	}
	return word
}

// wordCount counts whitespace-delimited words, the unit used by the summary
// and truncation thresholds.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

// truncateWords returns text cut to at most max whitespace-delimited words.
func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// joinSubjectBody combines the two ticket text fields the way every model
// input does: "subject. body" when both are present, else whichever exists.
func joinSubjectBody(subject, body string) string {
	switch {
	case subject != "" && body != "":
		return subject + ". " + body
	case subject != "":
		return subject
	default:
		return body
	}
}
