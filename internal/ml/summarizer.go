package ml

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Summarizer produces short extractive summaries by ranking sentences on
// normalised term frequency. Generation is fully deterministic: identical
// input always yields the identical summary.
type Summarizer struct {
	maxWords   int
	minWords   int
	shortWords int
	truncateAt int
}

// NewSummarizer builds a Summarizer from config, filling non-positive
// thresholds with the documented defaults (50/10 summary bounds, 20-word
// short-ticket bypass, 700-word input truncation).
func NewSummarizer(cfg config.ModelsConfig) *Summarizer {
	s := &Summarizer{
		maxWords:   cfg.MaxSummaryWords,
		minWords:   cfg.MinSummaryWords,
		shortWords: cfg.ShortTicketWords,
		truncateAt: cfg.TruncateWords,
	}
	if s.maxWords <= 0 {
		s.maxWords = 50
	}
	if s.minWords <= 0 {
		s.minWords = 10
	}
	if s.shortWords <= 0 {
		s.shortWords = 20
	}
	if s.truncateAt <= 0 {
		s.truncateAt = 700
	}
	return s
}

// Summarize returns a bounded summary of the ticket. Tickets whose combined
// subject and body fall under the short-ticket threshold bypass generation
// and return the subject verbatim; over-long input is truncated before
// ranking. The result always ends with punctuation.
func (s *Summarizer) Summarize(ticket *schema.RawTicket) string {
	subject := ticket.Subject
	body := ticket.Body

	if wordCount(subject)+wordCount(body) < s.shortWords {
		return subject
	}

	text := joinSubjectBody(subject, body)
	text = truncateWords(text, s.truncateAt)

	summary := s.extract(text)
	if summary == "" {
		// Ranking found nothing usable; fall back to the subject.
		if subject != "" {
			return clampRunes(subject, 100)
		}
		return clampRunes(body, 100)
	}
	if last := summary[len(summary)-1]; last != '.' && last != '!' && last != '?' {
		summary += "."
	}
	return summary
}

// extract ranks sentences by normalised term frequency and concatenates the
// best ones, in original order, until the word budget is spent.
func (s *Summarizer) extract(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	freq := make(map[string]float64)
	for _, sentence := range sentences {
		for _, token := range tokenize(sentence) {
			freq[token]++
		}
	}
	maxFreq := 0.0
	for _, v := range freq {
		if v > maxFreq {
			maxFreq = v
		}
	}
	if maxFreq == 0 {
		return ""
	}
	for term, v := range freq {
		freq[term] = v / maxFreq
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sentence := range sentences {
		tokens := tokenize(sentence)
		score := 0.0
		for _, token := range tokens {
			score += freq[token]
		}
		if n := float64(len(tokens)); n > 0 {
			score /= math.Sqrt(n)
		}
		scores[i] = ranked{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	// Take the top sentences that fit the word budget, always keeping at
	// least the best one.
	budget := s.maxWords
	selected := []int{scores[0].idx}
	used := wordCount(sentences[scores[0].idx])
	for _, candidate := range scores[1:] {
		words := wordCount(sentences[candidate.idx])
		if used+words > budget {
			if used >= s.minWords {
				break
			}
			continue
		}
		selected = append(selected, candidate.idx)
		used += words
	}
	sort.Ints(selected)

	parts := make([]string, 0, len(selected))
	for _, idx := range selected {
		parts = append(parts, strings.TrimSpace(sentences[idx]))
	}
	summary := strings.Join(parts, " ")
	return truncateWords(summary, s.maxWords)
}

// splitSentences breaks text on terminal punctuation, keeping a trailing
// fragment without punctuation as its own sentence.
func splitSentences(text string) []string {
	spans := sentencePattern.FindAllStringIndex(text, -1)
	var sentences []string
	end := 0
	for _, span := range spans {
		if s := strings.TrimSpace(text[span[0]:span[1]]); s != "" {
			sentences = append(sentences, s)
		}
		end = span[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// clampRunes cuts a string to at most n runes.
func clampRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
