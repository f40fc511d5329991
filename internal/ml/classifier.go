package ml

import (
	"bufio"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

// Sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// IntentGeneralInquiry is the default category when no keywords match.
const IntentGeneralInquiry = "general_inquiry"

// intentCategory pairs a category name with its keyword set. Order matters:
// earlier categories win score ties.
type intentCategory struct {
	name     string
	keywords []string
}

var intentCategories = []intentCategory{
	{"login_issue", []string{
		"login", "log in", "sign in", "signin", "password", "credentials",
		"authentication", "auth", "access denied", "locked out", "2fa", "mfa",
	}},
	{"payment_issue", []string{
		"payment", "charge", "charged", "refund", "billing", "invoice",
		"transaction", "credit card", "debit", "declined", "failed payment",
	}},
	{"bug_report", []string{
		"bug", "error", "crash", "broken", "not working", "doesn't work",
		"issue", "problem", "glitch", "freeze", "hang", "exception",
	}},
	{"feature_request", []string{
		"feature", "request", "enhancement", "add", "support for", "would love",
		"suggestion", "improve", "could you add", "wish",
	}},
	{"account_management", []string{
		"account", "profile", "settings", "update", "change", "delete",
		"deactivate", "email address", "phone number", "password reset",
	}},
	{"performance_issue", []string{
		"slow", "performance", "loading", "timeout", "lag", "delay",
		"hanging", "speed", "takes too long",
	}},
	{"security_concern", []string{
		"security", "hack", "hacked", "unauthorized", "breach", "suspicious",
		"fraud", "scam", "phishing", "malware", "virus",
	}},
	{"data_request", []string{
		"data", "export", "download", "gdpr", "privacy", "information",
		"personal data", "data protection",
	}},
	{"integration_help", []string{
		"integration", "api", "webhook", "oauth", "sdk", "plugin",
		"third party", "connect", "sync",
	}},
}

// urgencyLevels orders levels highest first; the first level with any
// keyword hit wins.
var urgencyLevels = []struct {
	name       string
	confidence float64
	keywords   []string
}{
	{"critical", 0.9, []string{
		"urgent", "critical", "emergency", "asap", "immediately", "right now",
		"down", "outage", "broken", "can't access", "unable to", "blocked",
		"losing money", "production", "hacked", "security breach",
	}},
	{"high", 0.8, []string{
		"important", "need help", "problem", "issue", "can't", "cannot",
		"doesn't work", "not working", "error", "failing", "soon",
		"business impact",
	}},
	{"medium", 0.7, []string{
		"question", "how to", "how do i", "help", "assistance",
		"wondering", "clarify", "explain",
	}},
	{"low", 0.7, []string{
		"suggestion", "feature", "enhancement", "when possible",
		"sometime", "eventually", "minor", "nice to have",
	}},
}

var knownUrgencies = map[string]struct{}{
	"critical": {}, "high": {}, "medium": {}, "low": {},
}

// Classification is the combined output of the three classifier heads.
type Classification struct {
	Intent              string
	IntentConfidence    float64
	Urgency             string
	UrgencyConfidence   float64
	Sentiment           string
	SentimentConfidence float64
}

// Classifier scores tickets for intent, urgency, and sentiment. Intent and
// urgency use word-boundary keyword matching; sentiment uses a weighted
// lexicon. Every head degrades to a documented default instead of returning
// an error, so a failed signal never blocks the other two or the ticket.
type Classifier struct {
	intentPatterns  []categoryPatterns
	urgencyPatterns []levelPatterns
	lexicon         map[string]float64
	neutralLow      float64
	neutralHigh     float64
	defaultUrgConf  float64
	sentimentWords  int
	logger          *slog.Logger
}

type categoryPatterns struct {
	name     string
	patterns []*regexp.Regexp
}

type levelPatterns struct {
	name       string
	confidence float64
	patterns   []*regexp.Regexp
}

// NewClassifier builds a Classifier from config. When a lexicon override
// file exists under the model cache dir it is merged over the built-in
// sentiment lexicon; a missing or unreadable file falls back silently to the
// built-in weights.
func NewClassifier(cfg config.ModelsConfig) *Classifier {
	c := &Classifier{
		lexicon:        builtinLexicon(),
		neutralLow:     cfg.NeutralBandLow,
		neutralHigh:    cfg.NeutralBandHigh,
		defaultUrgConf: cfg.DefaultUrgencyConf,
		sentimentWords: cfg.SentimentMaxWords,
		logger:         slog.Default().With("component", "classifier"),
	}
	if c.neutralLow <= 0 {
		c.neutralLow = 0.45
	}
	if c.neutralHigh <= 0 {
		c.neutralHigh = 0.55
	}
	if c.defaultUrgConf <= 0 {
		c.defaultUrgConf = 0.6
	}
	if c.sentimentWords <= 0 {
		c.sentimentWords = 400
	}

	for _, cat := range intentCategories {
		c.intentPatterns = append(c.intentPatterns, categoryPatterns{
			name:     cat.name,
			patterns: compileKeywords(cat.keywords),
		})
	}
	for _, level := range urgencyLevels {
		c.urgencyPatterns = append(c.urgencyPatterns, levelPatterns{
			name:       level.name,
			confidence: level.confidence,
			patterns:   compileKeywords(level.keywords),
		})
	}

	if cfg.CacheDir != "" {
		c.loadLexiconOverride(filepath.Join(cfg.CacheDir, "sentiment_lexicon.tsv"))
	}
	return c
}

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return patterns
}

// Classify runs all three heads on one ticket.
func (c *Classifier) Classify(ticket *schema.RawTicket) Classification {
	intent, intentConf := c.ClassifyIntent(ticket.Subject, ticket.Body)
	urgency, urgencyConf := c.ClassifyUrgency(ticket)
	sentiment, sentimentConf := c.ClassifySentiment(ticket.Subject, ticket.Body)
	return Classification{
		Intent:              intent,
		IntentConfidence:    intentConf,
		Urgency:             urgency,
		UrgencyConfidence:   urgencyConf,
		Sentiment:           sentiment,
		SentimentConfidence: sentimentConf,
	}
}

// ClassifyIntent scores keyword hits per category. Confidence scales with
// the number of hits, capped at 1.0; ties go to the earlier category. No
// hits at all yields general_inquiry at 0.5, and fully empty text yields
// general_inquiry at 0.0.
func (c *Classifier) ClassifyIntent(subject, body string) (string, float64) {
	text := strings.ToLower(subject + " " + body)
	if strings.TrimSpace(text) == "" {
		return IntentGeneralInquiry, 0.0
	}

	best := ""
	bestScore := 0
	for _, cat := range c.intentPatterns {
		score := 0
		for _, p := range cat.patterns {
			score += len(p.FindAllStringIndex(text, -1))
		}
		if score > bestScore {
			best = cat.name
			bestScore = score
		}
	}
	if bestScore == 0 {
		return IntentGeneralInquiry, 0.5
	}
	confidence := math.Min(float64(bestScore)/3.0, 1.0)
	return best, confidence
}

// ClassifyUrgency applies the precedence rule: an explicit priority is
// authoritative at confidence 1.0, keyword detection comes second (highest
// matching level wins), and the documented default is medium at the
// configured sub-1.0 confidence.
func (c *Classifier) ClassifyUrgency(ticket *schema.RawTicket) (string, float64) {
	explicit := strings.ToLower(strings.TrimSpace(ticket.Priority))
	if _, known := knownUrgencies[explicit]; known {
		return explicit, 1.0
	}

	text := strings.ToLower(ticket.Subject + " " + ticket.Body)
	if strings.TrimSpace(text) == "" {
		return "medium", c.defaultUrgConf
	}
	for _, level := range c.urgencyPatterns {
		for _, p := range level.patterns {
			if p.MatchString(text) {
				return level.name, level.confidence
			}
		}
	}
	return "medium", c.defaultUrgConf
}

// ClassifySentiment scores the combined text against the weighted lexicon
// and squashes the signed total into (0,1). Scores inside the neutral band
// around the decision boundary are reported as NEUTRAL, and text with no
// lexicon signal at all is NEUTRAL at 0.5.
func (c *Classifier) ClassifySentiment(subject, body string) (string, float64) {
	text := joinSubjectBody(subject, body)
	if strings.TrimSpace(text) == "" {
		return SentimentNeutral, 0.5
	}
	text = truncateWords(text, c.sentimentWords)

	signal := 0.0
	hits := 0
	for _, token := range tokenize(text) {
		if weight, ok := c.lexicon[token]; ok {
			signal += weight
			hits++
		}
	}
	if hits == 0 {
		return SentimentNeutral, 0.5
	}

	score := 1.0 / (1.0 + math.Exp(-signal/2.0))
	label := SentimentPositive
	confidence := score
	if score < 0.5 {
		label = SentimentNegative
		confidence = 1.0 - score
	}
	if confidence >= c.neutralLow && confidence <= c.neutralHigh {
		return SentimentNeutral, 0.5
	}
	return label, confidence
}

// loadLexiconOverride merges "term<TAB>weight" lines over the built-in
// lexicon. Terms are stemmed with the shared tokenizer rules so they match
// tokenized input.
func (c *Classifier) loadLexiconOverride(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		term := stem(strings.ToLower(strings.TrimSpace(parts[0])))
		c.lexicon[term] = weight
		loaded++
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("lexicon override read failed, keeping built-in weights", "path", path, "error", err)
		return
	}
	if loaded > 0 {
		c.logger.Info("sentiment lexicon override loaded", "path", path, "terms", loaded)
	}
}

// builtinLexicon returns the default sentiment weights, keyed by stemmed
// term. Positive weights push toward POSITIVE, negative toward NEGATIVE.
func builtinLexicon() map[string]float64 {
	raw := map[string]float64{
		"great":        2.0,
		"love":         2.5,
		"excellent":    2.5,
		"awesome":      2.5,
		"amazing":      2.5,
		"perfect":      2.0,
		"wonderful":    2.0,
		"fantastic":    2.5,
		"good":         1.5,
		"helpful":      1.5,
		"thanks":       1.5,
		"thank":        1.5,
		"appreciate":   1.5,
		"pleased":      1.5,
		"happy":        1.5,
		"resolved":     1.0,
		"fast":         1.0,
		"easy":         1.0,
		"smooth":       1.0,
		"terrible":     -2.5,
		"awful":        -2.5,
		"horrible":     -2.5,
		"worst":        -2.5,
		"useless":      -2.0,
		"unacceptable": -2.0,
		"ridiculous":   -2.0,
		"angry":        -2.0,
		"frustrated":   -2.0,
		"frustrating":  -2.0,
		"disappointed": -1.5,
		"annoyed":      -1.5,
		"broken":       -1.5,
		"crash":        -1.5,
		"crashes":      -1.5,
		"error":        -1.0,
		"errors":       -1.0,
		"fail":         -1.5,
		"failed":       -1.5,
		"failing":      -1.5,
		"bad":          -1.5,
		"wrong":        -1.0,
		"slow":         -1.0,
		"stuck":        -1.0,
		"urgent":       -0.5,
		"problem":      -1.0,
		"problems":     -1.0,
		"issue":        -0.5,
		"issues":       -0.5,
		"corrupted":    -1.5,
		"lost":         -1.0,
		"never":        -0.5,
	}
	lexicon := make(map[string]float64, len(raw))
	for term, weight := range raw {
		lexicon[stem(term)] = weight
	}
	return lexicon
}
