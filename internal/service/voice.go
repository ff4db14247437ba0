package service

import (
	"fmt"
	"strings"

	"github.com/brandkit/brandkit/internal/brandctx"
)

// VoiceReport is the result of checking a piece of text against a brand's
// voice profile. Score is in [0, 1]; Aligned is score measured against the
// caller's strictness threshold.
type VoiceReport struct {
	Score       float64  `json:"score"`
	Aligned     bool     `json:"aligned"`
	Strictness  float64  `json:"strictness"`
	Context     string   `json:"context,omitempty"`
	Violations  []string `json:"violations"`
	Suggestions []string `json:"suggestions"`
}

// Scoring weights. Text starts at the baseline, loses a fixed penalty per
// avoided-term hit, and earns up to the full bonus for preferred-term
// coverage. Clean text with full coverage scores 1.0.
const (
	scoreBaseline = 0.8
	avoidPenalty  = 0.15
	coverageBonus = 0.2
)

// ValidateVoice scores text against a voice profile. The check is
// rule-based: avoided terms are flagged as violations, preferred-term
// coverage raises the score. Matching is case-insensitive on whole words.
// textContext describes where the text will appear; it is carried into the
// report so callers can correlate results across placements.
func ValidateVoice(text, textContext string, voice brandctx.VoiceSection, strictness float64) VoiceReport {
	report := VoiceReport{
		Score:       scoreBaseline,
		Strictness:  strictness,
		Context:     textContext,
		Violations:  []string{},
		Suggestions: []string{},
	}

	words := tokenize(text)

	for _, avoid := range voice.Avoid {
		if n := countTerm(words, avoid); n > 0 {
			report.Score -= avoidPenalty * float64(n)
			report.Violations = append(report.Violations,
				fmt.Sprintf("uses avoided term %q (%d time(s))", avoid, n))
			report.Suggestions = append(report.Suggestions,
				fmt.Sprintf("remove or rephrase %q", avoid))
		}
	}

	if len(voice.Prefer) == 0 {
		// Brands without a preferred vocabulary get the full bonus so
		// clean text still reaches 1.0.
		report.Score += coverageBonus
	} else {
		covered := 0
		for _, prefer := range voice.Prefer {
			if countTerm(words, prefer) > 0 {
				covered++
			}
		}
		coverage := float64(covered) / float64(len(voice.Prefer))
		report.Score += coverageBonus * coverage
		if covered == 0 {
			report.Suggestions = append(report.Suggestions,
				fmt.Sprintf("consider the brand's preferred vocabulary: %s", strings.Join(voice.Prefer, ", ")))
		}
	}

	if report.Score > 1 {
		report.Score = 1
	}
	if report.Score < 0 {
		report.Score = 0
	}
	report.Aligned = report.Score >= strictness
	return report
}

// tokenize lowercases and splits text on non-letter, non-digit runes.
func tokenize(text string) map[string]int {
	counts := map[string]int{}
	word := strings.Builder{}
	flush := func() {
		if word.Len() > 0 {
			counts[word.String()]++
			word.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return counts
}

// countTerm counts whole-word occurrences of a term. Multi-word terms match
// when every word in the term appears; the count is the minimum across them.
func countTerm(words map[string]int, term string) int {
	parts := strings.Fields(strings.ToLower(term))
	if len(parts) == 0 {
		return 0
	}
	min := -1
	for _, p := range parts {
		n := words[p]
		if min == -1 || n < min {
			min = n
		}
	}
	return min
}
