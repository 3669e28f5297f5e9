// Package speech implements the speech consistency engine: windowing a
// character's dialogue over chapters, computing linguistic metrics per
// window, statistically comparing window pairs, and scoring narratively
// contextualized change alerts.
package speech

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind classifies an extracted entity. Filtering always switches on it
// exhaustively; comparing a Kind against a raw string is exactly the defect
// this type exists to prevent.
type Kind int

const (
	KindUnknown Kind = iota
	KindCharacter
	KindPlace
	KindOrganization
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindPlace:
		return "place"
	case KindOrganization:
		return "organization"
	default:
		return "unknown"
	}
}

// Utterance is one attributed piece of dialogue, produced upstream and never
// mutated here.
type Utterance struct {
	Character string `json:"character"`
	Chapter   int    `json:"chapter"`
	Text      string `json:"text"`
	Offset    int    `json:"offset"`
}

// Speaker is a character with their chronologically ordered dialogue.
type Speaker struct {
	Name       string
	Kind       Kind
	Utterances []Utterance
}

func (s Speaker) DialogueWords() int {
	total := 0
	for _, u := range s.Utterances {
		total += len(tokenize(u.Text))
	}
	return total
}

// Window is an overlapping chapter span of one character's dialogue.
// Overlapping windows share utterances by reference.
type Window struct {
	Character    string
	StartChapter int
	EndChapter   int
	Utterances   []Utterance
}

func (w Window) Text() string {
	parts := make([]string, 0, len(w.Utterances))
	for _, u := range w.Utterances {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, " ")
}

func (w Window) Words() int {
	return len(tokenize(w.Text()))
}

// Metrics is the fixed vector computed per (character, window).
// SentenceCount rides along because the count-based tests need the sentence
// denominator to recover occurrence counts from per-100 rates.
type Metrics struct {
	FillerRate        float64 `json:"filler_rate"`
	FormalityScore    float64 `json:"formality_score"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	LexicalDiversity  float64 `json:"lexical_diversity"`
	ExclamationRate   float64 `json:"exclamation_rate"`
	QuestionRate      float64 `json:"question_rate"`
	SampleSize        int     `json:"sample_size"`
	SentenceCount     int     `json:"sentence_count"`
}

// ChangeRecord is one metric's pairwise comparison. PValue holds the exact
// p-value, or the heuristic tester's pseudo score when exact tests are off.
type ChangeRecord struct {
	Metric      string  `json:"metric"`
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// NarrativeContext summarizes keyword evidence of a dramatic event in the
// narrative gap between two windows.
type NarrativeContext struct {
	HasDramaticEvent bool     `json:"has_dramatic_event"`
	EventType        string   `json:"event_type,omitempty"`
	Weight           float64  `json:"weight,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
}

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(raw []byte) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	switch v {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	default:
		return fmt.Errorf("unknown severity %q", v)
	}
	return nil
}

// Range is an inclusive chapter span.
type Range struct {
	Start int `json:"start_chapter"`
	End   int `json:"end_chapter"`
}

// Alert is the engine's terminal output for one window pair.
type Alert struct {
	Character      string           `json:"character"`
	Window1        Range            `json:"window1"`
	Window2        Range            `json:"window2"`
	ChangedMetrics []ChangeRecord   `json:"changed_metrics"`
	Confidence     float64          `json:"confidence"`
	Severity       Severity         `json:"severity"`
	Context        NarrativeContext `json:"narrative_context"`
}

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
