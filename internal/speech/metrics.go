package speech

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// FillerDetector counts filler/discourse-marker occurrences in tokenized
// dialogue. Pluggable; a lexicon heuristic stands in when no external
// detector is wired.
type FillerDetector interface {
	Count(words []string) int
}

// RegisterClassifier scores the register of a dialogue sample on a 0-1
// colloquial-to-formal scale.
type RegisterClassifier interface {
	Score(text string) (float64, error)
}

// SentenceSplitter segments text into sentences with their terminal
// punctuation preserved.
type SentenceSplitter interface {
	Split(text string) []string
}

// Calculator computes the metric vector for a window. Missing collaborators
// degrade to documented regex/lexicon estimators; each degradation is logged
// once per Calculator (one per run), never per window.
type Calculator struct {
	filler    FillerDetector
	register  RegisterClassifier
	sentences SentenceSplitter
	log       *logrus.Logger

	mu    sync.Mutex
	noted map[string]bool
}

// Collaborators are the optional external providers. Nil fields select the
// built-in heuristics.
type Collaborators struct {
	Filler    FillerDetector
	Register  RegisterClassifier
	Sentences SentenceSplitter
}

func NewCalculator(c Collaborators, log *logrus.Logger) *Calculator {
	calc := &Calculator{
		filler:    c.Filler,
		register:  c.Register,
		sentences: c.Sentences,
		log:       log,
		noted:     map[string]bool{},
	}
	if calc.filler == nil {
		calc.filler = lexiconFiller{}
		calc.noteFallback("filler-detector", "lexicon heuristic")
	}
	if calc.register == nil {
		calc.register = lexiconRegister{}
		calc.noteFallback("register-classifier", "lexicon heuristic")
	}
	if calc.sentences == nil {
		calc.sentences = regexSplitter{}
		calc.noteFallback("sentence-splitter", "regex estimator")
	}
	return calc
}

// Compute returns the metric vector for one window. It never fails: every
// dependency has a lower-fidelity fallback.
func (c *Calculator) Compute(w Window) Metrics {
	text := w.Text()
	words := tokenize(text)
	sentences := c.sentences.Split(text)

	m := Metrics{
		SampleSize:    len(words),
		SentenceCount: len(sentences),
	}
	if len(words) == 0 {
		return m
	}

	m.FillerRate = float64(c.filler.Count(words)) / float64(len(words)) * 100

	score, err := c.register.Score(text)
	if err != nil {
		c.noteFallback("register-classifier", "lexicon heuristic after provider error: "+err.Error())
		score, _ = lexiconRegister{}.Score(text)
	}
	m.FormalityScore = clamp01(score)

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	m.LexicalDiversity = float64(len(seen)) / float64(len(words))

	if len(sentences) > 0 {
		totalWords := 0
		exclaims := 0
		questions := 0
		for _, s := range sentences {
			totalWords += len(tokenize(s))
			switch terminalPunct(s) {
			case '!':
				exclaims++
			case '?':
				questions++
			}
		}
		m.AvgSentenceLength = float64(totalWords) / float64(len(sentences))
		m.ExclamationRate = float64(exclaims) / float64(len(sentences)) * 100
		m.QuestionRate = float64(questions) / float64(len(sentences)) * 100
	}
	return m
}

func (c *Calculator) noteFallback(dep, how string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.noted[dep] {
		return
	}
	c.noted[dep] = true
	if c.log != nil {
		c.log.WithFields(logrus.Fields{"dependency": dep, "fallback": how}).Warn("optional dependency unavailable, using fallback estimator")
	}
}

func terminalPunct(sentence string) byte {
	s := strings.TrimSpace(sentence)
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

var sentenceExtract = regexp.MustCompile(`[^.!?]+[.!?]*`)

// regexSplitter is the fallback sentence segmenter: terminal-punctuation
// runs stay attached to their sentence.
type regexSplitter struct{}

func (regexSplitter) Split(text string) []string {
	parts := sentenceExtract.FindAllString(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && len(tokenize(p)) > 0 {
			out = append(out, p)
		}
	}
	return out
}

var fillerLexicon = map[string]struct{}{
	"um": {}, "uh": {}, "er": {}, "ah": {}, "hmm": {}, "like": {}, "well": {},
	"basically": {}, "actually": {}, "literally": {}, "anyway": {}, "honestly": {},
}

var fillerBigrams = [][2]string{
	{"you", "know"}, {"i", "mean"}, {"sort", "of"}, {"kind", "of"},
}

type lexiconFiller struct{}

func (lexiconFiller) Count(words []string) int {
	count := 0
	for i, w := range words {
		if _, ok := fillerLexicon[w]; ok {
			count++
			continue
		}
		if i+1 < len(words) {
			for _, bg := range fillerBigrams {
				if w == bg[0] && words[i+1] == bg[1] {
					count++
					break
				}
			}
		}
	}
	return count
}

var formalLexicon = map[string]struct{}{
	"indeed": {}, "certainly": {}, "furthermore": {}, "nevertheless": {}, "regarding": {},
	"shall": {}, "perhaps": {}, "therefore": {}, "however": {}, "madam": {}, "sir": {},
	"consequently": {}, "moreover": {}, "precisely": {}, "accordingly": {},
}

var colloquialLexicon = map[string]struct{}{
	"yeah": {}, "gonna": {}, "wanna": {}, "gotta": {}, "ain't": {}, "dunno": {},
	"kinda": {}, "sorta": {}, "cool": {}, "okay": {}, "hey": {}, "stuff": {}, "guys": {},
	"nah": {}, "yep": {},
}

// lexiconRegister is the fallback formality estimator: marker densities per
// 100 words around a 0.5 midpoint, with contractions counted as colloquial.
type lexiconRegister struct{}

func (lexiconRegister) Score(text string) (float64, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return 0.5, nil
	}
	formal, colloquial := 0, 0
	for _, w := range words {
		if _, ok := formalLexicon[w]; ok {
			formal++
		}
		if _, ok := colloquialLexicon[w]; ok {
			colloquial++
		}
		if strings.Contains(w, "'") {
			colloquial++
		}
	}
	delta := float64(formal-colloquial) / float64(len(words)) * 100
	return clamp01(0.5 + delta/10), nil
}
