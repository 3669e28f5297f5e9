package speech

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"speech_tracker/internal/cache"
	"speech_tracker/internal/config"
	"speech_tracker/internal/stats"
)

// Tracker orchestrates the engine for one analysis run: windows, cached
// metrics, pairwise comparison, narrative context, severity, alerts. It is a
// pure function of (utterances, configuration, fingerprint) modulo cache
// side effects, so repeated runs over an unchanged document return identical
// alerts and hit the cache for every metrics vector.
type Tracker struct {
	cfg         config.Config
	configHash  string
	project     string
	fingerprint string
	store       *cache.Store
	calc        *Calculator
	det         *Detector
	narrative   *ContextAnalyzer
	log         *logrus.Logger
}

// NewTracker validates its inputs once; an invalid configuration or an empty
// fingerprint is fatal before any character is processed.
func NewTracker(cfg config.Config, project, fingerprint string, store *cache.Store, collab Collaborators, log *logrus.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("tracker: empty project id")
	}
	if strings.TrimSpace(fingerprint) == "" {
		return nil, fmt.Errorf("tracker: empty document fingerprint")
	}
	if store == nil {
		return nil, fmt.Errorf("tracker: nil cache store")
	}
	if log == nil {
		log = logrus.New()
	}

	events := make([]EventEntry, 0, len(cfg.Events))
	for _, e := range cfg.Events {
		events = append(events, EventEntry{Type: e.Type, Weight: e.Weight, Keywords: e.Keywords})
	}

	return &Tracker{
		cfg:         cfg,
		configHash:  cfg.Hash(),
		project:     project,
		fingerprint: fingerprint,
		store:       store,
		calc:        NewCalculator(collab, log),
		det: NewDetector(stats.ForMode(cfg.Analysis.StatsMode), Thresholds{
			FillerRate:        cfg.Thresholds.FillerRate,
			FormalityScore:    cfg.Thresholds.FormalityScore,
			AvgSentenceLength: cfg.Thresholds.AvgSentenceLength,
			LexicalDiversity:  cfg.Thresholds.LexicalDiversity,
			ExclamationRate:   cfg.Thresholds.ExclamationRate,
			QuestionRate:      cfg.Thresholds.QuestionRate,
		}),
		narrative: NewContextAnalyzer(events),
		log:       log,
	}, nil
}

// CacheStats exposes the run's cache performance signal.
func (t *Tracker) CacheStats() cache.Stats {
	return t.store.Stats()
}

// DetectChanges runs the full pipeline for one speaker. narrative maps
// chapter index to that chapter's full text and feeds the event analyzer for
// the gap between compared windows. Speakers with no alerts return an empty
// slice; a cache failure aborts this speaker only.
func (t *Tracker) DetectChanges(sp Speaker, narrative map[int]string) ([]Alert, error) {
	windows := BuildWindows(sp, WindowConfig{
		Size:           t.cfg.Analysis.WindowSize,
		Overlap:        t.cfg.Analysis.Overlap,
		MinWindowWords: t.cfg.Analysis.MinWindowWords,
		MinTotalWords:  t.cfg.Analysis.MinTotalWords,
	})
	if len(windows) < 2 {
		return nil, nil
	}

	metrics := make([]Metrics, len(windows))
	for i, w := range windows {
		m, err := t.metricsFor(w)
		if err != nil {
			return nil, fmt.Errorf("metrics for %s [%d-%d]: %w", sp.Name, w.StartChapter, w.EndChapter, err)
		}
		metrics[i] = m
	}

	alerts := []Alert{}
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			w1, w2 := windows[i], windows[j]
			if w2.StartChapter <= w1.StartChapter {
				continue
			}
			if w2.StartChapter-w1.EndChapter > t.cfg.Analysis.MaxPairGap {
				continue
			}

			records := t.det.Compare(metrics[i], metrics[j])
			sig := SignificantCount(records)
			if sig < MinSignificantMetrics {
				continue
			}

			ctx := t.narrative.Analyze(t.gapText(w1, w2, narrative))
			conf := Confidence(records, metrics[i], metrics[j])
			if conf < t.cfg.Analysis.MinConfidence {
				continue
			}
			severity := Dampen(BaseSeverity(conf, sig), ctx, conf)

			changed := make([]ChangeRecord, 0, sig)
			for _, r := range records {
				if r.Significant {
					changed = append(changed, r)
				}
			}
			alerts = append(alerts, Alert{
				Character:      sp.Name,
				Window1:        Range{Start: w1.StartChapter, End: w1.EndChapter},
				Window2:        Range{Start: w2.StartChapter, End: w2.EndChapter},
				ChangedMetrics: changed,
				Confidence:     conf,
				Severity:       severity,
				Context:        ctx,
			})
		}
	}

	if len(alerts) > 0 {
		t.log.WithFields(logrus.Fields{
			"character": sp.Name,
			"windows":   len(windows),
			"alerts":    len(alerts),
		}).Info("speech changes detected")
	}
	return alerts, nil
}

// metricsFor checks both cache tiers before computing, and writes through on
// a miss. A failed cache write is this character's failure, not a warning.
func (t *Tracker) metricsFor(w Window) (Metrics, error) {
	key, err := cache.NewKey(t.project, w.Character, w.StartChapter, w.EndChapter, t.fingerprint, t.configHash)
	if err != nil {
		return Metrics{}, err
	}
	hash := cache.ContentHash(t.fingerprint, t.configHash, w.Text())

	if data, ok, err := t.store.Get(key, hash); err != nil {
		return Metrics{}, err
	} else if ok {
		var m Metrics
		if err := json.Unmarshal(data, &m); err == nil {
			return m, nil
		}
		// Undecodable row: fall through and recompute over it.
	}

	m := t.calc.Compute(w)
	data, err := json.Marshal(m)
	if err != nil {
		return Metrics{}, fmt.Errorf("encode metrics: %w", err)
	}
	if err := t.store.Put(key, hash, data); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// gapText concatenates the narrative chapters strictly between two windows.
// Adjacent or overlapping windows have no gap and therefore no context.
func (t *Tracker) gapText(w1, w2 Window, narrative map[int]string) string {
	if narrative == nil {
		return ""
	}
	var b strings.Builder
	for ch := w1.EndChapter + 1; ch < w2.StartChapter; ch++ {
		if text, ok := narrative[ch]; ok {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
