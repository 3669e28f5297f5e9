package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable knob of an analysis run. The whole struct is
// hashed into the cache config_hash, so two runs with different settings can
// never share cache entries.
type Config struct {
	Analysis   Analysis   `yaml:"analysis" json:"analysis"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Cache      Cache      `yaml:"cache" json:"cache"`
	Events     []Event    `yaml:"events" json:"events"`
}

type Analysis struct {
	WindowSize     int     `yaml:"window_size" json:"window_size"`
	Overlap        int     `yaml:"overlap" json:"overlap"`
	MinWindowWords int     `yaml:"min_words_per_window" json:"min_words_per_window"`
	MinTotalWords  int     `yaml:"min_total_words" json:"min_total_words"`
	MaxPairGap     int     `yaml:"max_pair_gap" json:"max_pair_gap"`
	MinConfidence  float64 `yaml:"min_confidence" json:"min_confidence"`
	StatsMode      string  `yaml:"stats_mode" json:"stats_mode"`
	Workers        int     `yaml:"workers" json:"workers"`
}

// Thresholds are relative-change floors per metric, except FormalityScore
// which is an absolute difference on the 0-1 register scale.
type Thresholds struct {
	FillerRate        float64 `yaml:"filler_rate" json:"filler_rate"`
	FormalityScore    float64 `yaml:"formality_score" json:"formality_score"`
	AvgSentenceLength float64 `yaml:"avg_sentence_length" json:"avg_sentence_length"`
	LexicalDiversity  float64 `yaml:"lexical_diversity" json:"lexical_diversity"`
	ExclamationRate   float64 `yaml:"exclamation_rate" json:"exclamation_rate"`
	QuestionRate      float64 `yaml:"question_rate" json:"question_rate"`
}

type Cache struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
}

// Event is one row of the narrative-event keyword table.
type Event struct {
	Type     string   `yaml:"type" json:"type"`
	Weight   float64  `yaml:"weight" json:"weight"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

const (
	StatsModeExact     = "exact"
	StatsModeHeuristic = "heuristic"
)

func Default() Config {
	return Config{
		Analysis: Analysis{
			WindowSize:     3,
			Overlap:        1,
			MinWindowWords: 100,
			MinTotalWords:  500,
			MaxPairGap:     6,
			MinConfidence:  0.6,
			StatsMode:      StatsModeExact,
			Workers:        0,
		},
		Thresholds: Thresholds{
			FillerRate:        0.15,
			FormalityScore:    0.25,
			AvgSentenceLength: 0.30,
			LexicalDiversity:  0.20,
			ExclamationRate:   0.50,
			QuestionRate:      0.50,
		},
		Cache: Cache{MaxEntries: 1000},
		Events: []Event{
			{Type: "death", Weight: 1.0, Keywords: []string{"died", "death", "funeral", "killed", "buried", "grave", "corpse", "mourning"}},
			{Type: "trauma", Weight: 0.9, Keywords: []string{"accident", "attacked", "assault", "wounded", "nightmare", "shock", "trauma", "screamed"}},
			{Type: "illness", Weight: 0.8, Keywords: []string{"illness", "sick", "fever", "hospital", "diagnosis", "disease", "dying", "bedridden"}},
			{Type: "revelation", Weight: 0.7, Keywords: []string{"secret", "revealed", "confessed", "truth", "discovered", "letter", "betrayed", "lied"}},
			{Type: "conflict", Weight: 0.6, Keywords: []string{"argued", "fight", "quarrel", "shouted", "slammed", "accused", "war", "battle"}},
			{Type: "wedding", Weight: 0.5, Keywords: []string{"wedding", "married", "proposal", "engaged", "bride", "groom", "vows"}},
			{Type: "journey", Weight: 0.4, Keywords: []string{"journey", "departed", "voyage", "travelled", "arrived", "moved", "abroad", "returned"}},
		},
	}
}

// Load reads config from path, or from the default locations when path is
// empty, overlaying the file's values on the defaults. A missing file is not
// an error; an invalid configuration is.
func Load(path string) (Config, error) {
	cfg := Default()

	candidates := []string{path}
	if path == "" {
		candidates = defaultPaths()
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			if path != "" {
				return cfg, fmt.Errorf("read config %s: %w", p, err)
			}
			continue
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", p, err)
		}
		break
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaultPaths() []string {
	out := []string{}
	if p := os.Getenv("SCT_CONFIG"); p != "" {
		out = append(out, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".config", "speech-tracker", "config.yaml"))
	}
	return out
}

// Validate runs once at startup, before any character is processed. Every
// violation here is fatal.
func (c Config) Validate() error {
	a := c.Analysis
	if a.WindowSize < 1 {
		return fmt.Errorf("config: window_size must be >= 1, got %d", a.WindowSize)
	}
	if a.Overlap < 0 || a.Overlap >= a.WindowSize {
		return fmt.Errorf("config: overlap must be in [0, window_size), got %d with window_size %d", a.Overlap, a.WindowSize)
	}
	if a.MinWindowWords < 0 || a.MinTotalWords < 0 {
		return fmt.Errorf("config: word-count minimums must not be negative")
	}
	if a.MaxPairGap < 0 {
		return fmt.Errorf("config: max_pair_gap must not be negative, got %d", a.MaxPairGap)
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence must be in [0,1], got %v", a.MinConfidence)
	}
	if a.StatsMode != StatsModeExact && a.StatsMode != StatsModeHeuristic {
		return fmt.Errorf("config: stats_mode must be %q or %q, got %q", StatsModeExact, StatsModeHeuristic, a.StatsMode)
	}
	for name, v := range map[string]float64{
		"filler_rate":         c.Thresholds.FillerRate,
		"formality_score":     c.Thresholds.FormalityScore,
		"avg_sentence_length": c.Thresholds.AvgSentenceLength,
		"lexical_diversity":   c.Thresholds.LexicalDiversity,
		"exclamation_rate":    c.Thresholds.ExclamationRate,
		"question_rate":       c.Thresholds.QuestionRate,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("config: threshold %s must be in (0,1], got %v", name, v)
		}
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("config: cache max_entries must be >= 1, got %d", c.Cache.MaxEntries)
	}
	for _, e := range c.Events {
		if e.Type == "" || e.Weight <= 0 || len(e.Keywords) == 0 {
			return fmt.Errorf("config: event %q must have a type, a positive weight and keywords", e.Type)
		}
	}
	return nil
}

// Hash returns the config_hash used in cache keys: a stable digest over the
// canonical JSON encoding of the whole configuration.
func (c Config) Hash() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Config is plain data; marshal cannot realistically fail.
		raw = []byte(fmt.Sprintf("%+v", c))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:16]
}
