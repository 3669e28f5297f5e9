package workspace

import (
	"encoding/json"
	"fmt"
	"os"

	"speech_tracker/internal/speech"
)

// Report is the per-run summary written next to the cache database.
// Characters with no alerts are simply absent from Alerts.
type Report struct {
	BookTitle     string         `json:"book_title"`
	Fingerprint   string         `json:"fingerprint"`
	WordCount     int            `json:"word_count"`
	ChapterCount  int            `json:"chapter_count"`
	SpeakerCount  int            `json:"speaker_count"`
	Alerts        []speech.Alert `json:"alerts"`
	FailedCharacters []string    `json:"failed_characters,omitempty"`
	CacheHits     int64          `json:"cache_hits"`
	CacheMisses   int64          `json:"cache_misses"`
}

func SaveReport(path string, report Report) error {
	if report.Alerts == nil {
		report.Alerts = []speech.Alert{}
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
