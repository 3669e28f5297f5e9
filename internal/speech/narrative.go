package speech

import "strings"

// EventEntry is one row of the weighted narrative-event table. The table is
// configuration: the defaults live in internal/config and are tunable, not
// derived.
type EventEntry struct {
	Type     string
	Weight   float64
	Keywords []string
}

const maxContextKeywords = 5

// ContextAnalyzer scans the narrative text spanning the gap between two
// windows for keyword evidence of a dramatic event.
type ContextAnalyzer struct {
	events []EventEntry
}

func NewContextAnalyzer(events []EventEntry) *ContextAnalyzer {
	return &ContextAnalyzer{events: events}
}

// Analyze scores every event type as matched-keyword-count times weight and
// reports the maximum. No nonzero score means no dramatic event.
func (a *ContextAnalyzer) Analyze(narrative string) NarrativeContext {
	if strings.TrimSpace(narrative) == "" {
		return NarrativeContext{}
	}
	present := map[string]struct{}{}
	for _, w := range tokenize(narrative) {
		present[w] = struct{}{}
	}

	var best NarrativeContext
	bestScore := 0.0
	for _, ev := range a.events {
		matched := make([]string, 0, maxContextKeywords)
		hits := 0
		for _, kw := range ev.Keywords {
			if _, ok := present[strings.ToLower(kw)]; ok {
				hits++
				if len(matched) < maxContextKeywords {
					matched = append(matched, kw)
				}
			}
		}
		score := float64(hits) * ev.Weight
		if score > bestScore {
			bestScore = score
			best = NarrativeContext{
				HasDramaticEvent: true,
				EventType:        ev.Type,
				Weight:           ev.Weight,
				Keywords:         matched,
			}
		}
	}
	return best
}
