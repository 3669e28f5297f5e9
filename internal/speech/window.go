package speech

// WindowConfig controls window construction and speaker eligibility.
type WindowConfig struct {
	Size           int // chapters per window
	Overlap        int // chapters shared between consecutive windows
	MinWindowWords int // windows below this are dropped, not an error
	MinTotalWords  int // speakers below this produce no windows at all
}

// BuildWindows partitions a speaker's dialogue into overlapping chapter
// windows covering their chapter range. Size 3 with overlap 1 over chapters
// 1-9 yields [1-3] [3-5] [5-7] [7-9]. Secondary speakers (total dialogue
// under MinTotalWords) and non-character entities yield nothing.
func BuildWindows(sp Speaker, cfg WindowConfig) []Window {
	switch sp.Kind {
	case KindCharacter:
	case KindUnknown, KindPlace, KindOrganization:
		return nil
	default:
		return nil
	}
	if len(sp.Utterances) == 0 || sp.DialogueWords() < cfg.MinTotalWords {
		return nil
	}

	size := cfg.Size
	if size < 1 {
		size = 1
	}
	step := size - cfg.Overlap
	if step < 1 {
		step = 1
	}

	minCh, maxCh := sp.Utterances[0].Chapter, sp.Utterances[0].Chapter
	byChapter := map[int][]Utterance{}
	for _, u := range sp.Utterances {
		if u.Chapter < minCh {
			minCh = u.Chapter
		}
		if u.Chapter > maxCh {
			maxCh = u.Chapter
		}
		byChapter[u.Chapter] = append(byChapter[u.Chapter], u)
	}

	out := make([]Window, 0, (maxCh-minCh)/step+1)
	for start := minCh; start <= maxCh; start += step {
		end := start + size - 1
		if end > maxCh {
			end = maxCh
		}
		w := Window{Character: sp.Name, StartChapter: start, EndChapter: end}
		for ch := start; ch <= end; ch++ {
			w.Utterances = append(w.Utterances, byChapter[ch]...)
		}
		if w.Words() >= cfg.MinWindowWords {
			out = append(out, w)
		}
		if end == maxCh {
			break
		}
	}
	return out
}
