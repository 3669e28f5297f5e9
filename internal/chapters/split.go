// Package chapters segments a manuscript into chapters and extracts
// attributed dialogue. Both are collaborator shims for the speech engine:
// real ingestion pipelines with NER and coreference can replace them, the
// engine only sees Chapter texts and speech.Utterance values.
package chapters

import (
	"fmt"
	"regexp"
	"strings"
)

// Chapter is one narrative unit with its 1-based index.
type Chapter struct {
	Index int
	Title string
	Text  string
}

var headerPattern = regexp.MustCompile(`(?i)^\s*(chapter|ch\.)\s+([0-9ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty)\b.*`)

const fallbackChunkWords = 2500

// Split divides text on chapter headings. Manuscripts without recognizable
// headings are chunked by word count so downstream windowing still has
// chapter indexes to work with.
func Split(text string) []Chapter {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]Chapter, 0, 64)
	var title string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		idx := len(out) + 1
		t := title
		if t == "" {
			t = fmt.Sprintf("Chapter %d", idx)
		}
		out = append(out, Chapter{Index: idx, Title: t, Text: strings.Join(current, "\n")})
		current = nil
	}

	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if headerPattern.MatchString(trim) {
			flush()
			title = trim
			continue
		}
		if trim != "" {
			current = append(current, trim)
		}
	}
	flush()

	if len(out) > 0 {
		return out
	}
	return chunkByWords(text)
}

func chunkByWords(text string) []Chapter {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []Chapter{{Index: 1, Title: "Chapter 1", Text: ""}}
	}
	out := make([]Chapter, 0, len(words)/fallbackChunkWords+1)
	for i := 0; i < len(words); i += fallbackChunkWords {
		end := i + fallbackChunkWords
		if end > len(words) {
			end = len(words)
		}
		idx := len(out) + 1
		out = append(out, Chapter{Index: idx, Title: fmt.Sprintf("Chapter %d", idx), Text: strings.Join(words[i:end], " ")})
	}
	return out
}

// NarrativeByChapter indexes chapter text by chapter number for the
// tracker's gap analysis.
func NarrativeByChapter(chs []Chapter) map[int]string {
	out := make(map[int]string, len(chs))
	for _, ch := range chs {
		out[ch.Index] = ch.Text
	}
	return out
}
