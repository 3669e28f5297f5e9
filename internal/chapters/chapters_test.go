package chapters

import (
	"strings"
	"testing"

	"speech_tracker/internal/speech"
)

const twoChapterText = `Chapter 1

The village woke before dawn.
"We leave at first light," said Mira.
"Are you certain?" asked Tomas.
"I have never been more certain," Mira whispered.

Chapter 2

The road climbed into the hills.
"The bridge is out," said Tomas.
It rained all afternoon. "Then we swim," said Mira.
`

func TestSplitOnHeadings(t *testing.T) {
	chs := Split(twoChapterText)
	if len(chs) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chs))
	}
	if chs[0].Index != 1 || chs[1].Index != 2 {
		t.Fatalf("chapter indexes must be 1-based and sequential: %d, %d", chs[0].Index, chs[1].Index)
	}
	if chs[0].Title != "Chapter 1" {
		t.Fatalf("chapter title = %q", chs[0].Title)
	}
	if !strings.Contains(chs[0].Text, "first light") || strings.Contains(chs[0].Text, "bridge") {
		t.Fatalf("chapter 1 text wrong: %q", chs[0].Text)
	}
}

func TestSplitHeadingVariants(t *testing.T) {
	text := "CHAPTER ONE\nfirst text here\nch. IV\nsecond text here\nChapter 12: The Storm\nthird text here\n"
	chs := Split(text)
	if len(chs) != 3 {
		t.Fatalf("expected 3 chapters, got %d: %+v", len(chs), chs)
	}
}

func TestSplitWithoutHeadingsChunks(t *testing.T) {
	words := strings.TrimSpace(strings.Repeat("word ", fallbackChunkWords+10))
	chs := Split(words)
	if len(chs) != 2 {
		t.Fatalf("expected 2 fallback chunks, got %d", len(chs))
	}
	if len(strings.Fields(chs[0].Text)) != fallbackChunkWords {
		t.Fatalf("first chunk should hold %d words, got %d", fallbackChunkWords, len(strings.Fields(chs[0].Text)))
	}
}

func TestSplitEmptyText(t *testing.T) {
	chs := Split("")
	if len(chs) != 1 || chs[0].Index != 1 {
		t.Fatalf("empty text should yield one empty chapter, got %+v", chs)
	}
}

func TestNarrativeByChapter(t *testing.T) {
	narrative := NarrativeByChapter(Split(twoChapterText))
	if len(narrative) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(narrative))
	}
	if !strings.Contains(narrative[2], "bridge") {
		t.Fatalf("chapter 2 narrative wrong: %q", narrative[2])
	}
}

func TestExtractSpeakers(t *testing.T) {
	speakers := ExtractSpeakers(Split(twoChapterText))
	if len(speakers) != 2 {
		t.Fatalf("expected Mira and Tomas, got %+v", speakers)
	}
	if speakers[0].Name != "Mira" || speakers[1].Name != "Tomas" {
		t.Fatalf("speakers must be sorted by name: %q, %q", speakers[0].Name, speakers[1].Name)
	}
	for _, sp := range speakers {
		if sp.Kind != speech.KindCharacter {
			t.Fatalf("%s extracted with kind %v", sp.Name, sp.Kind)
		}
	}

	mira := speakers[0]
	if len(mira.Utterances) != 3 {
		t.Fatalf("Mira should have 3 utterances, got %+v", mira.Utterances)
	}
	if mira.Utterances[0].Text != "We leave at first light," {
		t.Fatalf("utterance text = %q", mira.Utterances[0].Text)
	}
	if mira.Utterances[0].Chapter != 1 || mira.Utterances[2].Chapter != 2 {
		t.Fatalf("utterance chapters wrong: %+v", mira.Utterances)
	}
}

func TestExtractSpeakersCurlyQuotes(t *testing.T) {
	chs := []Chapter{{Index: 1, Text: "“The harvest failed,” said Elena."}}
	speakers := ExtractSpeakers(chs)
	if len(speakers) != 1 || speakers[0].Name != "Elena" {
		t.Fatalf("curly quotes should attribute to Elena, got %+v", speakers)
	}
}

func TestExtractSpeakersDropsUnattributed(t *testing.T) {
	chs := []Chapter{{Index: 1, Text: `"Nobody knows who spoke." The wind rattled the door.`}}
	if speakers := ExtractSpeakers(chs); len(speakers) != 0 {
		t.Fatalf("unattributed quotes must be dropped, got %+v", speakers)
	}
}
