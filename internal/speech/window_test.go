package speech

import (
	"strings"
	"testing"
)

func chapterUtterance(character string, chapter, words int) Utterance {
	return Utterance{
		Character: character,
		Chapter:   chapter,
		Text:      strings.TrimSpace(strings.Repeat("word ", words)),
	}
}

func TestBuildWindowsOverlapping(t *testing.T) {
	sp := Speaker{Name: "Mira", Kind: KindCharacter}
	for ch := 1; ch <= 9; ch++ {
		sp.Utterances = append(sp.Utterances, chapterUtterance("Mira", ch, 60))
	}

	windows := BuildWindows(sp, WindowConfig{Size: 3, Overlap: 1, MinWindowWords: 50, MinTotalWords: 100})
	want := []Range{{1, 3}, {3, 5}, {5, 7}, {7, 9}}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(windows))
	}
	for i, w := range windows {
		if w.StartChapter != want[i].Start || w.EndChapter != want[i].End {
			t.Fatalf("window %d spans [%d-%d], want [%d-%d]", i, w.StartChapter, w.EndChapter, want[i].Start, want[i].End)
		}
		if w.Character != "Mira" {
			t.Fatalf("window %d carries character %q", i, w.Character)
		}
	}
	// Consecutive windows share the boundary chapter's utterances.
	if windows[0].Words() != 180 || windows[1].Words() != 180 {
		t.Fatalf("overlapping windows should each cover three chapters: %d, %d", windows[0].Words(), windows[1].Words())
	}
}

func TestBuildWindowsDropsSparseWindows(t *testing.T) {
	sp := Speaker{Name: "Mira", Kind: KindCharacter, Utterances: []Utterance{
		chapterUtterance("Mira", 1, 20),
		chapterUtterance("Mira", 2, 20),
		chapterUtterance("Mira", 3, 3),
	}}
	windows := BuildWindows(sp, WindowConfig{Size: 1, Overlap: 0, MinWindowWords: 10, MinTotalWords: 10})
	if len(windows) != 2 {
		t.Fatalf("expected the sparse chapter window dropped, got %d windows", len(windows))
	}
	for _, w := range windows {
		if w.StartChapter == 3 {
			t.Fatal("chapter 3 window is below the word floor and must be dropped")
		}
	}
}

func TestBuildWindowsExcludesSecondarySpeakers(t *testing.T) {
	sp := Speaker{Name: "Tomas", Kind: KindCharacter, Utterances: []Utterance{
		chapterUtterance("Tomas", 1, 40),
		chapterUtterance("Tomas", 2, 40),
	}}
	if got := BuildWindows(sp, WindowConfig{Size: 1, Overlap: 0, MinWindowWords: 10, MinTotalWords: 500}); got != nil {
		t.Fatalf("speaker under the total-word floor must yield no windows, got %d", len(got))
	}
}

func TestBuildWindowsCharacterKindOnly(t *testing.T) {
	utts := []Utterance{chapterUtterance("Harbor", 1, 800), chapterUtterance("Harbor", 2, 800)}
	for _, kind := range []Kind{KindUnknown, KindPlace, KindOrganization} {
		sp := Speaker{Name: "Harbor", Kind: kind, Utterances: utts}
		if got := BuildWindows(sp, WindowConfig{Size: 1, Overlap: 0, MinWindowWords: 10, MinTotalWords: 10}); got != nil {
			t.Fatalf("kind %v must yield no windows, got %d", kind, len(got))
		}
	}
}

func TestBuildWindowsEmptySpeaker(t *testing.T) {
	sp := Speaker{Name: "Mira", Kind: KindCharacter}
	if got := BuildWindows(sp, WindowConfig{Size: 3, Overlap: 1, MinWindowWords: 0, MinTotalWords: 0}); got != nil {
		t.Fatalf("no utterances must yield no windows, got %d", len(got))
	}
}
