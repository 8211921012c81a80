package character

import (
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

func TestSelectBestPicksHighestIntersectionScore(t *testing.T) {
	got := selectBest([]string{"samurai", "katana", "armor"})
	if got != "samurai_01" {
		t.Fatalf("selectBest: want=samurai_01 got=%s", got)
	}
}

func TestSelectBestTieBreaksByLibraryOrder(t *testing.T) {
	got := selectBest([]string{"nonexistent-token"})
	if got != library[0].ID {
		t.Fatalf("selectBest with no matches: want=%s (first in order) got=%s", library[0].ID, got)
	}
}

func TestKnownIDAcceptsLibraryMembers(t *testing.T) {
	for _, e := range library {
		if !knownID(e.ID) {
			t.Fatalf("knownID(%s): expected true", e.ID)
		}
	}
	if knownID("does_not_exist") {
		t.Fatalf("knownID(does_not_exist): expected false")
	}
}

func TestSplitWords(t *testing.T) {
	got := splitWords("Cinematic, Photoreal-Serious")
	want := map[string]bool{"cinematic": true, "photoreal": true, "serious": true}
	if len(got) != len(want) {
		t.Fatalf("splitWords: want %d tokens, got %v", len(want), got)
	}
	for _, w := range got {
		if !want[w] {
			t.Fatalf("splitWords: unexpected token %q in %v", w, got)
		}
	}
}

func TestGatherTokensPullsFromStyleAndMood(t *testing.T) {
	u := &domain.UIR{
		Intent: domain.UIRIntent{Style: "cinematic", Mood: "serious"},
		Modules: map[string]domain.Module{
			"character": {Enabled: true, Fields: map[string]any{}},
		},
	}
	tokens := gatherTokens(u)
	found := map[string]bool{}
	for _, t := range tokens {
		found[t] = true
	}
	if !found["cinematic"] || !found["serious"] {
		t.Fatalf("gatherTokens: expected style/mood tokens, got %v", tokens)
	}
}
