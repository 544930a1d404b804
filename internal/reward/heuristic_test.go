package reward

import (
	"testing"

	"github.com/pokerushai/go-trainer/internal/game"
)

func TestHintEarlyGameRouting(t *testing.T) {
	cases := []struct {
		location string
		badges   int
		want     bool
	}{
		{"Pallet Town", 0, true},
		{"Route 1", 0, true},
		{"Viridian City", 0, true},
		{"Pewter City", 0, true},
		{"Cerulean City", 0, false},
		{"Pallet Town", 1, false}, // hints stop after the first badge
	}

	for _, c := range cases {
		s := game.Snapshot{Location: c.location, Badges: c.badges}
		got := Hint(s) != ""
		if got != c.want {
			t.Errorf("Hint(%q, badges=%d): hinted=%v, want %v", c.location, c.badges, got, c.want)
		}
	}
}

func TestSuggestActionMapsDirections(t *testing.T) {
	actions := []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B"}

	s := game.Snapshot{Location: "Pallet Town", Badges: 0}
	if got := SuggestAction(s, actions); got != "UP" {
		t.Fatalf("expected UP, got %q", got)
	}

	s = game.Snapshot{Location: "Pewter City", Badges: 0}
	if got := SuggestAction(s, actions); got != "A" {
		t.Fatalf("expected A for gym entry, got %q", got)
	}

	// Hinted action unavailable: no suggestion.
	s = game.Snapshot{Location: "Pallet Town", Badges: 0}
	if got := SuggestAction(s, []string{"A", "B"}); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}
