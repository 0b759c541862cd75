package similarity

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Quick, quick brown FOX! It is 42.")

	want := []string{"the", "quick", "brown", "fox"}
	for _, tok := range want {
		if _, ok := tokens[tok]; !ok {
			t.Errorf("expected token %q in set", tok)
		}
	}
	if _, ok := tokens["it"]; ok {
		t.Error("tokens of length <= 2 should be discarded")
	}
	if _, ok := tokens["42"]; ok {
		t.Error("tokens of length <= 2 should be discarded")
	}
	if len(tokens) != len(want) {
		t.Errorf("token set size = %d, want %d", len(tokens), len(want))
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "alpha bravo charlie", "alpha bravo charlie", 1.0},
		{"disjoint", "alpha bravo charlie", "delta echo foxtrot", 0.0},
		{"both_empty", "", "", 1.0},
		{"one_empty", "alpha bravo", "", 0.0},
		{"punctuation_ignored", "alpha, bravo!", "alpha bravo", 1.0},
		{"half_overlap", "alpha bravo", "alpha charlie", 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRoundScore(t *testing.T) {
	if got := RoundScore([]string{"only one answer"}); got != 1.0 {
		t.Errorf("single response score = %v, want 1.0", got)
	}
	if got := RoundScore(nil); got != 1.0 {
		t.Errorf("empty response score = %v, want 1.0", got)
	}

	identical := []string{"the same answer here", "the same answer here", "the same answer here"}
	if got := RoundScore(identical); got != 1.0 {
		t.Errorf("identical responses score = %v, want 1.0", got)
	}

	disjoint := []string{"alpha bravo charlie", "delta echo foxtrot"}
	if got := RoundScore(disjoint); got != 0.0 {
		t.Errorf("disjoint responses score = %v, want 0.0", got)
	}

	// Mean over all unordered pairs: (1 + 0 + 0) / 3.
	mixed := []string{"alpha bravo charlie", "alpha bravo charlie", "delta echo foxtrot"}
	want := 1.0 / 3.0
	if got := RoundScore(mixed); math.Abs(got-want) > 1e-9 {
		t.Errorf("mixed responses score = %v, want %v", got, want)
	}
}

func TestMostRepresentative(t *testing.T) {
	responses := []string{
		"delta echo foxtrot golf",
		"alpha bravo charlie delta",
		"alpha bravo charlie echo",
	}
	// The last two agree heavily with each other; index 1 comes first.
	if got := MostRepresentative(responses); got != 1 {
		t.Errorf("MostRepresentative = %d, want 1", got)
	}

	if got := MostRepresentative(nil); got != -1 {
		t.Errorf("MostRepresentative(nil) = %d, want -1", got)
	}
	if got := MostRepresentative([]string{"solo"}); got != 0 {
		t.Errorf("MostRepresentative(single) = %d, want 0", got)
	}
}

func TestMostRepresentativeTieBreaksEarliest(t *testing.T) {
	responses := []string{"alpha bravo", "alpha bravo"}
	if got := MostRepresentative(responses); got != 0 {
		t.Errorf("tie should break to earliest index, got %d", got)
	}
}
