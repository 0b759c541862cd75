// Package transcript renders round-based collaboration history into a
// prompt-ready string.
package transcript

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nhalim/symposium/internal/core"
)

// Format renders turns grouped by round in ascending order. Within a round
// each turn appears as "**short-model-name** (role-or-short-name): content";
// rounds are separated by a horizontal-rule delimiter. Format is a pure
// function of its input.
func Format(turns []core.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	byRound := make(map[int][]core.Turn)
	var rounds []int
	for _, t := range turns {
		if _, ok := byRound[t.Round]; !ok {
			rounds = append(rounds, t.Round)
		}
		byRound[t.Round] = append(byRound[t.Round], t)
	}
	sort.Ints(rounds)

	var sb strings.Builder
	for i, round := range rounds {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		for _, t := range byRound[round] {
			sb.WriteString(fmt.Sprintf("**%s** (%s): %s\n\n", core.ShortModelName(t.Model), speakerTag(t), t.Content))
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatRound renders only the turns of the given round.
func FormatRound(turns []core.Turn, round int) string {
	var subset []core.Turn
	for _, t := range turns {
		if t.Round == round {
			subset = append(subset, t)
		}
	}
	return Format(subset)
}

func speakerTag(t core.Turn) string {
	if t.Role != "" {
		return t.Role
	}
	return core.ShortModelName(t.Model)
}
