// Package bracket builds single-elimination pairings for tournament mode.
package bracket

import (
	"math"
)

// Pair is one match-up within a round.
type Pair struct {
	A string
	B string
}

// Bracket tracks the surviving competitors entering each round. Rounds[0]
// is the full initial competitor set; Rounds[r+1] is exactly the set of
// round-r winners, byes included.
type Bracket struct {
	Rounds     [][]string
	Eliminated map[int][]string
}

// New creates a bracket seeded with the given competitors in order.
func New(competitors []string) *Bracket {
	initial := make([]string, len(competitors))
	copy(initial, competitors)
	return &Bracket{
		Rounds:     [][]string{initial},
		Eliminated: make(map[int][]string),
	}
}

// RoundCount returns ceil(log2(n)), the number of rounds a field of n
// competitors needs. A field of 0 or 1 needs none.
func RoundCount(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// Current returns the competitors entering the latest round.
func (b *Bracket) Current() []string {
	return b.Rounds[len(b.Rounds)-1]
}

// CurrentRound returns the zero-based index of the latest round.
func (b *Bracket) CurrentRound() int {
	return len(b.Rounds) - 1
}

// Pairings pairs the competitors of the latest round in list order, two at
// a time. With an odd count the first competitor receives a bye and is
// returned separately; this rule applies at every round, not only the first.
func (b *Bracket) Pairings() (pairs []Pair, bye string) {
	current := b.Current()
	start := 0
	if len(current)%2 == 1 {
		bye = current[0]
		start = 1
	}
	for i := start; i+1 < len(current); i += 2 {
		pairs = append(pairs, Pair{A: current[i], B: current[i+1]})
	}
	return pairs, bye
}

// Advance records the winners of the latest round (bye included, in the
// order produced by Pairings) as the next round's competitor list and files
// the losers under the round they were eliminated in.
func (b *Bracket) Advance(winners []string) {
	round := b.CurrentRound()
	survived := make(map[string]struct{}, len(winners))
	for _, w := range winners {
		survived[w] = struct{}{}
	}
	for _, c := range b.Current() {
		if _, ok := survived[c]; !ok {
			b.Eliminated[round] = append(b.Eliminated[round], c)
		}
	}

	next := make([]string, len(winners))
	copy(next, winners)
	b.Rounds = append(b.Rounds, next)
}

// Winner returns the sole surviving competitor, or "" if the bracket has
// not been played out.
func (b *Bracket) Winner() string {
	current := b.Current()
	if len(current) == 1 {
		return current[0]
	}
	return ""
}
