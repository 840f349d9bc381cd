// Package opening provides static ECO opening classification. It is the
// one static, process-lifetime table the core depends on (SPEC_FULL.md /
// design notes §9: "computed once at start, kept for process lifetime;
// readers hold shared references with no synchronization").
package opening

import "strings"

// Opening names a classified ECO code.
type Opening struct {
	Eco  string
	Name string
}

// Table is an immutable set of known openings keyed by their defining UCI
// move sequence. Once built it is never mutated, so concurrent readers need
// no locking.
type Table struct {
	byMoves map[string]Opening
}

type entry struct {
	eco   string
	name  string
	moves string // space-separated UCI prefix
}

// book is a small, hand-curated sample of well-known openings. A real
// deployment would load the full lichess-org/chess-openings TSV; the table
// shape (longest-UCI-prefix lookup) is what the query assembler depends on,
// not its size.
var book = []entry{
	{"B00", "King's Pawn Game", "e2e4"},
	{"A40", "Queen's Pawn Game", "d2d4"},
	{"A04", "Reti Opening", "g1f3"},
	{"C20", "King's Pawn Game", "e2e4 e7e5"},
	{"C60", "Ruy Lopez", "e2e4 e7e5 g1f3 b8c6 f1b5"},
	{"C50", "Italian Game", "e2e4 e7e5 g1f3 b8c6 f1c4"},
	{"C42", "Petrov's Defense", "e2e4 e7e5 g1f3 g8f6"},
	{"C00", "French Defense", "e2e4 e7e6"},
	{"B10", "Caro-Kann Defense", "e2e4 c7c6"},
	{"B20", "Sicilian Defense", "e2e4 c7c5"},
	{"B01", "Scandinavian Defense", "e2e4 d7d5"},
	{"A00", "Uncommon Opening", "g2g3"},
	{"D00", "Queen's Pawn Game", "d2d4 d7d5"},
	{"D06", "Queen's Gambit", "d2d4 d7d5 c2c4"},
	{"E00", "Catalan Opening", "d2d4 g8f6 c2c4 e7e6 g2g3"},
	{"A10", "English Opening", "c2c4"},
	{"B06", "Modern Defense", "e2e4 g7g6"},
	{"A45", "Indian Defense", "d2d4 g8f6"},
	{"E60", "King's Indian Defense", "d2d4 g8f6 c2c4 g7g6"},
	{"D70", "Grunfeld Defense", "d2d4 g8f6 c2c4 g7g6 b1c3 d7d5"},
}

// Build constructs the static table. Called once at process start.
func Build() *Table {
	t := &Table{byMoves: make(map[string]Opening, len(book))}
	for _, e := range book {
		t.byMoves[e.moves] = Opening{Eco: e.eco, Name: e.name}
	}
	return t
}

// Classify returns the opening matching the longest known prefix of moves
// (in UCI notation), or ok=false if no prefix matches. The table has no
// entry for the empty sequence, so the starting position itself is never
// classified.
func (t *Table) Classify(moves []string) (Opening, bool) {
	for n := len(moves); n >= 0; n-- {
		key := strings.Join(moves[:n], " ")
		if op, ok := t.byMoves[key]; ok {
			return op, true
		}
	}
	return Opening{}, false
}
