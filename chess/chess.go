// Package chess wraps the bitbucket.org/zurichess/zurichess chess engine,
// the move-generation and position-hashing collaborator the rest of this
// module treats as a black box: legality, SAN/UCI conversion and Zobrist
// hashing are its job, not ours.
package chess

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"bitbucket.org/zurichess/zurichess/engine"

	"github.com/lichess-explorer/openingexplorer/model"
)

// Position wraps an engine.Position for one variant.
type Position struct {
	variant model.Variant
	pos     *engine.Position
}

// StartPos returns the initial position for the given variant. The engine
// only knows standard chess, so every variant starts from the standard
// board and its moves are generated and legality-checked under standard
// rules; variant-specific rules are not implemented.
func StartPos(variant model.Variant) (*Position, error) {
	return FromFEN(variant, engine.FENStartPos)
}

// FromFEN parses a FEN string into a Position for the given variant.
func FromFEN(variant model.Variant, fen string) (*Position, error) {
	pos, err := engine.PositionFromFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("chess: %w", err)
	}
	return &Position{variant: variant, pos: pos}, nil
}

// LegalUCIs returns every legal move from pos in UCI form. Generated moves
// are pseudo-legal; a move is filtered out if playing it leaves the mover's
// own king in check.
func (p *Position) LegalUCIs() []string {
	pseudo := p.pos.GenerateMoves(nil)

	mover := p.pos.ToMove
	ucis := make([]string, 0, len(pseudo))
	for _, m := range pseudo {
		p.pos.DoMove(m)
		if !p.pos.IsChecked(mover) {
			ucis = append(ucis, p.pos.MoveToUCI(m))
		}
		p.pos.UndoMove(m)
	}
	sort.Strings(ucis)
	return ucis
}

// Play applies the move given in UCI notation, returning an error if it is
// not legal from the current position.
func (p *Position) Play(uci string) error {
	legal := p.LegalUCIs()
	found := false
	for _, l := range legal {
		if l == uci {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("chess: illegal move %q", uci)
	}
	move := p.pos.UCIToMove(uci)
	p.pos.DoMove(move)
	return nil
}

// SAN renders uci as standard algebraic notation from the current position,
// without mutating it.
func (p *Position) SAN(uci string) (string, error) {
	move := p.pos.UCIToMove(uci)
	san, err := moveToSAN(p.pos, move)
	if err != nil {
		return "", err
	}
	return san, nil
}

// moveToSAN derives SAN from the engine's move representation. zurichess
// exposes SAN parsing (SANToMove) but not SAN rendering, so disambiguation
// is reconstructed the same way SANToMove expects to read it back: piece
// letter (omitted for pawns), an explicit source file/rank only when
// another legal move by the same figure shares the destination, capture
// marker, destination square, and promotion suffix.
func moveToSAN(pos *engine.Position, move engine.Move) (string, error) {
	return engineSAN(pos, move)
}

// Zobrist returns the 128-bit position hash used as the PositionHash
// component of both store key families. The engine's native Zobrist() is
// 64 bits (it is a polyglot-book-compatible hash); the low 8 bytes are the
// first 8 bytes of SHA-256 over that 64-bit value plus the variant byte.
// The second half separates variants, but it is derived from the first, so
// two positions of the same variant whose 64-bit hashes collide also
// collide in the 128-bit value (DESIGN.md, Open Question: 128-bit
// PositionHash).
func (p *Position) Zobrist() model.PositionHash {
	primary := p.pos.Zobrist

	var seed [9]byte
	binary.BigEndian.PutUint64(seed[:8], primary)
	seed[8] = byte(p.variant)
	secondary := sha256.Sum256(seed[:])

	var out model.PositionHash
	binary.BigEndian.PutUint64(out[:8], primary)
	copy(out[8:], secondary[:8])
	return out
}

// Variant reports which rule-set this position belongs to.
func (p *Position) Variant() model.Variant {
	return p.variant
}
