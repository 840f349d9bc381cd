package chess

import (
	"fmt"

	"bitbucket.org/zurichess/zurichess/engine"
)

var figureLetters = map[engine.Figure]string{
	engine.Knight: "N",
	engine.Bishop: "B",
	engine.Rook:   "R",
	engine.Queen:  "Q",
	engine.King:   "K",
}

// engineSAN renders move, played from pos, as standard algebraic notation.
// It mirrors what engine.SANToMove is willing to parse back: a disambiguation
// square is only added when another legal move of the same figure reaches
// the same destination.
func engineSAN(pos *engine.Position, move engine.Move) (string, error) {
	if move.MoveType == engine.Castling {
		if move.To.File() == 6 { // g-file: king side
			return "O-O", nil
		}
		return "O-O-O", nil
	}

	piece := pos.Get(move.From)
	figure := piece.Figure()
	isCapture := pos.Get(move.To) != engine.NoPiece || move.MoveType == engine.Enpassant

	legal := pos.GenerateMoves(nil)
	mover := pos.ToMove

	ambiguousFile, ambiguousRank := false, false
	sameDestAndFigure := false
	for _, m := range legal {
		if m.From == move.From || m.To != move.To {
			continue
		}
		if pos.Get(m.From).Figure() != figure {
			continue
		}
		pos.DoMove(m)
		legalMove := !pos.IsChecked(mover)
		pos.UndoMove(m)
		if !legalMove {
			continue
		}
		sameDestAndFigure = true
		if m.From.File() == move.From.File() {
			ambiguousFile = true
		}
		if m.From.Rank() == move.From.Rank() {
			ambiguousRank = true
		}
	}

	var b []byte
	if figure == engine.Pawn {
		if isCapture {
			b = append(b, "abcdefgh"[move.From.File()])
		}
	} else {
		letter, ok := figureLetters[figure]
		if !ok {
			return "", fmt.Errorf("chess: unsupported figure %v", figure)
		}
		b = append(b, letter...)
		if sameDestAndFigure {
			if !ambiguousFile {
				b = append(b, "abcdefgh"[move.From.File()])
			} else if !ambiguousRank {
				b = append(b, "12345678"[move.From.Rank()])
			} else {
				b = append(b, move.From.String()...)
			}
		}
	}

	if isCapture {
		b = append(b, 'x')
	}
	b = append(b, move.To.String()...)

	if move.MoveType == engine.Promotion {
		letter, ok := figureLetters[move.Target.Figure()]
		if !ok {
			letter = "Q"
		}
		b = append(b, '=')
		b = append(b, letter...)
	}

	pos.DoMove(move)
	inCheck := pos.IsChecked(mover.Other())
	hasReply := pos.GenerateMoves(nil)
	hasLegalReply := false
	for _, m := range hasReply {
		pos.DoMove(m)
		if !pos.IsChecked(mover.Other()) {
			hasLegalReply = true
		}
		pos.UndoMove(m)
		if hasLegalReply {
			break
		}
	}
	pos.UndoMove(move)

	if inCheck {
		if hasLegalReply {
			b = append(b, '+')
		} else {
			b = append(b, '#')
		}
	}

	return string(b), nil
}
