// Package importer implements the master-games importer: a single-holder
// mutex pipeline that rejects low-rated or duplicate games, then writes one
// game record plus one merge operand per ply in a single atomic batch
// (SPEC_FULL.md §4.6).
package importer

import (
	"sync"

	"github.com/lichess-explorer/openingexplorer/api"
	"github.com/lichess-explorer/openingexplorer/chess"
	"github.com/lichess-explorer/openingexplorer/keys"
	"github.com/lichess-explorer/openingexplorer/model"
	"github.com/lichess-explorer/openingexplorer/store"
)

// MinAverageRating is the average-rating floor below which a master import
// is rejected (SPEC_FULL.md §4.6 step 1).
const MinAverageRating = 2200

// Game is the input payload of PUT /import/master.
type Game struct {
	Id          model.GameId
	WhiteName   string
	BlackName   string
	WhiteRating uint32
	BlackRating uint32
	Winner      *model.Color
	Year        uint16
	Month       uint8
	Event       string
	Site        string
	Variant     model.Variant
	Moves       []string // UCI, in play order
}

func (g Game) avgRating() uint32 {
	return (g.WhiteRating + g.BlackRating) / 2
}

// Importer serializes imports process-wide so the duplicate-detection
// read-then-write sequence stays race-free (SPEC_FULL.md §4.6, §4.9, §5).
type Importer struct {
	mu    sync.Mutex
	store *store.Store
}

// New builds an Importer over store s.
func New(s *store.Store) *Importer {
	return &Importer{store: s}
}

// Import runs the full Idle -> Validating -> (Reject | Writing) -> Committed
// pipeline for one game (SPEC_FULL.md §4.8).
func (im *Importer) Import(g Game) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if g.avgRating() < MinAverageRating {
		return api.NewError(api.ErrorRejectedImport, "average rating below import floor")
	}

	gameKey := keys.GameKey(g.Id)
	if _, err := im.store.Get(store.KeyspaceMasterGame, gameKey); err == nil {
		return api.NewError(api.ErrorDuplicateGame, "game id already imported")
	}

	pos, err := chess.StartPos(g.Variant)
	if err != nil {
		return api.NewError(api.ErrorInvalidPosition, err.Error())
	}

	type ply struct {
		uci   string
		mover model.Color
	}
	// withoutLoops dedups by position: a position reached more than once in
	// the game (a repetition) keeps only the last ply that reached it,
	// overwriting earlier entries, exactly as without_loops in the original
	// importer. finalHash tracks the pre-move hash of the actual last move
	// played regardless of how many times that position recurred earlier.
	withoutLoops := make(map[model.PositionHash]ply)
	var finalHash model.PositionHash
	year := model.YearToAnno(int(g.Year))

	for i, uci := range g.Moves {
		posHash := pos.Zobrist()
		finalHash = posHash
		mover := model.White
		if i%2 == 1 {
			mover = model.Black
		}
		withoutLoops[posHash] = ply{uci: uci, mover: mover}
		if err := pos.Play(uci); err != nil {
			return api.NewError(api.ErrorInvalidPosition, err.Error())
		}
	}

	if len(g.Moves) > 0 {
		terminalKey := keys.MasterKey(g.Variant, finalHash, year)
		if _, err := im.store.Get(store.KeyspaceMaster, terminalKey); err == nil {
			return api.NewError(api.ErrorDuplicateGame, "terminal position already present")
		}
	}

	sanMoves, err := sanTrace(g.Variant, g.Moves)
	if err != nil {
		return api.NewError(api.ErrorInvalidPosition, err.Error())
	}

	batch := im.store.NewBatch()
	mg := model.MasterGame{
		WhiteName:   g.WhiteName,
		BlackName:   g.BlackName,
		WhiteRating: g.WhiteRating,
		BlackRating: g.BlackRating,
		Winner:      g.Winner,
		Year:        g.Year,
		Month:       g.Month,
		Event:       g.Event,
		Site:        g.Site,
		Moves:       sanMoves,
	}
	if err := batch.Put(store.KeyspaceMasterGame, gameKey, mg.Encode()); err != nil {
		return api.NewError(api.ErrorInternal, err.Error())
	}

	for posHash, p := range withoutLoops {
		moverRating, opponentRating := g.WhiteRating, g.BlackRating
		if p.mover == model.Black {
			moverRating, opponentRating = g.BlackRating, g.WhiteRating
		}
		key := keys.MasterKey(g.Variant, posHash, year)
		entry := model.NewMasterSingle(p.uci, g.Id, g.Winner, moverRating, opponentRating, year)
		if err := batch.Merge(store.KeyspaceMaster, key, entry.Encode()); err != nil {
			return api.NewError(api.ErrorInternal, err.Error())
		}
	}

	if err := batch.Commit(); err != nil {
		return api.NewError(api.ErrorInternal, err.Error())
	}
	return nil
}

// sanTrace replays moves from the variant's starting position to record
// their SAN form for MasterGame.PGN, independent of the legality trace
// above (kept separate so a duplicate-detection failure never has to undo
// SAN bookkeeping).
func sanTrace(variant model.Variant, moves []string) ([]string, error) {
	pos, err := chess.StartPos(variant)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	for _, uci := range moves {
		san, err := pos.SAN(uci)
		if err != nil {
			return nil, err
		}
		out = append(out, san)
		if err := pos.Play(uci); err != nil {
			return nil, err
		}
	}
	return out, nil
}
