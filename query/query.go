// Package query assembles ExplorerResponse bodies: prefix-bounded range
// scan, in-memory fold, legal-move filtering, and truncation
// (SPEC_FULL.md §4.5).
package query

import (
	"io"
	"sort"

	"github.com/lichess-explorer/openingexplorer/api"
	"github.com/lichess-explorer/openingexplorer/chess"
	"github.com/lichess-explorer/openingexplorer/keys"
	"github.com/lichess-explorer/openingexplorer/model"
	"github.com/lichess-explorer/openingexplorer/opening"
	"github.com/lichess-explorer/openingexplorer/store"
)

// Assembler answers /master and /personal queries against a shared Store.
type Assembler struct {
	Store    *store.Store
	Openings *opening.Table
}

// New builds an Assembler.
func New(s *store.Store, openings *opening.Table) *Assembler {
	return &Assembler{Store: s, Openings: openings}
}

// Position is the parsed (variant, fen, play) a caller resolves once and
// passes to both the personal and master assemblers.
type Position struct {
	Variant model.Variant
	Play    []string // UCI moves applied from the starting (or FEN) position
	pos     *chess.Position
}

// ResolvePosition parses fen (empty meaning the standard starting position)
// and replays play, returning api.ErrorInvalidPosition on any illegal move
// or unparseable FEN.
func ResolvePosition(variant model.Variant, fen string, play []string) (*Position, error) {
	var pos *chess.Position
	var err error
	if fen == "" {
		pos, err = chess.StartPos(variant)
	} else {
		pos, err = chess.FromFEN(variant, fen)
	}
	if err != nil {
		return nil, api.NewError(api.ErrorInvalidPosition, err.Error())
	}
	for _, uci := range play {
		if err := pos.Play(uci); err != nil {
			return nil, api.NewError(api.ErrorInvalidPosition, err.Error())
		}
	}
	return &Position{Variant: variant, Play: play, pos: pos}, nil
}

func (p *Position) legalSANByUCI() map[string]string {
	out := make(map[string]string)
	for _, uci := range p.pos.LegalUCIs() {
		san, err := p.pos.SAN(uci)
		if err != nil {
			continue
		}
		out[uci] = san
	}
	return out
}

func (p *Position) openingFor(table *opening.Table, fenWasCustom bool) *api.Opening {
	if table == nil || fenWasCustom {
		return nil
	}
	op, ok := table.Classify(p.Play)
	if !ok {
		return nil
	}
	return &api.Opening{Eco: op.Eco, Name: op.Name}
}

// PersonalFilter is the filter.since/filter.until query parameters.
type PersonalFilter struct {
	Since model.AnnoLichess
	Until model.AnnoLichess
}

// PersonalQuery is the resolved input to Assembler.Personal.
type PersonalQuery struct {
	Player  model.UserId
	Color   model.Color
	Pos     *Position
	FENWasCustom bool
	Filter  PersonalFilter
	Limits  api.Limits
}

// Personal answers GET /personal for one snapshot (the streaming head calls
// this repeatedly).
func (a *Assembler) Personal(q PersonalQuery) (*api.ExplorerResponse, error) {
	posHash := q.Pos.pos.Zobrist()
	start, end := keys.PersonalScanRangeBetween(q.Player, q.Color, q.Pos.Variant, posHash, q.Filter.Since, q.Filter.Until)

	acc := model.NewPersonalEntry()
	it, err := a.Store.Scan(store.KeyspacePersonal, start, end)
	if err != nil {
		return nil, api.NewError(api.ErrorInternal, err.Error())
	}
	defer it.Close()
	for {
		_, value, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, api.NewError(api.ErrorInternal, err.Error())
		}
		if err := acc.ExtendFromBytes(value); err != nil {
			return nil, api.NewError(api.ErrorInternal, err.Error())
		}
	}

	legal := q.Pos.legalSANByUCI()
	resp := &api.ExplorerResponse{Total: api.Total{Total: int64(acc.Total())}}
	resp.Opening = q.Pos.openingFor(a.Openings, q.FENWasCustom)

	type ucistats struct {
		uci   string
		stats model.Stats
	}
	var moves []ucistats
	for uci, s := range acc.Moves {
		if _, ok := legal[uci]; !ok {
			continue
		}
		moves = append(moves, ucistats{uci: uci, stats: *s})
	}
	sort.Slice(moves, func(i, j int) bool {
		if moves[i].stats.Total() != moves[j].stats.Total() {
			return moves[i].stats.Total() > moves[j].stats.Total()
		}
		return moves[i].uci < moves[j].uci
	})
	if len(moves) > q.Limits.Moves {
		moves = moves[:q.Limits.Moves]
	}
	for _, m := range moves {
		mv := api.Move{
			UCI:                   m.uci,
			SAN:                   legal[m.uci],
			Stats:                 api.StatsFromModel(m.stats),
			Total:                 int64(m.stats.Total()),
			AverageRating:         m.stats.AverageRating(),
		}
		if m.stats.IsSingle() {
			mv.Game = a.singleGameForMove(acc, m.uci)
		}
		resp.Moves = append(resp.Moves, mv)
	}

	recent := append([]model.RecentGame(nil), acc.RecentGames...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].Id.String() > recent[j].Id.String() })
	if len(recent) > q.Limits.RecentGames {
		recent = recent[:q.Limits.RecentGames]
	}
	for _, rg := range recent {
		g, ok := a.gameInfo(rg.Id)
		if !ok {
			continue
		}
		resp.RecentGames = append(resp.RecentGames, gameInfoToAPI(g, rg.UCI, rg.Id))
	}
	return resp, nil
}

// singleGameForMove attaches the one game backing a move whose stats show
// exactly one sample. The pointer lives in the entry's own recent-games
// list (capped, so it may have been pruned — the game is then omitted
// rather than fetched a second way).
func (a *Assembler) singleGameForMove(acc *model.PersonalEntry, uci string) *api.Game {
	for _, rg := range acc.RecentGames {
		if rg.UCI != uci {
			continue
		}
		if g, ok := a.gameInfo(rg.Id); ok {
			out := gameInfoToAPI(g, rg.UCI, rg.Id)
			return &out
		}
	}
	return nil
}

func (a *Assembler) gameInfo(id model.GameId) (model.GameInfo, bool) {
	raw, err := a.Store.Get(store.KeyspacePersonalGame, keys.GameKey(id))
	if err != nil {
		return model.GameInfo{}, false
	}
	info, err := model.DecodeGameInfo(raw)
	if err != nil {
		return model.GameInfo{}, false
	}
	return info, true
}

func gameInfoToAPI(g model.GameInfo, uci string, id model.GameId) api.Game {
	mode := "casual"
	if g.Rated {
		mode = "rated"
	}
	out := api.Game{
		UCI:   uci,
		Id:    id.String(),
		White: g.WhiteName,
		Black: g.BlackName,
		Year:  int(g.Year),
		Speed: g.Speed,
		Mode:  mode,
	}
	if g.Winner != nil {
		out.Winner = g.Winner.String()
	}
	return out
}

// MasterQuery is the resolved input to Assembler.Master.
type MasterQuery struct {
	Pos          *Position
	FENWasCustom bool
	Since, Until model.AnnoLichess
	Limits       api.Limits
}

// Master answers GET /master.
func (a *Assembler) Master(q MasterQuery) (*api.ExplorerResponse, error) {
	posHash := q.Pos.pos.Zobrist()
	start, end := keys.MasterScanRangeBetween(q.Pos.Variant, posHash, q.Since, q.Until)

	acc := model.NewMasterEntry()
	it, err := a.Store.Scan(store.KeyspaceMaster, start, end)
	if err != nil {
		return nil, api.NewError(api.ErrorInternal, err.Error())
	}
	defer it.Close()
	for {
		_, value, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, api.NewError(api.ErrorInternal, err.Error())
		}
		if err := acc.ExtendFromBytes(value); err != nil {
			return nil, api.NewError(api.ErrorInternal, err.Error())
		}
	}
	acc.Truncate()

	legal := q.Pos.legalSANByUCI()
	resp := &api.ExplorerResponse{Total: api.Total{Total: int64(acc.Total())}}
	resp.Opening = q.Pos.openingFor(a.Openings, q.FENWasCustom)

	type moveGroup struct {
		uci   string
		group *model.MoveGroup
	}
	var moves []moveGroup
	for uci, g := range acc.Moves {
		if _, ok := legal[uci]; !ok {
			continue
		}
		moves = append(moves, moveGroup{uci: uci, group: g})
	}
	sort.Slice(moves, func(i, j int) bool {
		if moves[i].group.Stats.Total() != moves[j].group.Stats.Total() {
			return moves[i].group.Stats.Total() > moves[j].group.Stats.Total()
		}
		return moves[i].uci < moves[j].uci
	})
	if len(moves) > q.Limits.Moves {
		moves = moves[:q.Limits.Moves]
	}

	var allSamples []model.SampleGame
	for _, m := range moves {
		mv := api.Move{
			UCI:           m.uci,
			SAN:           legal[m.uci],
			Stats:         api.StatsFromModel(m.group.Stats),
			Total:         int64(m.group.Stats.Total()),
			AverageRating: m.group.Stats.AverageRating(),
		}
		if m.group.Stats.IsSingle() && len(m.group.Games) == 1 {
			if g, ok := a.masterGameInfo(m.group.Games[0].Id); ok {
				out := masterGameToAPI(g, m.uci, m.group.Games[0].Id)
				mv.Game = &out
			}
		}
		resp.Moves = append(resp.Moves, mv)
		allSamples = append(allSamples, m.group.Games...)
	}

	sort.Slice(allSamples, func(i, j int) bool {
		if allSamples[i].SortKey != allSamples[j].SortKey {
			return allSamples[i].SortKey > allSamples[j].SortKey
		}
		return allSamples[i].Id.String() > allSamples[j].Id.String()
	})
	topCap := q.Limits.TopGames
	if topCap > 15 {
		topCap = 15
	}
	if len(allSamples) > topCap {
		allSamples = allSamples[:topCap]
	}
	for _, sg := range allSamples {
		if g, ok := a.masterGameInfo(sg.Id); ok {
			resp.TopGames = append(resp.TopGames, masterGameToAPI(g, "", sg.Id))
		}
	}
	return resp, nil
}

func (a *Assembler) masterGameInfo(id model.GameId) (model.MasterGame, bool) {
	raw, err := a.Store.Get(store.KeyspaceMasterGame, keys.GameKey(id))
	if err != nil {
		return model.MasterGame{}, false
	}
	g, err := model.DecodeMasterGame(raw)
	if err != nil {
		return model.MasterGame{}, false
	}
	return g, true
}

func masterGameToAPI(g model.MasterGame, uci string, id model.GameId) api.Game {
	out := api.Game{
		UCI:   uci,
		Id:    id.String(),
		White: g.WhiteName,
		Black: g.BlackName,
		Year:  int(g.Year),
		Mode:  "rated",
	}
	if g.Winner != nil {
		out.Winner = g.Winner.String()
	}
	return out
}
