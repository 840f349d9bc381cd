package main

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"k8s.io/klog/v2"

	"github.com/lichess-explorer/openingexplorer/api"
	"github.com/lichess-explorer/openingexplorer/importer"
	"github.com/lichess-explorer/openingexplorer/indexer"
	"github.com/lichess-explorer/openingexplorer/keys"
	"github.com/lichess-explorer/openingexplorer/model"
	"github.com/lichess-explorer/openingexplorer/query"
	"github.com/lichess-explorer/openingexplorer/store"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// server wires the query assembler, importer and indexer into the HTTP
// routes enumerated in SPEC_FULL.md §6. Routing is hand-rolled path/method
// matching, matching the teacher's own http-handler.go rather than pulling
// in a router library the rest of the pack never uses.
type server struct {
	assembler *query.Assembler
	importer  *importer.Importer
	indexer   *indexer.Indexer
	store     *store.Store
	metrics   fasthttp.RequestHandler
}

func newServer(a *query.Assembler, im *importer.Importer, ix *indexer.Indexer, st *store.Store) *server {
	return &server{
		assembler: a,
		importer:  im,
		indexer:   ix,
		store:     st,
		metrics:   fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
	}
}

func (s *server) handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())
	method := string(ctx.Method())
	reqID := uuid.NewString()
	klog.V(4).Infof("[%s] %s %s", reqID, method, path)

	route := s.route(ctx, method, path)
	metrics_requestsByRoute.WithLabelValues(route).Inc()
	metrics_responseStatus.WithLabelValues(route, strconv.Itoa(ctx.Response.StatusCode())).Inc()
	metrics_responseTimeHistogram.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// route dispatches one request and returns a route label for metrics.
func (s *server) route(ctx *fasthttp.RequestCtx, method, path string) string {
	switch {
	case method == "GET" && path == "/master":
		s.handleMaster(ctx)
		return "master"
	case method == "GET" && strings.HasPrefix(path, "/master/pgn/"):
		s.handleMasterPGN(ctx, strings.TrimPrefix(path, "/master/pgn/"))
		return "master_pgn"
	case method == "PUT" && path == "/import/master":
		s.handleImportMaster(ctx)
		return "import_master"
	case method == "GET" && path == "/personal":
		s.handlePersonal(ctx)
		return "personal"
	case method == "GET" && path == "/admin/explorer.indexing":
		s.handleIndexingCount(ctx)
		return "admin_indexing"
	case method == "GET" && strings.HasPrefix(path, "/admin/game/"):
		s.handleAdminProp(ctx, strings.TrimPrefix(path, "/admin/game/"))
		return "admin_game"
	case method == "GET" && strings.HasPrefix(path, "/admin/personal/"):
		s.handleAdminProp(ctx, strings.TrimPrefix(path, "/admin/personal/"))
		return "admin_personal"
	case method == "GET" && strings.HasPrefix(path, "/admin/"):
		s.handleAdminProp(ctx, strings.TrimPrefix(path, "/admin/"))
		return "admin"
	case method == "GET" && path == "/metrics":
		s.metrics(ctx)
		return "metrics"
	default:
		writeError(ctx, api.NewError(api.ErrorNotFound, "no such route"))
		return "not_found"
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	buf, err := jsonAPI.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(500)
		ctx.SetBodyString(`{"kind":"Internal","message":"failed to encode response"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(buf)
}

func writeError(ctx *fasthttp.RequestCtx, err error) {
	apiErr, ok := err.(*api.Error)
	if !ok {
		apiErr = api.NewError(api.ErrorInternal, err.Error())
	}
	writeJSON(ctx, apiErr.HTTPStatus(), apiErr)
}

func queryYear(args *fasthttp.Args, key string, def model.AnnoLichess) model.AnnoLichess {
	raw := args.Peek(key)
	if len(raw) == 0 {
		return def
	}
	y, err := strconv.Atoi(string(raw))
	if err != nil {
		return def
	}
	return model.YearToAnno(y)
}

func queryInt(args *fasthttp.Args, key string, def int) int {
	raw := args.Peek(key)
	if len(raw) == 0 {
		return def
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func queryPlay(args *fasthttp.Args) []string {
	raw := string(args.Peek("play"))
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (s *server) resolvePosition(ctx *fasthttp.RequestCtx) (*query.Position, bool, error) {
	args := ctx.QueryArgs()
	variant, err := model.ParseVariant(string(args.Peek("variant")))
	if err != nil {
		return nil, false, api.NewError(api.ErrorInvalidPosition, err.Error())
	}
	fen := string(args.Peek("fen"))
	pos, err := query.ResolvePosition(variant, fen, queryPlay(args))
	if err != nil {
		return nil, false, err
	}
	return pos, fen != "", nil
}

func (s *server) handleMaster(ctx *fasthttp.RequestCtx) {
	pos, fenWasCustom, err := s.resolvePosition(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	args := ctx.QueryArgs()
	limits := api.DefaultLimits()
	limits.Moves = queryInt(args, "limits.moves", limits.Moves)
	limits.TopGames = queryInt(args, "limits.top_games", limits.TopGames)

	resp, err := s.assembler.Master(query.MasterQuery{
		Pos:          pos,
		FENWasCustom: fenWasCustom,
		Since:        queryYear(args, "since", 0),
		Until:        queryYear(args, "until", model.AnnoLichessMax),
		Limits:       limits,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, 200, resp)
}

func (s *server) handleMasterPGN(ctx *fasthttp.RequestCtx, rawId string) {
	id, err := model.ParseGameId(rawId)
	if err != nil {
		writeError(ctx, api.NewError(api.ErrorNotFound, "malformed game id"))
		return
	}
	raw, err := s.store.Get(store.KeyspaceMasterGame, keys.GameKey(id))
	if err != nil {
		writeError(ctx, api.NewError(api.ErrorNotFound, "no such game"))
		return
	}
	mg, err := model.DecodeMasterGame(raw)
	if err != nil {
		writeError(ctx, api.NewError(api.ErrorInternal, err.Error()))
		return
	}
	ctx.SetStatusCode(200)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(mg.PGN(id))
}

// importMasterRequest is the JSON shape of PUT /import/master's body.
type importMasterRequest struct {
	Id   string `json:"id"`
	Game struct {
		WhiteName   string  `json:"white_name"`
		BlackName   string  `json:"black_name"`
		WhiteRating uint32  `json:"white_rating"`
		BlackRating uint32  `json:"black_rating"`
		Winner      *string `json:"winner"`
		Year        uint16  `json:"year"`
		Month       uint8   `json:"month"`
		Event       string  `json:"event"`
		Site        string  `json:"site"`
		Variant     string  `json:"variant"`
		Moves       []string `json:"moves"`
	} `json:"game"`
}

func (s *server) handleImportMaster(ctx *fasthttp.RequestCtx) {
	var req importMasterRequest
	if err := jsonAPI.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, api.NewError(api.ErrorInvalidPosition, "malformed import body"))
		return
	}
	id, err := model.ParseGameId(req.Id)
	if err != nil {
		writeError(ctx, api.NewError(api.ErrorInvalidPosition, "malformed game id"))
		return
	}
	variant, err := model.ParseVariant(req.Game.Variant)
	if err != nil {
		writeError(ctx, api.NewError(api.ErrorInvalidPosition, err.Error()))
		return
	}
	var winner *model.Color
	if req.Game.Winner != nil {
		c, err := model.ParseColor(*req.Game.Winner)
		if err != nil {
			writeError(ctx, api.NewError(api.ErrorInvalidPosition, err.Error()))
			return
		}
		winner = &c
	}

	err = s.importer.Import(importer.Game{
		Id:          id,
		WhiteName:   req.Game.WhiteName,
		BlackName:   req.Game.BlackName,
		WhiteRating: req.Game.WhiteRating,
		BlackRating: req.Game.BlackRating,
		Winner:      winner,
		Year:        req.Game.Year,
		Month:       req.Game.Month,
		Event:       req.Game.Event,
		Site:        req.Game.Site,
		Variant:     variant,
		Moves:       req.Game.Moves,
	})
	if err != nil {
		if apiErr, ok := err.(*api.Error); ok {
			metrics_importResult.WithLabelValues(string(apiErr.Kind)).Inc()
		}
		writeError(ctx, err)
		return
	}
	metrics_importResult.WithLabelValues("accepted").Inc()
	ctx.SetStatusCode(201)
}

func (s *server) handlePersonal(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	player := model.NewUserId(string(args.Peek("player")))
	if player == "" {
		writeError(ctx, api.NewError(api.ErrorInvalidPosition, "player is required"))
		return
	}
	if len(player) > 20 {
		writeError(ctx, api.NewError(api.ErrorInvalidPosition, "player id longer than 20 bytes"))
		return
	}
	color, err := model.ParseColor(string(args.Peek("color")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	pos, fenWasCustom, err := s.resolvePosition(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limits := api.DefaultLimits()
	limits.Moves = queryInt(args, "limits.moves", limits.Moves)
	limits.RecentGames = queryInt(args, "limits.recent_games", limits.RecentGames)

	q := query.PersonalQuery{
		Player:       player,
		Color:        color,
		Pos:          pos,
		FENWasCustom: fenWasCustom,
		Filter: query.PersonalFilter{
			Since: queryYear(args, "filter.since", 0),
			Until: queryYear(args, "filter.until", model.AnnoLichessMax),
		},
		Limits: limits,
	}

	ctx.SetStatusCode(200)
	ctx.SetContentType("application/x-ndjson")
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		_ = s.assembler.StreamPersonal(ctx, s.indexer, q, func(resp *api.ExplorerResponse) error {
			buf, err := jsonAPI.Marshal(resp)
			if err != nil {
				return err
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
			return w.Flush()
		})
	})
}

func (s *server) handleIndexingCount(ctx *fasthttp.RequestCtx) {
	n := s.indexer.NumIndexing()
	metrics_indexingInProgress.WithLabelValues().Set(float64(n))
	writeJSON(ctx, 200, struct {
		Indexing int `json:"indexing"`
	}{Indexing: n})
}

func (s *server) handleAdminProp(ctx *fasthttp.RequestCtx, prop string) {
	value, ok := s.store.Property(prop)
	if !ok {
		writeError(ctx, api.NewError(api.ErrorNotFound, "no such property"))
		return
	}
	if prop == "disk-size-bytes" {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			value = humanize.Bytes(n)
		}
	}
	ctx.SetStatusCode(200)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(value)
}
