// Package api defines the JSON wire shapes served by the HTTP layer, and
// the errors that map to the distinguished error kinds in SPEC_FULL.md §7.
package api

import "github.com/lichess-explorer/openingexplorer/model"

// Stats is the JSON projection of model.Stats.
type Stats struct {
	White int64 `json:"white"`
	Draws int64 `json:"draws"`
	Black int64 `json:"black"`
}

// Total is the JSON projection used for both the response-level total and
// the streaming head's dedup key.
type Total struct {
	Total int64 `json:"total"`
}

func StatsFromModel(s model.Stats) Stats {
	return Stats{White: int64(s.WhiteWins), Draws: int64(s.Draws), Black: int64(s.BlackWins)}
}

// Move is one entry in ExplorerResponse.Moves.
type Move struct {
	UCI                   string  `json:"uci"`
	SAN                   string  `json:"san"`
	Stats                 Stats   `json:"stats"`
	Total                 int64   `json:"total"`
	AverageRating         *uint64 `json:"average_rating,omitempty"`
	AverageOpponentRating *uint64 `json:"average_opponent_rating,omitempty"`
	Game                  *Game   `json:"game,omitempty"`
}

// Game is the shape shared by recent_games and top_games entries, and by
// the single game attached to a move with exactly one sample.
type Game struct {
	UCI    string `json:"uci,omitempty"`
	Id     string `json:"id"`
	White  string `json:"white"`
	Black  string `json:"black"`
	Year   int    `json:"year"`
	Speed  string `json:"speed"`
	Mode   string `json:"mode"`
	Winner string `json:"winner,omitempty"`
}

// Opening is the JSON projection of opening.Opening.
type Opening struct {
	Eco  string `json:"eco"`
	Name string `json:"name"`
}

// ExplorerResponse is the JSON body returned by both /master and /personal.
type ExplorerResponse struct {
	Total        Total    `json:"total"`
	Moves        []Move   `json:"moves"`
	RecentGames  []Game   `json:"recent_games,omitempty"`
	TopGames     []Game   `json:"top_games,omitempty"`
	Opening      *Opening `json:"opening,omitempty"`
}

// Limits bounds response sizes, with the defaults from SPEC_FULL.md §4.5.
type Limits struct {
	Moves       int
	TopGames    int
	RecentGames int
}

// DefaultLimits mirrors the query assembler's defaults.
func DefaultLimits() Limits {
	return Limits{Moves: 12, TopGames: 15, RecentGames: 20}
}

// ErrorKind distinguishes the error shapes SPEC_FULL.md §7 requires callers
// to tell apart.
type ErrorKind string

const (
	ErrorInvalidPosition ErrorKind = "InvalidPosition"
	ErrorRejectedImport  ErrorKind = "RejectedImport"
	ErrorDuplicateGame   ErrorKind = "DuplicateGame"
	ErrorNotFound        ErrorKind = "NotFound"
	ErrorInternal        ErrorKind = "Internal"
)

// Error is the JSON error body and the Go error type the core returns.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewError builds an *Error, the one constructor every core error path
// should use so kinds never drift from the SPEC_FULL.md §7 enumeration.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// HTTPStatus maps an error kind to the status code the HTTP layer serves.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case ErrorInvalidPosition:
		return 400
	case ErrorRejectedImport:
		return 422
	case ErrorDuplicateGame:
		return 409
	case ErrorNotFound:
		return 404
	default:
		return 500
	}
}
