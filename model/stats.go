package model

import "github.com/lichess-explorer/openingexplorer/varint"

// Stats is the result/rating accumulator attached to a single move. Results
// are counted by color (white win, draw, black win); the rating sum is of
// the side that played the move.
type Stats struct {
	WhiteWins   uint64
	Draws       uint64
	BlackWins   uint64
	RatingSum   uint64
	RatingCount uint64
}

// NewResultStats builds a single-game contribution for one ply.
func NewResultStats(winner *Color, rating uint32) Stats {
	s := Stats{RatingSum: uint64(rating), RatingCount: 1}
	switch {
	case winner == nil:
		s.Draws = 1
	case *winner == White:
		s.WhiteWins = 1
	default:
		s.BlackWins = 1
	}
	return s
}

// Total is the number of games this accumulator summarizes.
func (s Stats) Total() uint64 {
	return s.WhiteWins + s.Draws + s.BlackWins
}

// IsSingle reports whether exactly one game contributed to this accumulator,
// which is when a query may attach the single backing game to a move.
func (s Stats) IsSingle() bool {
	return s.Total() == 1
}

// AverageRating returns the mean rating of the contributing samples, or nil
// if no rated sample has been folded in yet.
func (s Stats) AverageRating() *uint64 {
	if s.RatingCount == 0 {
		return nil
	}
	avg := s.RatingSum / s.RatingCount
	return &avg
}

// Add folds other into s in place. Addition of counters is associative and
// commutative, which is the property the merge operators depend on.
func (s *Stats) Add(other Stats) {
	s.WhiteWins += other.WhiteWins
	s.Draws += other.Draws
	s.BlackWins += other.BlackWins
	s.RatingSum += other.RatingSum
	s.RatingCount += other.RatingCount
}

// Encode appends the varint-packed form of s to buf.
func (s Stats) Encode(buf []byte) []byte {
	buf = varint.Append(buf, s.WhiteWins)
	buf = varint.Append(buf, s.Draws)
	buf = varint.Append(buf, s.BlackWins)
	buf = varint.Append(buf, s.RatingSum)
	buf = varint.Append(buf, s.RatingCount)
	return buf
}

// DecodeStats reads a Stats value from the front of buf, returning the
// remaining bytes.
func DecodeStats(buf []byte) (Stats, []byte, error) {
	var s Stats
	var err error
	if s.WhiteWins, buf, err = varint.Take(buf); err != nil {
		return s, nil, err
	}
	if s.Draws, buf, err = varint.Take(buf); err != nil {
		return s, nil, err
	}
	if s.BlackWins, buf, err = varint.Take(buf); err != nil {
		return s, nil, err
	}
	if s.RatingSum, buf, err = varint.Take(buf); err != nil {
		return s, nil, err
	}
	if s.RatingCount, buf, err = varint.Take(buf); err != nil {
		return s, nil, err
	}
	return s, buf, nil
}
