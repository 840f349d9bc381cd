package query

import (
	"context"
	"time"

	"github.com/lichess-explorer/openingexplorer/api"
	"github.com/lichess-explorer/openingexplorer/indexer"
)

// StreamPersonal emits a sequence of ExplorerResponse snapshots for a
// personal query while indexing for q.Player is in progress: one
// immediately, then one per tick or on the indexer's done signal, skipping
// any snapshot whose total matches the previous one (SPEC_FULL.md §4.7).
// It returns when ctx is cancelled (client disconnect) or the indexer
// reports done, matching the cancellation semantics in §5: no error is
// ever sent mid-stream, the stream just ends.
func (a *Assembler) StreamPersonal(ctx context.Context, ix *indexer.Indexer, q PersonalQuery, emit func(*api.ExplorerResponse) error) error {
	resp, err := a.Personal(q)
	if err != nil {
		return err
	}
	if err := emit(resp); err != nil {
		return nil
	}
	lastTotal := resp.Total.Total

	done := ix.Start(q.Player)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			resp, err := a.Personal(q)
			if err == nil && resp.Total.Total != lastTotal {
				_ = emit(resp)
			}
			return nil
		case <-ticker.C:
			resp, err := a.Personal(q)
			if err != nil {
				continue
			}
			if resp.Total.Total == lastTotal {
				continue
			}
			lastTotal = resp.Total.Total
			if err := emit(resp); err != nil {
				return nil
			}
		}
	}
}
