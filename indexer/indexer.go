// Package indexer tracks per-player indexing jobs: the collaborator the
// core only observes through a watch channel (SPEC_FULL.md §4.8). It does
// not itself fetch or parse games — that machinery lives outside the core,
// per SPEC_FULL.md §1's explicit non-goal — it only exposes the state
// machine the streaming query head subscribes to.
package indexer

import (
	"sync"

	"github.com/lichess-explorer/openingexplorer/model"
)

// job tracks one in-flight indexing run. done is closed exactly once, the
// Go analogue of a tokio::sync::watch channel transitioning to its final
// value: every subscriber sees the close regardless of when it started
// watching.
type job struct {
	done chan struct{}
}

// Indexer is the shared registry of per-player indexing jobs, queried by
// the streaming query head and by GET /admin/explorer.indexing.
type Indexer struct {
	mu   sync.Mutex
	jobs map[model.UserId]*job
}

// New returns an empty Indexer.
func New() *Indexer {
	return &Indexer{jobs: make(map[model.UserId]*job)}
}

// Start transitions player into Indexing if it isn't already, and returns
// the channel that closes on Done. Calling Start again for a player already
// indexing returns the same channel rather than starting a second run.
func (ix *Indexer) Start(player model.UserId) <-chan struct{} {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if j, ok := ix.jobs[player]; ok {
		return j.done
	}
	j := &job{done: make(chan struct{})}
	ix.jobs[player] = j
	return j.done
}

// Finish transitions player to Done, closing its channel and dropping the
// subscription from the registry.
func (ix *Indexer) Finish(player model.UserId) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	j, ok := ix.jobs[player]
	if !ok {
		return
	}
	close(j.done)
	delete(ix.jobs, player)
}

// InProgress reports whether player currently has an indexing job running.
func (ix *Indexer) InProgress(player model.UserId) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.jobs[player]
	return ok
}

// NumIndexing answers GET /admin/explorer.indexing.
func (ix *Indexer) NumIndexing() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.jobs)
}
