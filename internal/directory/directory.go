// Package directory keeps the client's in-memory copy of the full property
// set. The copy is never edited in place: every Refresh rebuilds it from the
// ledger and swaps it in whole, so stale or duplicate entries cannot survive
// a refresh.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/types"
)

// DefaultFetchConcurrency bounds parallel detail fetches.
const DefaultFetchConcurrency = 8

// Source is the read side of the ledger gateway.
type Source interface {
	ListIDs(ctx context.Context) ([]string, error)
	GetDetails(ctx context.Context, id string) (types.Property, error)
}

// Directory holds the latest property snapshot.
type Directory struct {
	mu        sync.RWMutex
	snapshot  []types.Property
	loaded    bool
	limit     int
	onReplace func([]types.Property)
}

// New creates an empty directory. onReplace, if set, is called with every
// new snapshot after it is installed.
func New(limit int, onReplace func([]types.Property)) *Directory {
	if limit <= 0 {
		limit = DefaultFetchConcurrency
	}
	return &Directory{limit: limit, onReplace: onReplace}
}

// Snapshot returns a copy of the current property set.
func (d *Directory) Snapshot() []types.Property {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return types.CloneAll(d.snapshot)
}

// Loaded reports whether at least one refresh has completed.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Refresh enumerates ids, fetches every record and replaces the snapshot.
//
// Ids whose details come back ErrRecordNotFound vanished between the two
// calls and are dropped. Any other failure aborts the refresh and leaves
// the previous snapshot in place. Callers issue refreshes serially.
func (d *Directory) Refresh(ctx context.Context, src Source) error {
	ids, err := src.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list property ids: %w", err)
	}

	slots := make([]*types.Property, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := src.GetDetails(gctx, id)
			if errors.Is(err, ledger.ErrRecordNotFound) {
				log.Printf("directory: property %s vanished during refresh, dropping", id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("get details for %s: %w", id, err)
			}
			slots[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	next := make([]types.Property, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, p := range slots {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		next = append(next, *p)
	}

	d.mu.Lock()
	d.snapshot = next
	d.loaded = true
	d.mu.Unlock()

	if d.onReplace != nil {
		d.onReplace(types.CloneAll(next))
	}
	return nil
}
