// Package reconcile converts an owner's current association set into a desired
// one using at most three batched statements: one delete, one update and one insert.
//
// The diff is pure set arithmetic over peer ids. Every peer id lands in exactly
// one of to_remove, to_add, to_update or unchanged, so the statements can run in
// any order without tripping the (owner_id, peer_id) primary key.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/unnme/school-schedule/internal/database"
)

// Pair is one association record's payload: a peer id and its hours.
type Pair struct {
	PeerID int
	Hours  int
}

// Plan is the minimal edit from an existing association set to a desired one.
// All slices are sorted by peer id.
type Plan struct {
	ToRemove []int
	ToAdd    []Pair
	ToUpdate []Pair
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.ToRemove) == 0 && len(p.ToAdd) == 0 && len(p.ToUpdate) == 0
}

// Diff computes the plan turning existing into desired. Both maps are keyed by peer id.
func Diff(existing, desired map[int]int) Plan {
	var plan Plan

	for peerID := range existing {
		if _, ok := desired[peerID]; !ok {
			plan.ToRemove = append(plan.ToRemove, peerID)
		}
	}

	for peerID, hours := range desired {
		current, ok := existing[peerID]
		switch {
		case !ok:
			plan.ToAdd = append(plan.ToAdd, Pair{PeerID: peerID, Hours: hours})
		case current != hours:
			plan.ToUpdate = append(plan.ToUpdate, Pair{PeerID: peerID, Hours: hours})
		}
	}

	sort.Ints(plan.ToRemove)
	sortPairs(plan.ToAdd)
	sortPairs(plan.ToUpdate)
	return plan
}

// ToMap indexes pairs by peer id. Callers reject duplicate peer ids beforehand;
// if one slips through the last pair wins.
func ToMap(pairs []Pair) map[int]int {
	m := make(map[int]int, len(pairs))
	for _, p := range pairs {
		m[p.PeerID] = p.Hours
	}
	return m
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].PeerID < pairs[j].PeerID })
}

// Store persists association records for one relationship kind.
// Implementations must issue a single statement per call and do nothing for empty input.
type Store interface {
	InsertMany(ctx context.Context, q database.Querier, ownerID int, pairs []Pair) error
	UpdateHours(ctx context.Context, q database.Querier, ownerID int, pairs []Pair) error
	DeleteMany(ctx context.Context, q database.Querier, ownerID int, peerIDs []int) error
}

// Reconciler applies association edits through a Store.
type Reconciler struct {
	store Store
}

// New creates a Reconciler backed by store.
func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ApplyCreate inserts pairs for an owner that has no associations yet.
func (r *Reconciler) ApplyCreate(ctx context.Context, q database.Querier, ownerID int, pairs []Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	if err := r.store.InsertMany(ctx, q, ownerID, pairs); err != nil {
		return fmt.Errorf("insert associations: %w", err)
	}
	return nil
}

// ApplyUpdate diffs existing against desired and applies the result.
// It returns the plan that was applied.
func (r *Reconciler) ApplyUpdate(ctx context.Context, q database.Querier, ownerID int, existing, desired map[int]int) (Plan, error) {
	plan := Diff(existing, desired)

	if len(plan.ToRemove) > 0 {
		if err := r.store.DeleteMany(ctx, q, ownerID, plan.ToRemove); err != nil {
			return plan, fmt.Errorf("delete associations: %w", err)
		}
	}

	if len(plan.ToUpdate) > 0 {
		if err := r.store.UpdateHours(ctx, q, ownerID, plan.ToUpdate); err != nil {
			return plan, fmt.Errorf("update associations: %w", err)
		}
	}

	if len(plan.ToAdd) > 0 {
		if err := r.store.InsertMany(ctx, q, ownerID, plan.ToAdd); err != nil {
			return plan, fmt.Errorf("insert associations: %w", err)
		}
	}

	return plan, nil
}
