package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/reconcile"
	"github.com/unnme/school-schedule/internal/repository"
)

// OwnerName describes the uniqueness check for an owner's identifying name.
type OwnerName struct {
	Entity string // e.g. "teacher", used in the error message
	Name   string
	Taken  func(ctx context.Context, q database.Querier) (bool, error)
}

// RequestValidator runs the checks that must pass before a create or update
// touches any table: no duplicate subject ids, every subject id exists, and the
// owner's name is free. It only reads.
type RequestValidator struct {
	subjects *repository.SubjectRepository
}

// NewRequestValidator creates a validator that resolves subject ids through subjects.
func NewRequestValidator(subjects *repository.SubjectRepository) *RequestValidator {
	return &RequestValidator{subjects: subjects}
}

// Validate fails with *apperr.DuplicatePeerError, *apperr.InvalidPeerError or
// *apperr.DuplicateNameError, in that order of precedence.
func (v *RequestValidator) Validate(ctx context.Context, q database.Querier, pairs []reconcile.Pair, owner OwnerName) error {
	if err := v.CheckPeers(ctx, q, pairs); err != nil {
		return err
	}
	return CheckName(ctx, q, owner)
}

// CheckPeers rejects duplicate and unknown subject ids.
func (v *RequestValidator) CheckPeers(ctx context.Context, q database.Querier, pairs []reconcile.Pair) error {
	counts := make(map[int]int, len(pairs))
	for _, p := range pairs {
		counts[p.PeerID]++
	}

	var duplicates []int
	ids := make([]int, 0, len(counts))
	for id, n := range counts {
		ids = append(ids, id)
		if n > 1 {
			duplicates = append(duplicates, id)
		}
	}
	if len(duplicates) > 0 {
		sort.Ints(duplicates)
		return &apperr.DuplicatePeerError{Peer: "subject", IDs: duplicates}
	}

	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	found, err := v.subjects.ExistingIDs(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("check subject ids: %w", err)
	}

	exists := make(map[int]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}

	var missing []int
	for _, id := range ids {
		if !exists[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &apperr.InvalidPeerError{Peer: "subject", IDs: missing}
	}
	return nil
}

// CheckName fails with *apperr.DuplicateNameError if owner.Taken reports a match.
func CheckName(ctx context.Context, q database.Querier, owner OwnerName) error {
	taken, err := owner.Taken(ctx, q)
	if err != nil {
		return fmt.Errorf("check %s name: %w", owner.Entity, err)
	}
	if taken {
		return &apperr.DuplicateNameError{Entity: owner.Entity, Name: owner.Name}
	}
	return nil
}
