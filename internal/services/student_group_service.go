package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/reconcile"
	"github.com/unnme/school-schedule/internal/repository"
)

// StudentGroupManager handles student groups and student_group_subjects reconciliation.
type StudentGroupManager struct {
	db         database.DBInterface
	repo       *repository.StudentGroupRepository
	validator  *RequestValidator
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
}

// NewStudentGroupManager creates a StudentGroupManager.
func NewStudentGroupManager(db database.DBInterface, repo *repository.StudentGroupRepository, validator *RequestValidator, log zerolog.Logger) *StudentGroupManager {
	return &StudentGroupManager{
		db:         db,
		repo:       repo,
		validator:  validator,
		reconciler: reconcile.New(repo.Subjects()),
		log:        log.With().Str("component", "student_groups").Logger(),
	}
}

func studentGroupPairs(subjects []models.StudentGroupSubjectRequest) []reconcile.Pair {
	pairs := make([]reconcile.Pair, len(subjects))
	for i, s := range subjects {
		pairs[i] = reconcile.Pair{PeerID: s.ID, Hours: s.StudyHours}
	}
	return pairs
}

func (m *StudentGroupManager) ownerName(name string, excludeID int) OwnerName {
	return OwnerName{
		Entity: "student group",
		Name:   name,
		Taken: func(ctx context.Context, q database.Querier) (bool, error) {
			return m.repo.NameTaken(ctx, q, name, excludeID)
		},
	}
}

// Create validates the request and inserts the group with its subjects atomically.
func (m *StudentGroupManager) Create(ctx context.Context, req models.StudentGroupRequest) (*models.StudentGroup, error) {
	pairs := studentGroupPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.Name, 0)); err != nil {
		return nil, err
	}

	var created *models.StudentGroup
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		group := &models.StudentGroup{Name: req.Name, Capacity: req.Capacity}
		if err := m.repo.Create(ctx, tx, group); err != nil {
			return fmt.Errorf("create student group: %w", err)
		}

		if err := m.reconciler.ApplyCreate(ctx, tx, group.ID, pairs); err != nil {
			return err
		}

		var err error
		created, err = m.repo.GetByID(ctx, tx, group.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("student_group_id", created.ID).Str("name", created.Name).Msg("Student group created")
	return created, nil
}

// Get returns one student group with its subjects.
func (m *StudentGroupManager) Get(ctx context.Context, id int) (*models.StudentGroup, error) {
	return m.repo.GetByID(ctx, m.db, id)
}

// List returns one page of student groups and the total count.
func (m *StudentGroupManager) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.StudentGroup], error) {
	total, err := m.repo.Count(ctx, m.db)
	if err != nil {
		return nil, fmt.Errorf("count student groups: %w", err)
	}

	items, err := m.repo.List(ctx, m.db, page)
	if err != nil {
		return nil, fmt.Errorf("list student groups: %w", err)
	}

	return &models.ListResponse[models.StudentGroup]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update renames the group, changes its capacity when one is supplied and
// reconciles its subjects. A missing capacity keeps the stored value.
func (m *StudentGroupManager) Update(ctx context.Context, id int, req models.StudentGroupRequest) (*models.StudentGroup, error) {
	pairs := studentGroupPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.Name, id)); err != nil {
		return nil, err
	}

	var (
		updated *models.StudentGroup
		plan    reconcile.Plan
	)
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		current, err := m.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		var changes repository.Changes
		if current.Name != req.Name {
			changes.Set("name", req.Name)
		}
		if req.Capacity != nil && (current.Capacity == nil || *current.Capacity != *req.Capacity) {
			changes.Set("capacity", *req.Capacity)
		}
		if err := m.repo.Update(ctx, tx, id, changes); err != nil {
			return fmt.Errorf("update student group: %w", err)
		}

		existing := make(map[int]int, len(current.Subjects))
		for _, s := range current.Subjects {
			existing[s.SubjectID] = s.StudyHours
		}
		plan, err = m.reconciler.ApplyUpdate(ctx, tx, id, existing, reconcile.ToMap(pairs))
		if err != nil {
			return err
		}

		updated, err = m.repo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Int("student_group_id", id).
		Int("removed", len(plan.ToRemove)).
		Int("added", len(plan.ToAdd)).
		Int("updated", len(plan.ToUpdate)).
		Msg("Student group updated")
	return updated, nil
}

// Delete removes a student group and returns its prior state.
func (m *StudentGroupManager) Delete(ctx context.Context, id int) (*models.StudentGroup, error) {
	var snapshot *models.StudentGroup
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		var err error
		if snapshot, err = m.repo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		return m.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("student_group_id", id).Msg("Student group deleted")
	return snapshot, nil
}
