// Package services provides the business logic layer for the school schedule service.
//
// Managers orchestrate one request each: validate on the pool, then run the
// writes and the final re-read inside a single transaction.
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

// TeacherManager handles teacher lifecycle and teacher_subjects reconciliation.
//
// Dependencies:
//   - database.DBInterface: Pool used for reads and to open transactions
//   - TeacherRepository: Teacher rows and teacher_subjects access
//   - RequestValidator: Pre-write checks on subject ids and names
type TeacherManager struct {
	db         database.DBInterface
	repo       *repository.TeacherRepository
	validator  *RequestValidator
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
}

// NewTeacherManager creates a TeacherManager.
func NewTeacherManager(db database.DBInterface, repo *repository.TeacherRepository, validator *RequestValidator, log zerolog.Logger) *TeacherManager {
	return &TeacherManager{
		db:         db,
		repo:       repo,
		validator:  validator,
		reconciler: reconcile.New(repo.Subjects()),
		log:        log.With().Str("component", "teachers").Logger(),
	}
}

func teacherPairs(subjects []models.TeacherSubjectRequest) []reconcile.Pair {
	pairs := make([]reconcile.Pair, len(subjects))
	for i, s := range subjects {
		pairs[i] = reconcile.Pair{PeerID: s.ID, Hours: s.TeachingHours}
	}
	return pairs
}

func (m *TeacherManager) ownerName(lastName, firstName, patronymic string, excludeID int) OwnerName {
	return OwnerName{
		Entity: "teacher",
		Name:   lastName + " " + firstName + " " + patronymic,
		Taken: func(ctx context.Context, q database.Querier) (bool, error) {
			return m.repo.NameTaken(ctx, q, lastName, firstName, patronymic, excludeID)
		},
	}
}

// Create validates the request, inserts the teacher and its subjects in one
// transaction and returns the stored teacher. New teachers are active.
//
// Returns:
//   - *models.Teacher: Teacher as re-read after insert
//   - error: apperr validation errors before any write, database error otherwise
func (m *TeacherManager) Create(ctx context.Context, req models.TeacherCreateRequest) (*models.Teacher, error) {
	pairs := teacherPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.LastName, req.FirstName, req.Patronymic, 0)); err != nil {
		return nil, err
	}

	var created *models.Teacher
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		teacher := &models.Teacher{
			LastName:   req.LastName,
			FirstName:  req.FirstName,
			Patronymic: req.Patronymic,
			IsActive:   true,
		}
		if err := m.repo.Create(ctx, tx, teacher); err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}

		if err := m.reconciler.ApplyCreate(ctx, tx, teacher.ID, pairs); err != nil {
			return err
		}

		var err error
		created, err = m.repo.GetByID(ctx, tx, teacher.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("teacher_id", created.ID).Int("subjects", len(created.Subjects)).Msg("Teacher created")
	return created, nil
}

// Get returns one teacher with its subjects.
func (m *TeacherManager) Get(ctx context.Context, id int) (*models.Teacher, error) {
	return m.repo.GetByID(ctx, m.db, id)
}

// List returns one page of teachers and the total count.
func (m *TeacherManager) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Teacher], error) {
	total, err := m.repo.Count(ctx, m.db)
	if err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}

	items, err := m.repo.List(ctx, m.db, page)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	return &models.ListResponse[models.Teacher]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update validates the request, then under a row lock writes the changed
// scalar fields and reconciles teacher_subjects against the requested set.
func (m *TeacherManager) Update(ctx context.Context, id int, req models.TeacherUpdateRequest) (*models.Teacher, error) {
	pairs := teacherPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.LastName, req.FirstName, req.Patronymic, id)); err != nil {
		return nil, err
	}

	var (
		updated *models.Teacher
		plan    reconcile.Plan
		changes repository.Changes
	)
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		current, err := m.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if current.LastName != req.LastName {
			changes.Set("last_name", req.LastName)
		}
		if current.FirstName != req.FirstName {
			changes.Set("first_name", req.FirstName)
		}
		if current.Patronymic != req.Patronymic {
			changes.Set("patronymic", req.Patronymic)
		}
		if req.IsActive != nil && current.IsActive != *req.IsActive {
			changes.Set("is_active", *req.IsActive)
		}
		if err := m.repo.Update(ctx, tx, id, changes); err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}

		existing := make(map[int]int, len(current.Subjects))
		for _, s := range current.Subjects {
			existing[s.SubjectID] = s.TeachingHours
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
		Int("teacher_id", id).
		Strs("changed", changes.Columns()).
		Int("removed", len(plan.ToRemove)).
		Int("added", len(plan.ToAdd)).
		Int("updated", len(plan.ToUpdate)).
		Msg("Teacher updated")
	return updated, nil
}

// Delete removes a teacher and returns its state from just before deletion.
func (m *TeacherManager) Delete(ctx context.Context, id int) (*models.Teacher, error) {
	var snapshot *models.Teacher
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

	m.log.Info().Int("teacher_id", id).Msg("Teacher deleted")
	return snapshot, nil
}
