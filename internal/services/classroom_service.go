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

// ClassroomManager handles classrooms. Their subject links carry no hours, so
// reconciliation only ever adds and removes rows.
type ClassroomManager struct {
	db         database.DBInterface
	repo       *repository.ClassroomRepository
	validator  *RequestValidator
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
}

func NewClassroomManager(db database.DBInterface, repo *repository.ClassroomRepository, validator *RequestValidator, log zerolog.Logger) *ClassroomManager {
	return &ClassroomManager{
		db:         db,
		repo:       repo,
		validator:  validator,
		reconciler: reconcile.New(repo.Subjects()),
		log:        log.With().Str("component", "classrooms").Logger(),
	}
}

func classroomPairs(subjects []models.IDRefRequest) []reconcile.Pair {
	pairs := make([]reconcile.Pair, len(subjects))
	for i, s := range subjects {
		pairs[i] = reconcile.Pair{PeerID: s.ID}
	}
	return pairs
}

func (m *ClassroomManager) ownerName(name string, excludeID int) OwnerName {
	return OwnerName{
		Entity: "classroom",
		Name:   name,
		Taken: func(ctx context.Context, q database.Querier) (bool, error) {
			return m.repo.NameTaken(ctx, q, name, excludeID)
		},
	}
}

func (m *ClassroomManager) Create(ctx context.Context, req models.ClassroomRequest) (*models.Classroom, error) {
	pairs := classroomPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.Name, 0)); err != nil {
		return nil, err
	}

	var created *models.Classroom
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		classroom := &models.Classroom{Name: req.Name, Capacity: req.Capacity}
		if err := m.repo.Create(ctx, tx, classroom); err != nil {
			return fmt.Errorf("create classroom: %w", err)
		}

		if err := m.reconciler.ApplyCreate(ctx, tx, classroom.ID, pairs); err != nil {
			return err
		}

		var err error
		created, err = m.repo.GetByID(ctx, tx, classroom.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("classroom_id", created.ID).Str("name", created.Name).Msg("Classroom created")
	return created, nil
}

func (m *ClassroomManager) Get(ctx context.Context, id int) (*models.Classroom, error) {
	return m.repo.GetByID(ctx, m.db, id)
}

func (m *ClassroomManager) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Classroom], error) {
	total, err := m.repo.Count(ctx, m.db)
	if err != nil {
		return nil, fmt.Errorf("count classrooms: %w", err)
	}

	items, err := m.repo.List(ctx, m.db, page)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}

	return &models.ListResponse[models.Classroom]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (m *ClassroomManager) Update(ctx context.Context, id int, req models.ClassroomRequest) (*models.Classroom, error) {
	pairs := classroomPairs(req.Subjects)

	if err := m.validator.Validate(ctx, m.db, pairs, m.ownerName(req.Name, id)); err != nil {
		return nil, err
	}

	var updated *models.Classroom
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
			return fmt.Errorf("update classroom: %w", err)
		}

		existing := make(map[int]int, len(current.Subjects))
		for _, s := range current.Subjects {
			existing[s.ID] = 0
		}
		if _, err := m.reconciler.ApplyUpdate(ctx, tx, id, existing, reconcile.ToMap(pairs)); err != nil {
			return err
		}

		updated, err = m.repo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("classroom_id", id).Msg("Classroom updated")
	return updated, nil
}

func (m *ClassroomManager) Delete(ctx context.Context, id int) (*models.Classroom, error) {
	var snapshot *models.Classroom
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

	m.log.Info().Int("classroom_id", id).Msg("Classroom deleted")
	return snapshot, nil
}
