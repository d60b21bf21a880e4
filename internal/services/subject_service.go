package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/repository"
)

// SubjectManager handles subjects. A subject has only a name; its links are
// managed from the owning side.
type SubjectManager struct {
	db   database.DBInterface
	repo *repository.SubjectRepository
	log  zerolog.Logger
}

func NewSubjectManager(db database.DBInterface, repo *repository.SubjectRepository, log zerolog.Logger) *SubjectManager {
	return &SubjectManager{db: db, repo: repo, log: log.With().Str("component", "subjects").Logger()}
}

func (m *SubjectManager) ownerName(name string, excludeID int) OwnerName {
	return OwnerName{
		Entity: "subject",
		Name:   name,
		Taken: func(ctx context.Context, q database.Querier) (bool, error) {
			return m.repo.NameTaken(ctx, q, name, excludeID)
		},
	}
}

// Create inserts a subject with a unique name.
func (m *SubjectManager) Create(ctx context.Context, req models.SubjectRequest) (*models.Subject, error) {
	if err := CheckName(ctx, m.db, m.ownerName(req.Name, 0)); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Name:          req.Name,
		Teachers:      []models.SubjectTeacher{},
		StudentGroups: []models.SubjectStudentGroup{},
		Classrooms:    []models.IDRef{},
	}
	if err := m.repo.Create(ctx, m.db, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}

	m.log.Info().Int("subject_id", subject.ID).Str("name", subject.Name).Msg("Subject created")
	return subject, nil
}

func (m *SubjectManager) Get(ctx context.Context, id int) (*models.Subject, error) {
	return m.repo.GetByID(ctx, m.db, id)
}

func (m *SubjectManager) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Subject], error) {
	total, err := m.repo.Count(ctx, m.db)
	if err != nil {
		return nil, fmt.Errorf("count subjects: %w", err)
	}

	items, err := m.repo.List(ctx, m.db, page)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	return &models.ListResponse[models.Subject]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update renames a subject. Renaming to the current name writes nothing.
func (m *SubjectManager) Update(ctx context.Context, id int, req models.SubjectRequest) (*models.Subject, error) {
	if err := CheckName(ctx, m.db, m.ownerName(req.Name, id)); err != nil {
		return nil, err
	}

	var updated *models.Subject
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		current, err := m.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if current.Name == req.Name {
			updated = current
			return nil
		}

		var changes repository.Changes
		changes.Set("name", req.Name)
		if err := m.repo.Update(ctx, tx, id, changes); err != nil {
			return fmt.Errorf("update subject: %w", err)
		}

		current.Name = req.Name
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("subject_id", id).Msg("Subject updated")
	return updated, nil
}

// Delete removes a subject. Its rows in every association table cascade.
func (m *SubjectManager) Delete(ctx context.Context, id int) (*models.Subject, error) {
	var snapshot *models.Subject
	err := database.WithTx(ctx, m.db, func(tx pgx.Tx) error {
		var err error
		if snapshot, err = m.repo.GetByID(ctx, tx, id); err != nil {
			return err
		}
		return m.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Int("subject_id", id).Msg("Subject deleted")
	return snapshot, nil
}
