package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/repository"
)

type existenceChecker interface {
	Exists(ctx context.Context, q database.Querier, id int) (bool, error)
}

// LessonManager handles scheduled lessons. Every referenced classroom, subject,
// teacher and student group must exist.
type LessonManager struct {
	db         database.DBInterface
	repo       *repository.LessonRepository
	classrooms existenceChecker
	subjects   existenceChecker
	teachers   existenceChecker
	groups     existenceChecker
	log        zerolog.Logger
}

// NewLessonManager creates a LessonManager.
func NewLessonManager(
	db database.DBInterface,
	repo *repository.LessonRepository,
	classrooms *repository.ClassroomRepository,
	subjects *repository.SubjectRepository,
	teachers *repository.TeacherRepository,
	groups *repository.StudentGroupRepository,
	log zerolog.Logger,
) *LessonManager {
	return &LessonManager{
		db:         db,
		repo:       repo,
		classrooms: classrooms,
		subjects:   subjects,
		teachers:   teachers,
		groups:     groups,
		log:        log.With().Str("component", "lessons").Logger(),
	}
}

func (m *LessonManager) build(ctx context.Context, req models.LessonRequest) (*models.Lesson, error) {
	date, err := time.Parse(models.DateLayout, req.LessonDate)
	if err != nil {
		return nil, apperr.NewValidationError("lesson_date", "must be a date in YYYY-MM-DD format")
	}

	refs := []struct {
		peer    string
		id      int
		checker existenceChecker
	}{
		{"classroom", req.Classroom, m.classrooms},
		{"subject", req.Subject, m.subjects},
		{"teacher", req.Teacher, m.teachers},
		{"student group", req.StudentGroup, m.groups},
	}
	for _, ref := range refs {
		ok, err := ref.checker.Exists(ctx, m.db, ref.id)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", ref.peer, err)
		}
		if !ok {
			return nil, &apperr.InvalidPeerError{Peer: ref.peer, IDs: []int{ref.id}}
		}
	}

	return &models.Lesson{
		LessonDate:     date,
		SchoolShift:    req.SchoolShift,
		LessonNumber:   req.LessonNumber,
		ClassroomID:    req.Classroom,
		SubjectID:      req.Subject,
		TeacherID:      req.Teacher,
		StudentGroupID: req.StudentGroup,
	}, nil
}

// Create schedules a lesson.
func (m *LessonManager) Create(ctx context.Context, req models.LessonRequest) (*models.Lesson, error) {
	lesson, err := m.build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := m.repo.Create(ctx, m.db, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	m.log.Info().Int("lesson_id", lesson.ID).Msg("Lesson created")
	return lesson, nil
}

func (m *LessonManager) Get(ctx context.Context, id int) (*models.Lesson, error) {
	return m.repo.GetByID(ctx, m.db, id)
}

func (m *LessonManager) List(ctx context.Context, page models.Pagination) (*models.ListResponse[models.Lesson], error) {
	total, err := m.repo.Count(ctx, m.db)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	items, err := m.repo.List(ctx, m.db, page)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	return &models.ListResponse[models.Lesson]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update replaces every field of a lesson.
func (m *LessonManager) Update(ctx context.Context, id int, req models.LessonRequest) (*models.Lesson, error) {
	lesson, err := m.build(ctx, req)
	if err != nil {
		return nil, err
	}

	lesson.ID = id
	if err := m.repo.Update(ctx, m.db, lesson); err != nil {
		return nil, err
	}

	m.log.Info().Int("lesson_id", id).Msg("Lesson updated")
	return lesson, nil
}

// Delete removes a lesson and returns its prior state.
func (m *LessonManager) Delete(ctx context.Context, id int) (*models.Lesson, error) {
	lesson, err := m.repo.GetByID(ctx, m.db, id)
	if err != nil {
		return nil, err
	}

	if err := m.repo.Delete(ctx, m.db, id); err != nil {
		return nil, err
	}

	m.log.Info().Int("lesson_id", id).Msg("Lesson deleted")
	return lesson, nil
}
