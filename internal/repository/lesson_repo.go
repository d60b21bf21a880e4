package repository

import (
	"context"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

const lessonColumns = `id, lesson_date, school_shift, lesson_number, classroom_id, subject_id, teacher_id, student_group_id`

var lessonOrderColumns = map[string]bool{
	"id": true, "lesson_date": true, "school_shift": true, "lesson_number": true,
}

// LessonRepository handles scheduled lessons.
type LessonRepository struct{}

// NewLessonRepository creates a new instance of LessonRepository.
func NewLessonRepository() *LessonRepository {
	return &LessonRepository{}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner, l *models.Lesson) error {
	return row.Scan(&l.ID, &l.LessonDate, &l.SchoolShift, &l.LessonNumber,
		&l.ClassroomID, &l.SubjectID, &l.TeacherID, &l.StudentGroupID)
}

// GetByID retrieves one lesson.
// Returns *apperr.NotFoundError if the id doesn't exist.
func (r *LessonRepository) GetByID(ctx context.Context, q database.Querier, id int) (*models.Lesson, error) {
	var l models.Lesson
	if err := scanLesson(q.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id), &l); err != nil {
		return nil, notFound(err, "lesson", id)
	}
	return &l, nil
}

// List retrieves one page of lessons.
func (r *LessonRepository) List(ctx context.Context, q database.Querier, page models.Pagination) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons ` + orderClause(page, lessonOrderColumns) + ` LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		var l models.Lesson
		if err := scanLesson(rows, &l); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Count returns the total number of lessons.
func (r *LessonRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return countRows(ctx, q, "lessons")
}

// Create inserts a lesson and populates l.ID.
func (r *LessonRepository) Create(ctx context.Context, q database.Querier, l *models.Lesson) error {
	query := `
		INSERT INTO lessons (lesson_date, school_shift, lesson_number, classroom_id, subject_id, teacher_id, student_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return q.QueryRow(ctx, query, l.LessonDate, l.SchoolShift, l.LessonNumber,
		l.ClassroomID, l.SubjectID, l.TeacherID, l.StudentGroupID).Scan(&l.ID)
}

// Update replaces every column of the lesson with id l.ID.
func (r *LessonRepository) Update(ctx context.Context, q database.Querier, l *models.Lesson) error {
	var c Changes
	c.Set("lesson_date", l.LessonDate)
	c.Set("school_shift", l.SchoolShift)
	c.Set("lesson_number", l.LessonNumber)
	c.Set("classroom_id", l.ClassroomID)
	c.Set("subject_id", l.SubjectID)
	c.Set("teacher_id", l.TeacherID)
	c.Set("student_group_id", l.StudentGroupID)
	return updateColumns(ctx, q, "lessons", "lesson", l.ID, c)
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	return deleteByID(ctx, q, "lessons", "lesson", id)
}
