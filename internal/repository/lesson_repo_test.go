package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/repository"
)

var lessonRowColumns = []string{
	"id", "lesson_date", "school_shift", "lesson_number", "classroom_id", "subject_id", "teacher_id", "student_group_id",
}

func TestLessonRepository_CreateAndGet(t *testing.T) {
	date := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO lessons").
		WithArgs(date, 1, 2, 5, 6, 7, 8).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("FROM lessons WHERE id").
		WithArgs(11).
		WillReturnRows(pgxmock.NewRows(lessonRowColumns).AddRow(11, date, 1, 2, 5, 6, 7, 8))

	repo := repository.NewLessonRepository()
	lesson := &models.Lesson{
		LessonDate: date, SchoolShift: 1, LessonNumber: 2,
		ClassroomID: 5, SubjectID: 6, TeacherID: 7, StudentGroupID: 8,
	}
	require.NoError(t, repo.Create(context.Background(), mock, lesson))
	assert.Equal(t, 11, lesson.ID)

	got, err := repo.GetByID(context.Background(), mock, 11)
	require.NoError(t, err)
	assert.Equal(t, *lesson, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_Update(t *testing.T) {
	date := time.Date(2024, time.September, 3, 0, 0, 0, 0, time.UTC)
	mock := newMock(t)

	mock.ExpectExec(exact("UPDATE lessons SET lesson_date = $1, school_shift = $2, lesson_number = $3, classroom_id = $4, subject_id = $5, teacher_id = $6, student_group_id = $7 WHERE id = $8")).
		WithArgs(date, 2, 0, 5, 6, 7, 8, 11).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repository.NewLessonRepository().Update(context.Background(), mock, &models.Lesson{
		ID: 11, LessonDate: date, SchoolShift: 2, LessonNumber: 0,
		ClassroomID: 5, SubjectID: 6, TeacherID: 7, StudentGroupID: 8,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
