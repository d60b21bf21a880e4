package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/repository"
	"github.com/unnme/school-schedule/internal/services"
)

var (
	groupRow        = []string{"id", "name", "capacity"}
	groupSubjectRow = []string{"student_group_id", "subject_id", "study_hours"}
)

func intPtr(v int) *int { return &v }

func newStudentGroupManager(mock pgxmock.PgxPoolIface) *services.StudentGroupManager {
	return services.NewStudentGroupManager(
		mock,
		repository.NewStudentGroupRepository(repository.NewStudentGroupSubjectStore()),
		services.NewRequestValidator(newSubjectRepo()),
		zerolog.Nop(),
	)
}

func TestStudentGroupManager_Create(t *testing.T) {
	mock := newMock(t)

	expectSubjectsExist(mock, []int{1}, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM student_groups WHERE name = $1 LIMIT 1")).
		WithArgs("5-А").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_groups").
		WithArgs("5-А", (*int)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("INSERT INTO student_group_subjects").
		WithArgs(2, 1, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM student_groups WHERE id").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(groupRow).AddRow(2, "5-А", (*int)(nil)))
	mock.ExpectQuery("FROM student_group_subjects").
		WithArgs([]int{2}).
		WillReturnRows(pgxmock.NewRows(groupSubjectRow).AddRow(2, 1, 4))
	mock.ExpectCommit()

	group, err := newStudentGroupManager(mock).Create(context.Background(), models.StudentGroupRequest{
		Name:     "5-А",
		Subjects: []models.StudentGroupSubjectRequest{{ID: 1, StudyHours: 4}},
	})

	require.NoError(t, err)
	assert.Nil(t, group.Capacity)
	assert.Equal(t, []models.StudentGroupSubject{{SubjectID: 1, StudyHours: 4}}, group.Subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentGroupManager_Create_NameTaken(t *testing.T) {
	mock := newMock(t)

	expectSubjectsExist(mock, []int{1}, 1)
	mock.ExpectQuery("SELECT id FROM student_groups WHERE name").
		WithArgs("5-А").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(9))

	_, err := newStudentGroupManager(mock).Create(context.Background(), models.StudentGroupRequest{
		Name:     "5-А",
		Subjects: []models.StudentGroupSubjectRequest{{ID: 1}},
	})

	var dup *apperr.DuplicateNameError
	assert.True(t, errors.As(err, &dup))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStudentGroupManager_Update_Capacity covers when capacity is written.
func TestStudentGroupManager_Update_Capacity(t *testing.T) {
	tests := []struct {
		name        string
		current     *int
		requested   *int
		wantWritten bool
	}{
		{"omitted keeps value", intPtr(20), nil, false},
		{"same value skipped", intPtr(20), intPtr(20), false},
		{"changed value written", intPtr(20), intPtr(25), true},
		{"set from null", nil, intPtr(25), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)

			expectSubjectsExist(mock, []int{1}, 1)
			mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM student_groups WHERE name = $1 AND id <> $2 LIMIT 1")).
				WithArgs("5-А", 2).
				WillReturnRows(pgxmock.NewRows([]string{"id"}))
			mock.ExpectBegin()
			mock.ExpectQuery("FOR UPDATE").
				WithArgs(2).
				WillReturnRows(pgxmock.NewRows(groupRow).AddRow(2, "5-А", tt.current))
			mock.ExpectQuery("FROM student_group_subjects").
				WithArgs([]int{2}).
				WillReturnRows(pgxmock.NewRows(groupSubjectRow).AddRow(2, 1, 3))
			if tt.wantWritten {
				mock.ExpectExec(regexp.QuoteMeta("UPDATE student_groups SET capacity = $1 WHERE id = $2")).
					WithArgs(*tt.requested, 2).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			}
			mock.ExpectQuery("FROM student_groups WHERE id").
				WithArgs(2).
				WillReturnRows(pgxmock.NewRows(groupRow).AddRow(2, "5-А", tt.current))
			mock.ExpectQuery("FROM student_group_subjects").
				WithArgs([]int{2}).
				WillReturnRows(pgxmock.NewRows(groupSubjectRow).AddRow(2, 1, 3))
			mock.ExpectCommit()

			_, err := newStudentGroupManager(mock).Update(context.Background(), 2, models.StudentGroupRequest{
				Name:     "5-А",
				Capacity: tt.requested,
				Subjects: []models.StudentGroupSubjectRequest{{ID: 1, StudyHours: 3}},
			})

			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
