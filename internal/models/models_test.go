// Package models_test provides unit tests for data model structures.
// Tests cover derived fields and the JSON shapes returned by the API
// without requiring database connections or external dependencies.
package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnme/school-schedule/internal/models"
)

// TestTeacherFullName verifies the identifying name is "last first patronymic".
func TestTeacherFullName(t *testing.T) {
	teacher := models.Teacher{
		LastName:   "Иванов",
		FirstName:  "Иван",
		Patronymic: "Иванович",
	}

	assert.Equal(t, "Иванов Иван Иванович", teacher.FullName())
}

// TestTeacherJSON verifies association rows are rendered as {id, teaching_hours}.
func TestTeacherJSON(t *testing.T) {
	teacher := models.Teacher{
		ID:         1,
		LastName:   "Петрова",
		FirstName:  "Анна",
		Patronymic: "Сергеевна",
		IsActive:   true,
		Subjects:   []models.TeacherSubject{{SubjectID: 3, TeachingHours: 12}},
	}

	data, err := json.Marshal(teacher)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 1,
		"last_name": "Петрова",
		"first_name": "Анна",
		"patronymic": "Сергеевна",
		"is_active": true,
		"subjects": [{"id": 3, "teaching_hours": 12}]
	}`, string(data))
}

// TestUserJSON_HidesPasswordHash ensures the hash never leaves the service.
func TestUserJSON_HidesPasswordHash(t *testing.T) {
	user := models.User{ID: 1, Email: "admin@example.com", PasswordHash: "$2a$10$secret"}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "secret")
}

func TestLessonView(t *testing.T) {
	lesson := models.Lesson{
		ID:             4,
		LessonDate:     time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC),
		SchoolShift:    1,
		LessonNumber:   2,
		ClassroomID:    5,
		SubjectID:      6,
		TeacherID:      7,
		StudentGroupID: 8,
	}

	data, err := json.Marshal(lesson.View())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 4,
		"lesson_date": "2024-09-02",
		"lesson_day": "monday",
		"school_shift": 1,
		"lesson_number": 2,
		"classroom": 5,
		"subject": 6,
		"teacher": 7,
		"student_group": 8
	}`, string(data))
}

func TestListResponseJSON(t *testing.T) {
	page := models.ListResponse[models.Subject]{
		Items:  []models.Subject{{ID: 1, Name: "Алгебра"}},
		Total:  10,
		Limit:  1,
		Offset: 0,
	}

	data, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(10), decoded["total"])
	assert.Len(t, decoded["items"], 1)
}
