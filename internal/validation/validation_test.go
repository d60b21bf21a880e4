package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/models"
)

func validTeacher() models.TeacherCreateRequest {
	return models.TeacherCreateRequest{
		LastName:   "Иванов",
		FirstName:  "Иван",
		Patronymic: "Иванович",
		Subjects:   []models.TeacherSubjectRequest{{ID: 1, TeachingHours: 10}},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)

	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStruct_ValidTeacher(t *testing.T) {
	assert.NoError(t, New().Struct(validTeacher()))
}

func TestStruct_TeacherErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.TeacherCreateRequest)
		field  string
	}{
		{"latin name", func(r *models.TeacherCreateRequest) { r.LastName = "Ivanov" }, "last_name"},
		{"lowercase name", func(r *models.TeacherCreateRequest) { r.FirstName = "иван" }, "first_name"},
		{"too short", func(r *models.TeacherCreateRequest) { r.Patronymic = "И" }, "patronymic"},
		{"missing subjects", func(r *models.TeacherCreateRequest) { r.Subjects = nil }, "subjects"},
		{"empty subjects", func(r *models.TeacherCreateRequest) { r.Subjects = []models.TeacherSubjectRequest{} }, "subjects"},
		{"zero subject id", func(r *models.TeacherCreateRequest) { r.Subjects[0].ID = 0 }, "subjects[0].id"},
		{"negative hours", func(r *models.TeacherCreateRequest) { r.Subjects[0].TeachingHours = -1 }, "subjects[0].teaching_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTeacher()
			tt.mutate(&req)

			fields := fieldsOf(t, New().Struct(req))
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestStruct_HyphenatedNameAccepted(t *testing.T) {
	req := validTeacher()
	req.LastName = "Римская-Корсакова"

	assert.NoError(t, New().Struct(req))
}

func TestStruct_UpdateRequiresIsActive(t *testing.T) {
	req := models.TeacherUpdateRequest{
		LastName:   "Иванов",
		FirstName:  "Иван",
		Patronymic: "Иванович",
		Subjects:   []models.TeacherSubjectRequest{{ID: 1}},
	}

	fields := fieldsOf(t, New().Struct(req))
	assert.Equal(t, "is required", fields["is_active"])

	active := false
	req.IsActive = &active
	assert.NoError(t, New().Struct(req))
}

func TestStruct_StudentGroup(t *testing.T) {
	capacity := 51
	tests := []struct {
		name    string
		req     models.StudentGroupRequest
		wantErr string
	}{
		{"valid", models.StudentGroupRequest{Name: "11-Г", Subjects: []models.StudentGroupSubjectRequest{{ID: 1, StudyHours: 3}}}, ""},
		{"grade 12", models.StudentGroupRequest{Name: "12-А", Subjects: []models.StudentGroupSubjectRequest{{ID: 1}}}, "name"},
		{"latin letter", models.StudentGroupRequest{Name: "5-A", Subjects: []models.StudentGroupSubjectRequest{{ID: 1}}}, "name"},
		{"capacity too big", models.StudentGroupRequest{Name: "5-А", Capacity: &capacity, Subjects: []models.StudentGroupSubjectRequest{{ID: 1}}}, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldsOf(t, err), tt.wantErr)
		})
	}
}

func TestStruct_SubjectNames(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"Алгебра", true},
		{"Русский язык", true},
		{"ИЗО", true},
		{"ОБЖ-ПДД", true},
		{"алгебра", false},
		{"Algebra", false},
		{"А", false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(models.SubjectRequest{Name: tt.name})
			assert.Equal(t, tt.valid, err == nil, "err: %v", err)
		})
	}
}

func TestStruct_ClassroomNames(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"1", true},
		{"204", true},
		{"204-а", true},
		{"1000", true},
		{"0", false},
		{"1001", false},
		{"204-А", false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(models.ClassroomRequest{Name: tt.name})
			assert.Equal(t, tt.valid, err == nil, "err: %v", err)
		})
	}
}

func TestStruct_LessonBounds(t *testing.T) {
	req := models.LessonRequest{
		LessonDate:   "2024-09-02",
		SchoolShift:  4,
		LessonNumber: 9,
		Classroom:    1,
		Subject:      1,
		Teacher:      1,
		StudentGroup: 1,
	}

	fields := fieldsOf(t, New().Struct(req))
	assert.Contains(t, fields, "school_shift")
	assert.Contains(t, fields, "lesson_number")

	req.SchoolShift, req.LessonNumber = 1, 0
	assert.NoError(t, New().Struct(req))

	req.LessonDate = "02.09.2024"
	assert.Equal(t, "must be a date in YYYY-MM-DD format", fieldsOf(t, New().Struct(req))["lesson_date"])
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Str0ngPass", false},
		{"", true},
		{"Sh0rt", true},
		{"nouppercase1", true},
		{"NOLOWERCASE1", true},
		{"NoDigitsHere", true},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		assert.Equal(t, tt.wantErr, err != nil, "password %q", tt.password)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Алгебра", SanitizeString("  Алгеб\x00ра\x7F "))
}
