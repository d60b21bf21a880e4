// Package models defines the domain entities and data transfer objects for the
// school schedule service. It includes rows mapped to PostgreSQL tables, request
// DTOs validated by the schema layer, and paginated list views.
package models

import (
	"strings"
	"time"
)

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// Teacher is an owner entity linked to subjects with teaching hours.
//
// Database Table: teachers
// Identity: the (last_name, first_name, patronymic) triple is unique
type Teacher struct {
	ID         int              `json:"id"`
	LastName   string           `json:"last_name"`
	FirstName  string           `json:"first_name"`
	Patronymic string           `json:"patronymic"`
	IsActive   bool             `json:"is_active"`
	Subjects   []TeacherSubject `json:"subjects"`
}

// FullName returns the identifying name, e.g. "Иванов Иван Иванович".
func (t *Teacher) FullName() string {
	return t.LastName + " " + t.FirstName + " " + t.Patronymic
}

// TeacherSubject is one teacher_subjects row seen from the teacher.
type TeacherSubject struct {
	SubjectID     int `json:"id"`
	TeachingHours int `json:"teaching_hours"`
}

// StudentGroup is an owner entity linked to subjects with study hours.
//
// Database Table: student_groups
type StudentGroup struct {
	ID       int                   `json:"id"`
	Name     string                `json:"name"`     // Unique, e.g. "11-Г"
	Capacity *int                  `json:"capacity"` // Optional maximum number of students
	Subjects []StudentGroupSubject `json:"subjects"`
}

// StudentGroupSubject is one student_group_subjects row seen from the group.
type StudentGroupSubject struct {
	SubjectID  int `json:"id"`
	StudyHours int `json:"study_hours"`
}

// Subject is the peer entity referenced by every association table.
//
// Database Table: subjects
// Deleting a subject cascades to teacher_subjects, student_group_subjects and classroom_subjects.
type Subject struct {
	ID            int                   `json:"id"`
	Name          string                `json:"name"`
	Teachers      []SubjectTeacher      `json:"teachers"`
	StudentGroups []SubjectStudentGroup `json:"student_groups"`
	Classrooms    []IDRef               `json:"classrooms"`
}

// SubjectTeacher is one teacher_subjects row seen from the subject.
type SubjectTeacher struct {
	TeacherID     int `json:"teacher_id"`
	TeachingHours int `json:"teaching_hours"`
}

// SubjectStudentGroup is one student_group_subjects row seen from the subject.
type SubjectStudentGroup struct {
	StudentGroupID int `json:"student_group_id"`
	StudyHours     int `json:"study_hours"`
}

// IDRef references another entity by id only.
type IDRef struct {
	ID int `json:"id"`
}

// Classroom is a room subjects can be taught in.
//
// Database Table: classrooms
type Classroom struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Capacity *int    `json:"capacity"`
	Subjects []IDRef `json:"subjects"`
}

// Lesson places a subject, teacher and student group in a classroom at a given
// date, shift and lesson number.
//
// Database Table: lessons
type Lesson struct {
	ID             int       `json:"id"`
	LessonDate     time.Time `json:"-"`
	SchoolShift    int       `json:"school_shift"`
	LessonNumber   int       `json:"lesson_number"`
	ClassroomID    int       `json:"classroom"`
	SubjectID      int       `json:"subject"`
	TeacherID      int       `json:"teacher"`
	StudentGroupID int       `json:"student_group"`
}

// LessonView is the JSON shape of a lesson with its formatted date and weekday.
type LessonView struct {
	Lesson
	Date string `json:"lesson_date"`
	Day  string `json:"lesson_day"`
}

// View formats the lesson for responses.
func (l Lesson) View() LessonView {
	return LessonView{
		Lesson: l,
		Date:   l.LessonDate.Format(DateLayout),
		Day:    strings.ToLower(l.LessonDate.Weekday().String()),
	}
}

// DateLayout is the wire format of lesson dates.
const DateLayout = "2006-01-02"

// User is an administrator account. Only bootstrap is implemented; there is no login flow.
//
// Database Table: users
// Security Note: PasswordHash should never be exposed in API responses or logs
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

// ============================================================================
// Data Transfer Objects (DTOs) - Request Input
// ============================================================================

// TeacherSubjectRequest is one desired (subject, teaching hours) pair.
type TeacherSubjectRequest struct {
	ID            int `json:"id" validate:"required,min=1"`
	TeachingHours int `json:"teaching_hours" validate:"min=0"`
}

// TeacherCreateRequest is the body of POST /teachers.
type TeacherCreateRequest struct {
	LastName   string                  `json:"last_name" validate:"required,min=2,max=30,person_name"`
	FirstName  string                  `json:"first_name" validate:"required,min=2,max=30,person_name"`
	Patronymic string                  `json:"patronymic" validate:"required,min=2,max=30,person_name"`
	Subjects   []TeacherSubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// TeacherUpdateRequest is the body of PUT /teachers/:id.
type TeacherUpdateRequest struct {
	LastName   string                  `json:"last_name" validate:"required,min=2,max=30,person_name"`
	FirstName  string                  `json:"first_name" validate:"required,min=2,max=30,person_name"`
	Patronymic string                  `json:"patronymic" validate:"required,min=2,max=30,person_name"`
	IsActive   *bool                   `json:"is_active" validate:"required"`
	Subjects   []TeacherSubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// StudentGroupSubjectRequest is one desired (subject, study hours) pair.
type StudentGroupSubjectRequest struct {
	ID         int `json:"id" validate:"required,min=1"`
	StudyHours int `json:"study_hours" validate:"min=0"`
}

// StudentGroupRequest is the body of POST /student-groups and PUT /student-groups/:id.
type StudentGroupRequest struct {
	Name     string                       `json:"name" validate:"required,min=2,max=5,group_name"`
	Capacity *int                         `json:"capacity" validate:"omitempty,min=1,max=50"`
	Subjects []StudentGroupSubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// SubjectRequest is the body of POST /subjects and PUT /subjects/:id.
type SubjectRequest struct {
	Name string `json:"name" validate:"required,min=2,max=30,subject_name"`
}

// IDRefRequest references an existing entity by id.
type IDRefRequest struct {
	ID int `json:"id" validate:"required,min=1"`
}

// ClassroomRequest is the body of POST /classrooms and PUT /classrooms/:id.
type ClassroomRequest struct {
	Name     string         `json:"name" validate:"required,min=1,max=5,classroom_name"`
	Capacity *int           `json:"capacity" validate:"omitempty,min=1,max=50"`
	Subjects []IDRefRequest `json:"subjects" validate:"dive"`
}

// LessonRequest is the body of POST /lessons and PUT /lessons/:id.
type LessonRequest struct {
	LessonDate   string `json:"lesson_date" validate:"required,datetime=2006-01-02"`
	SchoolShift  int    `json:"school_shift" validate:"min=1,max=3"`
	LessonNumber int    `json:"lesson_number" validate:"min=0,max=8"`
	Classroom    int    `json:"classroom" validate:"required,min=1"`
	Subject      int    `json:"subject" validate:"required,min=1"`
	Teacher      int    `json:"teacher" validate:"required,min=1"`
	StudentGroup int    `json:"student_group" validate:"required,min=1"`
}

// ============================================================================
// Listing
// ============================================================================

// Pagination selects one page of a listing. Limit's upper bound is configured
// (PAGINATION_LIMIT) and enforced by the HTTP layer.
type Pagination struct {
	Offset  int    `json:"offset" validate:"min=0"`
	Limit   int    `json:"limit" validate:"min=1"`
	OrderBy string `json:"order_by"`
	Desc    bool   `json:"desc"`
}

// ListResponse is one page of entities plus the total row count.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
