package repository

import (
	"context"
	"fmt"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

var subjectOrderColumns = map[string]bool{"id": true, "name": true}

// SubjectRepository handles subjects, the peer side of every association table.
// Reading a subject also loads the reverse views: which teachers, student groups
// and classrooms reference it.
type SubjectRepository struct {
	teachers      *AssociationStore
	studentGroups *AssociationStore
	classrooms    *AssociationStore
}

// NewSubjectRepository creates a new instance of SubjectRepository.
//
// Parameters:
//   - teachers: Store for teacher_subjects
//   - studentGroups: Store for student_group_subjects
//   - classrooms: Store for classroom_subjects
func NewSubjectRepository(teachers, studentGroups, classrooms *AssociationStore) *SubjectRepository {
	return &SubjectRepository{teachers: teachers, studentGroups: studentGroups, classrooms: classrooms}
}

// ExistingIDs returns which of ids exist in subjects, in no particular order.
//
// Database: single query using ANY($1) membership
func (r *SubjectRepository) ExistingIDs(ctx context.Context, q database.Querier, ids []int) ([]int, error) {
	rows, err := q.Query(ctx, `SELECT id FROM subjects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

// GetByID retrieves a subject with its teacher, student group and classroom links.
func (r *SubjectRepository) GetByID(ctx context.Context, q database.Querier, id int) (*models.Subject, error) {
	var s models.Subject
	err := q.QueryRow(ctx, `SELECT id, name FROM subjects WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, notFound(err, "subject", id)
	}

	subjects := []models.Subject{s}
	if err := r.attachLinks(ctx, q, subjects); err != nil {
		return nil, err
	}
	return &subjects[0], nil
}

// List retrieves one page of subjects with their links.
func (r *SubjectRepository) List(ctx context.Context, q database.Querier, page models.Pagination) ([]models.Subject, error) {
	query := `SELECT id, name FROM subjects ` + orderClause(page, subjectOrderColumns) + ` LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachLinks(ctx, q, subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *SubjectRepository) attachLinks(ctx context.Context, q database.Querier, subjects []models.Subject) error {
	ids := make([]int, len(subjects))
	for i := range subjects {
		ids[i] = subjects[i].ID
	}

	teachers, err := r.teachers.ListByPeers(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load subject teachers: %w", err)
	}
	groups, err := r.studentGroups.ListByPeers(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load subject student groups: %w", err)
	}
	classrooms, err := r.classrooms.ListByPeers(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load subject classrooms: %w", err)
	}

	for i := range subjects {
		s := &subjects[i]
		s.Teachers = []models.SubjectTeacher{}
		for _, p := range teachers[s.ID] {
			s.Teachers = append(s.Teachers, models.SubjectTeacher{TeacherID: p.PeerID, TeachingHours: p.Hours})
		}
		s.StudentGroups = []models.SubjectStudentGroup{}
		for _, p := range groups[s.ID] {
			s.StudentGroups = append(s.StudentGroups, models.SubjectStudentGroup{StudentGroupID: p.PeerID, StudyHours: p.Hours})
		}
		s.Classrooms = []models.IDRef{}
		for _, p := range classrooms[s.ID] {
			s.Classrooms = append(s.Classrooms, models.IDRef{ID: p.PeerID})
		}
	}
	return nil
}

// Count returns the total number of subjects.
func (r *SubjectRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return countRows(ctx, q, "subjects")
}

// Exists reports whether a subject with the id exists.
func (r *SubjectRepository) Exists(ctx context.Context, q database.Querier, id int) (bool, error) {
	return existsByID(ctx, q, "subjects", id)
}

// Create inserts a subject and populates s.ID.
func (r *SubjectRepository) Create(ctx context.Context, q database.Querier, s *models.Subject) error {
	return q.QueryRow(ctx, `INSERT INTO subjects (name) VALUES ($1) RETURNING id`, s.Name).Scan(&s.ID)
}

// Update writes only the given columns.
func (r *SubjectRepository) Update(ctx context.Context, q database.Querier, id int, changes Changes) error {
	return updateColumns(ctx, q, "subjects", "subject", id, changes)
}

// Delete removes a subject. Rows in all three association tables cascade.
func (r *SubjectRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	return deleteByID(ctx, q, "subjects", "subject", id)
}

// NameTaken reports whether another subject already uses name.
func (r *SubjectRepository) NameTaken(ctx context.Context, q database.Querier, name string, excludeID int) (bool, error) {
	return nameTaken(ctx, q, `SELECT id FROM subjects WHERE name = $1`, excludeID, name)
}
