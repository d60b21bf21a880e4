package repository

import (
	"context"
	"fmt"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

const teacherColumns = `id, last_name, first_name, patronymic, is_active`

var teacherOrderColumns = map[string]bool{
	"id": true, "last_name": true, "first_name": true, "patronymic": true, "is_active": true,
}

// TeacherRepository handles teacher rows and their teacher_subjects associations.
type TeacherRepository struct {
	subjects *AssociationStore
}

// NewTeacherRepository creates a new instance of TeacherRepository.
//
// Parameters:
//   - subjects: Store for the teacher_subjects table
//
// Returns:
//   - *TeacherRepository: Initialized repository instance
func NewTeacherRepository(subjects *AssociationStore) *TeacherRepository {
	return &TeacherRepository{subjects: subjects}
}

// Subjects returns the teacher_subjects store.
func (r *TeacherRepository) Subjects() *AssociationStore {
	return r.subjects
}

// GetByID retrieves a teacher with its subjects.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - q: Pool or transaction to run on
//   - id: Teacher's primary key
//
// Returns:
//   - *models.Teacher: Teacher with Subjects ordered by subject id
//   - error: *apperr.NotFoundError if the id doesn't exist, database error otherwise
func (r *TeacherRepository) GetByID(ctx context.Context, q database.Querier, id int) (*models.Teacher, error) {
	return r.get(ctx, q, id, "")
}

// GetByIDForUpdate is GetByID with a row lock held until the transaction ends.
// Concurrent updates of the same teacher are serialized on this lock.
func (r *TeacherRepository) GetByIDForUpdate(ctx context.Context, q database.Querier, id int) (*models.Teacher, error) {
	return r.get(ctx, q, id, " FOR UPDATE")
}

func (r *TeacherRepository) get(ctx context.Context, q database.Querier, id int, lock string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1` + lock

	var t models.Teacher
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.LastName, &t.FirstName, &t.Patronymic, &t.IsActive)
	if err != nil {
		return nil, notFound(err, "teacher", id)
	}

	teachers := []models.Teacher{t}
	if err := r.attachSubjects(ctx, q, teachers); err != nil {
		return nil, err
	}
	return &teachers[0], nil
}

// List retrieves one page of teachers with their subjects.
// Associations for the whole page are loaded with a single query.
func (r *TeacherRepository) List(ctx context.Context, q database.Querier, page models.Pagination) ([]models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers ` +
		orderClause(page, teacherOrderColumns) + ` LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := []models.Teacher{}
	for rows.Next() {
		var t models.Teacher
		if err := rows.Scan(&t.ID, &t.LastName, &t.FirstName, &t.Patronymic, &t.IsActive); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSubjects(ctx, q, teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (r *TeacherRepository) attachSubjects(ctx context.Context, q database.Querier, teachers []models.Teacher) error {
	ids := make([]int, len(teachers))
	for i := range teachers {
		ids[i] = teachers[i].ID
	}

	byOwner, err := r.subjects.ListByOwners(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load teacher subjects: %w", err)
	}

	for i := range teachers {
		teachers[i].Subjects = []models.TeacherSubject{}
		for _, p := range byOwner[teachers[i].ID] {
			teachers[i].Subjects = append(teachers[i].Subjects, models.TeacherSubject{SubjectID: p.PeerID, TeachingHours: p.Hours})
		}
	}
	return nil
}

// Count returns the total number of teachers.
func (r *TeacherRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return countRows(ctx, q, "teachers")
}

// Exists reports whether a teacher with the id exists.
func (r *TeacherRepository) Exists(ctx context.Context, q database.Querier, id int) (bool, error) {
	return existsByID(ctx, q, "teachers", id)
}

// Create inserts the teacher's scalar fields.
//
// Side Effects: Populates t.ID with the generated key
func (r *TeacherRepository) Create(ctx context.Context, q database.Querier, t *models.Teacher) error {
	query := `
		INSERT INTO teachers (last_name, first_name, patronymic, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return q.QueryRow(ctx, query, t.LastName, t.FirstName, t.Patronymic, t.IsActive).Scan(&t.ID)
}

// Update writes only the given columns. An empty change set is a no-op.
func (r *TeacherRepository) Update(ctx context.Context, q database.Querier, id int, changes Changes) error {
	return updateColumns(ctx, q, "teachers", "teacher", id, changes)
}

// Delete removes a teacher; teacher_subjects rows cascade.
func (r *TeacherRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	return deleteByID(ctx, q, "teachers", "teacher", id)
}

// NameTaken reports whether another teacher already has the full name.
// excludeID skips the teacher being updated; pass 0 on create.
func (r *TeacherRepository) NameTaken(ctx context.Context, q database.Querier, lastName, firstName, patronymic string, excludeID int) (bool, error) {
	query := `SELECT id FROM teachers WHERE last_name = $1 AND first_name = $2 AND patronymic = $3`
	return nameTaken(ctx, q, query, excludeID, lastName, firstName, patronymic)
}
