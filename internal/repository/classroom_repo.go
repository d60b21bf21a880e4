package repository

import (
	"context"
	"fmt"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

var classroomOrderColumns = map[string]bool{"id": true, "name": true, "capacity": true}

// ClassroomRepository handles classrooms and the subjects taught in them.
type ClassroomRepository struct {
	subjects *AssociationStore
}

// NewClassroomRepository creates a new instance of ClassroomRepository.
func NewClassroomRepository(subjects *AssociationStore) *ClassroomRepository {
	return &ClassroomRepository{subjects: subjects}
}

// Subjects returns the classroom_subjects store.
func (r *ClassroomRepository) Subjects() *AssociationStore {
	return r.subjects
}

func (r *ClassroomRepository) GetByID(ctx context.Context, q database.Querier, id int) (*models.Classroom, error) {
	return r.get(ctx, q, id, "")
}

func (r *ClassroomRepository) GetByIDForUpdate(ctx context.Context, q database.Querier, id int) (*models.Classroom, error) {
	return r.get(ctx, q, id, " FOR UPDATE")
}

func (r *ClassroomRepository) get(ctx context.Context, q database.Querier, id int, lock string) (*models.Classroom, error) {
	query := `SELECT id, name, capacity FROM classrooms WHERE id = $1` + lock

	var c models.Classroom
	if err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Capacity); err != nil {
		return nil, notFound(err, "classroom", id)
	}

	classrooms := []models.Classroom{c}
	if err := r.attachSubjects(ctx, q, classrooms); err != nil {
		return nil, err
	}
	return &classrooms[0], nil
}

func (r *ClassroomRepository) List(ctx context.Context, q database.Querier, page models.Pagination) ([]models.Classroom, error) {
	query := `SELECT id, name, capacity FROM classrooms ` +
		orderClause(page, classroomOrderColumns) + ` LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classrooms := []models.Classroom{}
	for rows.Next() {
		var c models.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Capacity); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSubjects(ctx, q, classrooms); err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *ClassroomRepository) attachSubjects(ctx context.Context, q database.Querier, classrooms []models.Classroom) error {
	ids := make([]int, len(classrooms))
	for i := range classrooms {
		ids[i] = classrooms[i].ID
	}

	byOwner, err := r.subjects.ListByOwners(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load classroom subjects: %w", err)
	}

	for i := range classrooms {
		classrooms[i].Subjects = []models.IDRef{}
		for _, p := range byOwner[classrooms[i].ID] {
			classrooms[i].Subjects = append(classrooms[i].Subjects, models.IDRef{ID: p.PeerID})
		}
	}
	return nil
}

func (r *ClassroomRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return countRows(ctx, q, "classrooms")
}

func (r *ClassroomRepository) Exists(ctx context.Context, q database.Querier, id int) (bool, error) {
	return existsByID(ctx, q, "classrooms", id)
}

func (r *ClassroomRepository) Create(ctx context.Context, q database.Querier, c *models.Classroom) error {
	query := `INSERT INTO classrooms (name, capacity) VALUES ($1, $2) RETURNING id`
	return q.QueryRow(ctx, query, c.Name, c.Capacity).Scan(&c.ID)
}

func (r *ClassroomRepository) Update(ctx context.Context, q database.Querier, id int, changes Changes) error {
	return updateColumns(ctx, q, "classrooms", "classroom", id, changes)
}

func (r *ClassroomRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	return deleteByID(ctx, q, "classrooms", "classroom", id)
}

func (r *ClassroomRepository) NameTaken(ctx context.Context, q database.Querier, name string, excludeID int) (bool, error) {
	return nameTaken(ctx, q, `SELECT id FROM classrooms WHERE name = $1`, excludeID, name)
}
