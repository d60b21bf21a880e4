package repository

import (
	"context"
	"fmt"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

var studentGroupOrderColumns = map[string]bool{"id": true, "name": true, "capacity": true}

// StudentGroupRepository handles student_groups rows and their
// student_group_subjects associations.
type StudentGroupRepository struct {
	subjects *AssociationStore
}

// NewStudentGroupRepository creates a new instance of StudentGroupRepository.
func NewStudentGroupRepository(subjects *AssociationStore) *StudentGroupRepository {
	return &StudentGroupRepository{subjects: subjects}
}

// Subjects returns the student_group_subjects store.
func (r *StudentGroupRepository) Subjects() *AssociationStore {
	return r.subjects
}

// GetByID retrieves a student group with its subjects.
// Returns *apperr.NotFoundError if the id doesn't exist.
func (r *StudentGroupRepository) GetByID(ctx context.Context, q database.Querier, id int) (*models.StudentGroup, error) {
	return r.get(ctx, q, id, "")
}

// GetByIDForUpdate is GetByID with a row lock held until the transaction ends.
func (r *StudentGroupRepository) GetByIDForUpdate(ctx context.Context, q database.Querier, id int) (*models.StudentGroup, error) {
	return r.get(ctx, q, id, " FOR UPDATE")
}

func (r *StudentGroupRepository) get(ctx context.Context, q database.Querier, id int, lock string) (*models.StudentGroup, error) {
	query := `SELECT id, name, capacity FROM student_groups WHERE id = $1` + lock

	var g models.StudentGroup
	if err := q.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Capacity); err != nil {
		return nil, notFound(err, "student group", id)
	}

	groups := []models.StudentGroup{g}
	if err := r.attachSubjects(ctx, q, groups); err != nil {
		return nil, err
	}
	return &groups[0], nil
}

// List retrieves one page of student groups with their subjects.
func (r *StudentGroupRepository) List(ctx context.Context, q database.Querier, page models.Pagination) ([]models.StudentGroup, error) {
	query := `SELECT id, name, capacity FROM student_groups ` +
		orderClause(page, studentGroupOrderColumns) + ` LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.StudentGroup{}
	for rows.Next() {
		var g models.StudentGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Capacity); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSubjects(ctx, q, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *StudentGroupRepository) attachSubjects(ctx context.Context, q database.Querier, groups []models.StudentGroup) error {
	ids := make([]int, len(groups))
	for i := range groups {
		ids[i] = groups[i].ID
	}

	byOwner, err := r.subjects.ListByOwners(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load student group subjects: %w", err)
	}

	for i := range groups {
		groups[i].Subjects = []models.StudentGroupSubject{}
		for _, p := range byOwner[groups[i].ID] {
			groups[i].Subjects = append(groups[i].Subjects, models.StudentGroupSubject{SubjectID: p.PeerID, StudyHours: p.Hours})
		}
	}
	return nil
}

// Count returns the total number of student groups.
func (r *StudentGroupRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return countRows(ctx, q, "student_groups")
}

// Exists reports whether a student group with the id exists.
func (r *StudentGroupRepository) Exists(ctx context.Context, q database.Querier, id int) (bool, error) {
	return existsByID(ctx, q, "student_groups", id)
}

// Create inserts the group's scalar fields and populates g.ID.
func (r *StudentGroupRepository) Create(ctx context.Context, q database.Querier, g *models.StudentGroup) error {
	query := `INSERT INTO student_groups (name, capacity) VALUES ($1, $2) RETURNING id`
	return q.QueryRow(ctx, query, g.Name, g.Capacity).Scan(&g.ID)
}

// Update writes only the given columns.
func (r *StudentGroupRepository) Update(ctx context.Context, q database.Querier, id int, changes Changes) error {
	return updateColumns(ctx, q, "student_groups", "student group", id, changes)
}

// Delete removes a student group; student_group_subjects rows cascade.
func (r *StudentGroupRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	return deleteByID(ctx, q, "student_groups", "student group", id)
}

// NameTaken reports whether another student group already uses name.
func (r *StudentGroupRepository) NameTaken(ctx context.Context, q database.Querier, name string, excludeID int) (bool, error) {
	return nameTaken(ctx, q, `SELECT id FROM student_groups WHERE name = $1`, excludeID, name)
}
