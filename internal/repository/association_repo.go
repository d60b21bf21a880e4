package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/reconcile"
)

// AssociationStore reads and writes one many-to-many association table keyed by
// (owner, peer). It implements reconcile.Store.
//
// Tables without an hours column (classroom_subjects) read hours as 0 and
// ignore hour updates.
type AssociationStore struct {
	table    string
	ownerCol string
	peerCol  string
	hoursCol string
}

// NewTeacherSubjectStore returns the store for teacher_subjects.
func NewTeacherSubjectStore() *AssociationStore {
	return &AssociationStore{table: "teacher_subjects", ownerCol: "teacher_id", peerCol: "subject_id", hoursCol: "teaching_hours"}
}

// NewStudentGroupSubjectStore returns the store for student_group_subjects.
func NewStudentGroupSubjectStore() *AssociationStore {
	return &AssociationStore{table: "student_group_subjects", ownerCol: "student_group_id", peerCol: "subject_id", hoursCol: "study_hours"}
}

// NewClassroomSubjectStore returns the store for classroom_subjects.
func NewClassroomSubjectStore() *AssociationStore {
	return &AssociationStore{table: "classroom_subjects", ownerCol: "classroom_id", peerCol: "subject_id"}
}

var _ reconcile.Store = (*AssociationStore)(nil)

// InsertMany adds one row per pair in a single multi-row INSERT.
//
// Example:
//
//	INSERT INTO teacher_subjects (teacher_id, subject_id, teaching_hours) VALUES ($1, $2, $3), ($1, $4, $5)
func (s *AssociationStore) InsertMany(ctx context.Context, q database.Querier, ownerID int, pairs []reconcile.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	args := []any{ownerID}
	values := make([]string, len(pairs))
	for i, p := range pairs {
		args = append(args, p.PeerID)
		if s.hoursCol == "" {
			values[i] = fmt.Sprintf("($1, $%d)", len(args))
			continue
		}
		args = append(args, p.Hours)
		values[i] = fmt.Sprintf("($1, $%d, $%d)", len(args)-1, len(args))
	}

	columns := s.ownerCol + ", " + s.peerCol
	if s.hoursCol != "" {
		columns += ", " + s.hoursCol
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, columns, strings.Join(values, ", "))
	_, err := q.Exec(ctx, query, args...)
	return err
}

// UpdateHours sets new hours for existing rows with one CASE statement.
//
// Example:
//
//	UPDATE teacher_subjects SET teaching_hours = CASE subject_id WHEN $2 THEN $3 ELSE teaching_hours END
//	WHERE teacher_id = $1 AND subject_id = ANY($4)
func (s *AssociationStore) UpdateHours(ctx context.Context, q database.Querier, ownerID int, pairs []reconcile.Pair) error {
	if len(pairs) == 0 || s.hoursCol == "" {
		return nil
	}

	args := []any{ownerID}
	ids := make([]int, len(pairs))
	var cases strings.Builder
	for i, p := range pairs {
		args = append(args, p.PeerID, p.Hours)
		fmt.Fprintf(&cases, " WHEN $%d THEN $%d", len(args)-1, len(args))
		ids[i] = p.PeerID
	}
	args = append(args, ids)

	query := fmt.Sprintf(
		"UPDATE %s SET %s = CASE %s%s ELSE %s END WHERE %s = $1 AND %s = ANY($%d)",
		s.table, s.hoursCol, s.peerCol, cases.String(), s.hoursCol, s.ownerCol, s.peerCol, len(args),
	)
	_, err := q.Exec(ctx, query, args...)
	return err
}

// DeleteMany removes the owner's rows for the given peers.
func (s *AssociationStore) DeleteMany(ctx context.Context, q database.Querier, ownerID int, peerIDs []int) error {
	if len(peerIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = ANY($2)", s.table, s.ownerCol, s.peerCol)
	_, err := q.Exec(ctx, query, ownerID, peerIDs)
	return err
}

// ListByOwners loads the associations of several owners in one query,
// keyed by owner id. Pairs are ordered by peer id.
func (s *AssociationStore) ListByOwners(ctx context.Context, q database.Querier, ownerIDs []int) (map[int][]reconcile.Pair, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s",
		s.ownerCol, s.peerCol, s.hoursExpr(), s.table, s.ownerCol, s.ownerCol, s.peerCol,
	)
	return s.collect(ctx, q, query, ownerIDs)
}

// ListByPeers is the reverse view: for each peer id, the owners linked to it.
// In the returned pairs PeerID holds the owner id. Pairs are ordered by owner id.
func (s *AssociationStore) ListByPeers(ctx context.Context, q database.Querier, peerIDs []int) (map[int][]reconcile.Pair, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s",
		s.peerCol, s.ownerCol, s.hoursExpr(), s.table, s.peerCol, s.peerCol, s.ownerCol,
	)
	return s.collect(ctx, q, query, peerIDs)
}

func (s *AssociationStore) collect(ctx context.Context, q database.Querier, query string, keys []int) (map[int][]reconcile.Pair, error) {
	out := make(map[int][]reconcile.Pair, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, query, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key int
		var p reconcile.Pair
		if err := rows.Scan(&key, &p.PeerID, &p.Hours); err != nil {
			return nil, err
		}
		out[key] = append(out[key], p)
	}

	return out, rows.Err()
}

func (s *AssociationStore) hoursExpr() string {
	if s.hoursCol == "" {
		return "0"
	}
	return s.hoursCol
}
