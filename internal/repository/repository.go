// Package repository implements the database access layer for the school schedule service.
//
// Repositories hold no connection. Every method takes a database.Querier so the
// caller decides whether it runs on the pool or inside a transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/models"
)

// Changes collects column assignments for a partial UPDATE.
// Columns are written in the order they were set.
type Changes struct {
	columns []string
	values  []any
}

// Set assigns value to column.
func (c *Changes) Set(column string, value any) {
	c.columns = append(c.columns, column)
	c.values = append(c.values, value)
}

// Empty reports whether no column was set.
func (c Changes) Empty() bool {
	return len(c.columns) == 0
}

// Columns returns the assigned column names.
func (c Changes) Columns() []string {
	return c.columns
}

// updateColumns writes changes to the row with the given id. An empty change
// set issues no statement.
func updateColumns(ctx context.Context, q database.Querier, table, entity string, id int, c Changes) error {
	if c.Empty() {
		return nil
	}

	sets := make([]string, len(c.columns))
	for i, col := range c.columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(c.columns)+1)
	args := append(append([]any(nil), c.values...), id)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

// deleteByID removes one row. Association rows go with it through ON DELETE CASCADE.
func deleteByID(ctx context.Context, q database.Querier, table, entity string, id int) error {
	tag, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func countRows(ctx context.Context, q database.Querier, table string) (int, error) {
	var total int
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&total)
	return total, err
}

func existsByID(ctx context.Context, q database.Querier, table string, id int) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table), id).Scan(&exists)
	return exists, err
}

// nameTaken runs a lookup query whose WHERE clause is already bound to args and
// reports whether a row other than excludeID matches. excludeID 0 excludes nothing.
func nameTaken(ctx context.Context, q database.Querier, query string, excludeID int, args ...any) (bool, error) {
	if excludeID != 0 {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " LIMIT 1"

	var id int
	err := q.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// orderClause renders ORDER BY for a listing. Unknown columns fall back to id.
func orderClause(page models.Pagination, allowed map[string]bool) string {
	column := "id"
	if allowed[page.OrderBy] {
		column = page.OrderBy
	}

	direction := "ASC"
	if page.Desc {
		direction = "DESC"
	}

	if column == "id" {
		return fmt.Sprintf("ORDER BY id %s", direction)
	}
	return fmt.Sprintf("ORDER BY %s %s, id", column, direction)
}

func notFound(err error, entity string, id int) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
