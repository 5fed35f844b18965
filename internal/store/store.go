// Package store is a table-agnostic accessor over database/sql. It turns a
// table name and a flat equality filter into parameterized SQL, so no caller
// ever concatenates values into query text.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Row is a flat column -> value map used for filters, insert data, update
// data, and result rows.
type Row map[string]any

// Store executes generated statements against a connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a store bound to an existing pool.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// quoteIdent validates and quotes a SQL identifier. Filter keys and table
// names come from code, not user input, but the check keeps a programming
// mistake from ever becoming string-interpolated SQL.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// sortedKeys gives the statement builders a deterministic column order.
func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildWhere renders an equality-AND clause with positional placeholders
// starting at startIndex. An empty filter yields an empty clause.
func buildWhere(filter Row, startIndex int) (clause string, args []any, err error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filter))
	args = make([]any, 0, len(filter))
	idx := startIndex
	for _, k := range sortedKeys(filter) {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, filter[k])
		idx++
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

func buildSelect(table string, filter Row, columns []string) (string, []any, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, 0, len(columns))
		for _, c := range columns {
			col, err := quoteIdent(c)
			if err != nil {
				return "", nil, err
			}
			quoted = append(quoted, col)
		}
		projection = strings.Join(quoted, ", ")
	}
	clause, args, err := buildWhere(filter, 1)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", projection, tbl)
	if clause != "" {
		query += " " + clause
	}
	return query, args, nil
}

func buildInsert(table string, data Row) (string, []any, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", tbl), nil, nil
	}
	cols := make([]string, 0, len(data))
	placeholders := make([]string, 0, len(data))
	args := make([]any, 0, len(data))
	for i, k := range sortedKeys(data) {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, data[k])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		tbl, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}

func buildUpdate(table string, filter, data Row) (string, []any, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	setParts := make([]string, 0, len(data))
	args := make([]any, 0, len(data)+len(filter))
	for i, k := range sortedKeys(data) {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, data[k])
	}
	clause, whereArgs, err := buildWhere(filter, len(data)+1)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s", tbl, strings.Join(setParts, ", "))
	if clause != "" {
		query += " " + clause
	}
	query += " RETURNING *"
	return query, append(args, whereArgs...), nil
}

func buildDelete(table string, filter Row) (string, []any, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	clause, args, err := buildWhere(filter, 1)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("DELETE FROM %s", tbl)
	if clause != "" {
		query += " " + clause
	}
	query += " RETURNING *"
	return query, args, nil
}

// FindOne returns the first row matching the filter, or nil if none match.
// An empty filter selects the whole table; the caller owns that decision.
func (s *Store) FindOne(ctx context.Context, table string, filter Row) (Row, error) {
	rows, err := s.FindBy(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindBy returns all rows matching the filter, optionally projecting columns.
func (s *Store) FindBy(ctx context.Context, table string, filter Row, columns ...string) ([]Row, error) {
	query, args, err := buildSelect(table, filter, columns)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, query, args...)
}

// Insert stores one row and returns it as persisted.
func (s *Store) Insert(ctx context.Context, table string, data Row) (Row, error) {
	query, args, err := buildInsert(table, data)
	if err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no row", table)
	}
	return rows[0], nil
}

// Update modifies matching rows and returns them. Empty data is a nil no-op;
// the statement is never sent.
func (s *Store) Update(ctx context.Context, table string, filter, data Row) ([]Row, error) {
	if len(data) == 0 {
		return nil, nil
	}
	query, args, err := buildUpdate(table, filter, data)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, query, args...)
}

// Delete removes matching rows and returns them. Deleting nothing returns an
// empty result, not an error.
func (s *Store) Delete(ctx context.Context, table string, filter Row) ([]Row, error) {
	query, args, err := buildDelete(table, filter)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, query, args...)
}

// Query is the escape hatch for the handful of non-equality statements
// (radius search, recent messages, counts). Arguments are always positional.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryValue runs a single-row single-column query, e.g. a COUNT.
func (s *Store) QueryValue(ctx context.Context, query string, args ...any) (any, error) {
	var value any
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return normalize(value), nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := Row{}
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalize converts driver byte slices to strings so callers see plain Go
// values.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
