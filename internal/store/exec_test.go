package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"testing"
)

// Scripted database/sql driver: each query pops the next canned result, and
// every executed statement is recorded with its bound arguments.

type scripted struct {
	columns []string
	rows    [][]driver.Value
}

type scriptedConn struct {
	script  []scripted
	queries []string
	args    [][]driver.Value
}

func (c *scriptedConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("transactions not supported")
}

func (c *scriptedConn) QueryContext(ctx context.Context, query string, named []driver.NamedValue) (driver.Rows, error) {
	vals := make([]driver.Value, len(named))
	for i, nv := range named {
		vals[i] = nv.Value
	}
	c.queries = append(c.queries, query)
	c.args = append(c.args, vals)

	if len(c.script) == 0 {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	next := c.script[0]
	c.script = c.script[1:]
	return &scriptedRows{columns: next.columns, rows: next.rows}, nil
}

type scriptedDriver struct {
	conn *scriptedConn
}

func (d *scriptedDriver) Open(name string) (driver.Conn, error) { return d.conn, nil }

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *scriptedRows) Columns() []string { return r.columns }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func newScriptedStore(t *testing.T, conn *scriptedConn) *Store {
	t.Helper()
	name := "scripted-" + t.Name()
	sql.Register(name, &scriptedDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("failed to open scripted db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// One conn keeps every query on the scripted connection.
	db.SetMaxOpenConns(1)
	return New(db, nil)
}

func TestInsertFindOneRoundTrip(t *testing.T) {
	userRow := [][]driver.Value{{int64(7), []byte("zoe@example.com"), []byte("Lusaka")}}
	conn := &scriptedConn{
		script: []scripted{
			{columns: []string{"id", "email", "town"}, rows: userRow},
			{columns: []string{"id", "email", "town"}, rows: userRow},
		},
	}
	s := newScriptedStore(t, conn)

	inserted, err := s.Insert(context.Background(), "users", Row{"email": "zoe@example.com", "town": "Lusaka"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	found, err := s.FindOne(context.Background(), "users", Row{"id": inserted["id"]})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected the inserted row back")
	}
	for _, col := range []string{"id", "email", "town"} {
		if found[col] != inserted[col] {
			t.Errorf("column %s: inserted %v, found %v", col, inserted[col], found[col])
		}
	}
	// Byte slices from the driver come back as plain strings.
	if found["email"] != "zoe@example.com" {
		t.Errorf("expected normalized email string, got %#v", found["email"])
	}

	if len(conn.queries) != 2 {
		t.Fatalf("expected 2 executed statements, got %d", len(conn.queries))
	}
	if got, want := len(conn.args[0]), 2; got != want {
		t.Errorf("insert bound %d args, want %d", got, want)
	}
	if got, want := len(conn.args[1]), 1; got != want {
		t.Errorf("select bound %d args, want %d", got, want)
	}
}

func TestDeleteAbsentRowReturnsEmpty(t *testing.T) {
	conn := &scriptedConn{
		script: []scripted{
			{columns: []string{"id", "email"}, rows: nil},
		},
	}
	s := newScriptedStore(t, conn)

	removed, err := s.Delete(context.Background(), "users", Row{"id": int64(404)})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(removed) != 0 {
		t.Fatalf("expected no removed rows, got %d", len(removed))
	}
	if len(conn.args) != 1 || len(conn.args[0]) != 1 {
		t.Fatalf("expected the id to be bound positionally, got %v", conn.args)
	}
}

func TestEmptyUpdateNeverReachesTheDriver(t *testing.T) {
	conn := &scriptedConn{}
	s := newScriptedStore(t, conn)

	rows, err := s.Update(context.Background(), "users", Row{"id": int64(1)}, Row{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil result for an empty update, got %v", rows)
	}
	if len(conn.queries) != 0 {
		t.Fatalf("empty update sent a statement: %v", conn.queries)
	}
}
