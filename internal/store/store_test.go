package store

import (
	"context"
	"strings"
	"testing"
)

func TestBuildSelectBindsEveryFilterValue(t *testing.T) {
	filter := Row{"town": "Lusaka", "status": "available", "mode": "rental"}
	query, args, err := buildSelect("rentals", filter, nil)
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	if len(args) != len(filter) {
		t.Fatalf("expected %d bound args, got %d", len(filter), len(args))
	}
	// No filter value may appear in the query text itself.
	for _, v := range filter {
		if strings.Contains(query, v.(string)) {
			t.Fatalf("filter value %q interpolated into query: %s", v, query)
		}
	}
	for _, placeholder := range []string{"$1", "$2", "$3"} {
		if !strings.Contains(query, placeholder) {
			t.Fatalf("expected placeholder %s in query: %s", placeholder, query)
		}
	}
}

func TestBuildSelectNoFilter(t *testing.T) {
	query, args, err := buildSelect("users", nil, nil)
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %d", len(args))
	}
	if strings.Contains(query, "WHERE") {
		t.Fatalf("expected unrestricted select, got %s", query)
	}
}

func TestBuildSelectProjection(t *testing.T) {
	query, _, err := buildSelect("users", Row{"id": int64(1)}, []string{"id", "email"})
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	if !strings.HasPrefix(query, `SELECT "id", "email" FROM "users"`) {
		t.Fatalf("unexpected projection: %s", query)
	}
}

func TestBuildInsertBindsEveryValue(t *testing.T) {
	data := Row{"email": "a@b.c", "role": "client", "approved": true}
	query, args, err := buildInsert("users", data)
	if err != nil {
		t.Fatalf("buildInsert failed: %v", err)
	}
	if len(args) != len(data) {
		t.Fatalf("expected %d bound args, got %d", len(data), len(args))
	}
	if !strings.Contains(query, "RETURNING *") {
		t.Fatalf("insert must return the persisted row: %s", query)
	}
	if strings.Contains(query, "a@b.c") {
		t.Fatalf("value interpolated into query: %s", query)
	}
}

func TestBuildUpdatePlaceholderOffsets(t *testing.T) {
	query, args, err := buildUpdate("rentals", Row{"id": int64(7)}, Row{"status": "booked"})
	if err != nil {
		t.Fatalf("buildUpdate failed: %v", err)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	// Set values bind first, filter values continue the numbering.
	if !strings.Contains(query, `"status" = $1`) || !strings.Contains(query, `"id" = $2`) {
		t.Fatalf("unexpected placeholder layout: %s", query)
	}
	if args[0] != "booked" || args[1] != int64(7) {
		t.Fatalf("args out of order: %v", args)
	}
}

func TestUpdateEmptyDataIsNoOp(t *testing.T) {
	// No *sql.DB needed: the empty-data short circuit never touches it.
	s := New(nil, nil)
	rows, err := s.Update(context.Background(), "users", Row{"id": int64(1)}, Row{})
	if err != nil {
		t.Fatalf("empty update must not fail: %v", err)
	}
	if rows != nil {
		t.Fatalf("empty update must return nil, got %v", rows)
	}
}

func TestBuildDeleteReturnsRemovedRows(t *testing.T) {
	query, args, err := buildDelete("messages", Row{"id": int64(3)})
	if err != nil {
		t.Fatalf("buildDelete failed: %v", err)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if !strings.HasSuffix(query, "RETURNING *") {
		t.Fatalf("delete must return removed rows: %s", query)
	}
}

func TestQuoteIdentRejectsInjection(t *testing.T) {
	for _, bad := range []string{`users"; DROP TABLE users; --`, "a b", "", `x"y`} {
		if _, err := quoteIdent(bad); err == nil {
			t.Fatalf("expected identifier %q to be rejected", bad)
		}
	}
	if q, err := quoteIdent("owner_id"); err != nil || q != `"owner_id"` {
		t.Fatalf("expected owner_id to quote cleanly, got %q, %v", q, err)
	}
}

func TestBuildWhereDeterministicOrder(t *testing.T) {
	filter := Row{"b": 2, "a": 1, "c": 3}
	clause1, _, _ := buildWhere(filter, 1)
	clause2, _, _ := buildWhere(filter, 1)
	if clause1 != clause2 {
		t.Fatalf("clause order must be deterministic: %q vs %q", clause1, clause2)
	}
	if !strings.Contains(clause1, `"a" = $1`) {
		t.Fatalf("expected sorted column order, got %q", clause1)
	}
}
