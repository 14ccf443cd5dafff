package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	excl := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: "23P01"})
	if !IsExclusionViolation(excl) {
		t.Fatal("expected wrapped 23P01 to be an exclusion violation")
	}
	if IsForeignKeyViolation(excl) {
		t.Fatal("23P01 is not a foreign key violation")
	}
	if IsExclusionViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation misread as exclusion")
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected foreign key violation")
	}
	if !IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatal("expected no rows")
	}
}
