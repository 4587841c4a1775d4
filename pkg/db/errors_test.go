package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_transactions_provider_tx"}

	if !IsUniqueViolation(pgErr, "") {
		t.Fatalf("expected bare 23505 to match")
	}
	if !IsUniqueViolation(pgErr, "idx_transactions_provider_tx") {
		t.Fatalf("expected matching constraint to match")
	}
	if IsUniqueViolation(pgErr, "other_constraint") {
		t.Fatalf("mismatched constraint should not match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatalf("foreign key violation should not match")
	}

	sqliteErr := errors.New("UNIQUE constraint failed: transactions.provider, transactions.provider_transaction_id")
	if !IsUniqueViolation(sqliteErr, "") {
		t.Fatalf("expected sqlite message fallback to match")
	}

	if IsUniqueViolation(nil, "") {
		t.Fatalf("nil error should not match")
	}
}
