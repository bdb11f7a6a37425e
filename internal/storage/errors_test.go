package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_staff_remote_id"}
	if !isUniqueViolation(unique) {
		t.Fatal("unique violation not recognized")
	}
	if !isUniqueViolation(fmt.Errorf("upsert staff: %w", unique)) {
		t.Fatal("wrapped unique violation not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation misclassified")
	}
	if isUniqueViolation(errors.New("timeout")) {
		t.Fatal("plain error misclassified")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil misclassified")
	}
}

// Two accounts must never hold the same master, even with stale
// selection keyboards; the keyboard filter alone cannot enforce it.
func TestSchemaKeepsMasterClaimsUnique(t *testing.T) {
	found := false
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "UNIQUE INDEX") &&
			strings.Contains(stmt, "staff(yclients_staff_id)") &&
			strings.Contains(stmt, "IS NOT NULL") {
			found = true
		}
	}
	if !found {
		t.Fatal("missing partial unique index on staff(yclients_staff_id)")
	}
}
