package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/projectquota/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}
	serialization := &pgconn.PgError{Code: "40001"}
	lockTimeout := &pgconn.PgError{Code: "55P03"}
	syntax := &pgconn.PgError{Code: "42601"}

	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
		fk        bool
		transient bool
	}{
		{name: "nil", err: nil},
		{name: "no rows", err: fmt.Errorf("query: %w", pgx.ErrNoRows), notFound: true},
		{name: "unique violation", err: fmt.Errorf("insert: %w", unique), duplicate: true},
		{name: "foreign key violation", err: fk, fk: true},
		{name: "serialization failure", err: serialization, transient: true},
		{name: "lock timeout", err: errors.Join(errors.New("lock"), lockTimeout), transient: true},
		{name: "syntax error", err: syntax},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.notFound, pg.IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, pg.IsDuplicateKeyError(tt.err))
			assert.Equal(t, tt.fk, pg.IsForeignKeyViolationError(tt.err))
			assert.Equal(t, tt.transient, pg.IsTransientError(tt.err))
		})
	}
}
