package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	// ErrTenantRequired is returned before any query runs without a tenant id.
	ErrTenantRequired = errors.New("tenant id is required")
	// ErrNotFound covers rows that do not exist or belong to another tenant.
	ErrNotFound = errors.New("not found")
)

// Querier is the subset shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Session is a unit of work bound to exactly one tenant. Every repository call
// receives one, so no row is read or written without a tenant in scope.
type Session interface {
	Querier
	TenantID() string
}

// Transactor opens tenant-scoped units of work.
type Transactor interface {
	// WithTenant runs fn inside a transaction scoped to tenantID. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTenant(ctx context.Context, tenantID string, fn func(Session) error) error
}

type Scope struct {
	db *sql.DB
}

func NewScope(db *sql.DB) *Scope {
	return &Scope{db: db}
}

func (s *Scope) WithTenant(ctx context.Context, tenantID string, fn func(Session) error) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ErrTenantRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tenant transaction: %w", err)
	}
	defer tx.Rollback()

	// Row level security policies read this setting; it is scoped to the transaction.
	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID); err != nil {
		return fmt.Errorf("set tenant context: %w", err)
	}

	if err := fn(&tenantSession{Tx: tx, tenantID: tenantID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tenant transaction: %w", err)
	}
	return nil
}

type tenantSession struct {
	*sql.Tx
	tenantID string
}

func (t *tenantSession) TenantID() string {
	return t.tenantID
}

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

// isMissing reports whether a lookup found no row. An id that Postgres cannot
// cast to uuid names no row either.
func isMissing(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == invalidTextRepresentation
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
