// Package memstore keeps every repository in process memory. It honours the same
// tenant scoping, uniqueness and rollback rules as the Postgres repositories and is
// used to exercise services and jobs without a database.
package memstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

// SessionRow is a login session with an expiry.
type SessionRow struct {
	TenantID  string
	ExpiresAt time.Time
}

// ChallengeRow is a one-time passcode challenge.
type ChallengeRow struct {
	TenantID  string
	ExpiresAt time.Time
	Verified  bool
}

// NotificationLogRow is one delivery attempt of an outbound notification.
type NotificationLogRow struct {
	TenantID  string
	Status    string
	CreatedAt time.Time
}

type state struct {
	tenants          []models.Tenant
	jobRuns          []models.JobRun
	quotes           []models.Quote
	contracts        []models.Contract
	handovers        []models.Handover
	commissions      []models.Commission
	projects         []models.Project
	partners         []models.Partner
	audits           []models.AuditEntry
	events           []models.DomainEvent
	backups          []models.BackupRecord
	sessions         []SessionRow
	challenges       []ChallengeRow
	notificationLogs []NotificationLogRow
	workspaces       map[string]map[string]int64
}

func (s state) clone() state {
	c := state{
		tenants:          append([]models.Tenant(nil), s.tenants...),
		jobRuns:          append([]models.JobRun(nil), s.jobRuns...),
		quotes:           append([]models.Quote(nil), s.quotes...),
		contracts:        append([]models.Contract(nil), s.contracts...),
		handovers:        append([]models.Handover(nil), s.handovers...),
		commissions:      append([]models.Commission(nil), s.commissions...),
		projects:         append([]models.Project(nil), s.projects...),
		partners:         append([]models.Partner(nil), s.partners...),
		audits:           append([]models.AuditEntry(nil), s.audits...),
		events:           append([]models.DomainEvent(nil), s.events...),
		backups:          append([]models.BackupRecord(nil), s.backups...),
		sessions:         append([]SessionRow(nil), s.sessions...),
		challenges:       append([]ChallengeRow(nil), s.challenges...),
		notificationLogs: append([]NotificationLogRow(nil), s.notificationLogs...),
		workspaces:       make(map[string]map[string]int64, len(s.workspaces)),
	}
	for name, tables := range s.workspaces {
		copied := make(map[string]int64, len(tables))
		for t, n := range tables {
			copied[t] = n
		}
		c.workspaces[name] = copied
	}
	return c
}

// Store is an in-memory Transactor plus every repository. Transactions are
// serialized; a failed transaction restores the state it started from.
type Store struct {
	mu     sync.Mutex
	data   state
	now    func() time.Time
	faults map[string]error
}

func New() *Store {
	return &Store{
		data:   state{workspaces: map[string]map[string]int64{}},
		now:    func() time.Time { return time.Now().UTC() },
		faults: map[string]error{},
	}
}

// SetClock replaces the clock used for created_at columns.
func (st *Store) SetClock(now func() time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.now = now
}

// InjectFault makes the named operation fail with err until cleared with a nil err.
// Operation names are "<table>.<verb>", for example "audit.insert" or "commissions.create".
func (st *Store) InjectFault(op string, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err == nil {
		delete(st.faults, op)
		return
	}
	st.faults[op] = err
}

func (st *Store) fault(op string) error {
	return st.faults[op]
}

func (st *Store) WithTenant(ctx context.Context, tenantID string, fn func(repository.Session) error) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return repository.ErrTenantRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	snapshot := st.data.clone()
	if err := fn(&session{tenantID: tenantID}); err != nil {
		st.data = snapshot
		return err
	}
	return nil
}

// session carries only the tenant. Raw SQL is not available on in-memory sessions.
type session struct {
	repository.Querier
	tenantID string
}

func (s *session) TenantID() string {
	return s.tenantID
}

var errForeignSession = errors.New("memstore: session does not belong to this store")

func tenantOf(s repository.Session) (string, error) {
	if s == nil {
		return "", repository.ErrTenantRequired
	}
	if _, ok := s.(*session); !ok {
		return "", errForeignSession
	}
	if s.TenantID() == "" {
		return "", repository.ErrTenantRequired
	}
	return s.TenantID(), nil
}

func newID() string {
	return uuid.NewString()
}

// read runs fn under the store lock outside of any transaction.
func (st *Store) read(fn func()) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn()
}
