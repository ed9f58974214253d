package memstore

import (
	"sort"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

func (st *Store) AddTenant(t models.Tenant) models.Tenant {
	st.mu.Lock()
	defer st.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = st.now()
	}
	st.data.tenants = append(st.data.tenants, t)
	return t
}

func (st *Store) AddProject(p models.Project) models.Project {
	st.mu.Lock()
	defer st.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusDemo
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = st.now()
	}
	st.data.projects = append(st.data.projects, p)
	return p
}

func (st *Store) AddPartner(p models.Partner) models.Partner {
	st.mu.Lock()
	defer st.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	st.data.partners = append(st.data.partners, p)
	return p
}

func (st *Store) AddQuote(q models.Quote) models.Quote {
	st.mu.Lock()
	defer st.mu.Unlock()
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Status == "" {
		q.Status = models.QuoteStatusAccepted
	}
	st.data.quotes = append(st.data.quotes, q)
	return q
}

func (st *Store) AddSession(r SessionRow) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.data.sessions = append(st.data.sessions, r)
}

func (st *Store) AddChallenge(r ChallengeRow) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.data.challenges = append(st.data.challenges, r)
}

func (st *Store) AddNotificationLog(r NotificationLogRow) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.data.notificationLogs = append(st.data.notificationLogs, r)
}

// AddAudit stores an audit row as is, keeping its CreatedAt when set.
func (st *Store) AddAudit(e models.AuditEntry) models.AuditEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = st.now()
	}
	st.data.audits = append(st.data.audits, e)
	return e
}

// AddJobRun stores a ledger row as is. Tests use it to plant stuck RUNNING rows.
func (st *Store) AddJobRun(r models.JobRun) models.JobRun {
	st.mu.Lock()
	defer st.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	st.data.jobRuns = append(st.data.jobRuns, r)
	return r
}

func (st *Store) AddBackup(b models.BackupRecord) models.BackupRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = st.now()
	}
	st.data.backups = append(st.data.backups, b)
	return b
}

func (st *Store) ListJobRuns(tenantID string) []models.JobRun {
	var out []models.JobRun
	st.read(func() {
		for _, r := range st.data.jobRuns {
			if r.TenantID == tenantID {
				out = append(out, r)
			}
		}
	})
	return out
}

func (st *Store) ListCommissions(tenantID string) []models.Commission {
	var out []models.Commission
	st.read(func() {
		for _, c := range st.data.commissions {
			if c.TenantID == tenantID {
				out = append(out, c)
			}
		}
	})
	return out
}

func (st *Store) ListAudits(tenantID string) []models.AuditEntry {
	var out []models.AuditEntry
	st.read(func() {
		for _, e := range st.data.audits {
			if e.TenantID == tenantID {
				out = append(out, e)
			}
		}
	})
	return out
}

func (st *Store) ListEvents(tenantID string) []models.DomainEvent {
	var out []models.DomainEvent
	st.read(func() {
		for _, e := range st.data.events {
			if e.TenantID == tenantID {
				out = append(out, e)
			}
		}
	})
	return out
}

func (st *Store) ListBackups(tenantID string) []models.BackupRecord {
	var out []models.BackupRecord
	st.read(func() {
		for _, b := range st.data.backups {
			if b.TenantID == tenantID {
				out = append(out, b)
			}
		}
	})
	return out
}

func (st *Store) Project(id string) (models.Project, bool) {
	var (
		out   models.Project
		found bool
	)
	st.read(func() {
		for _, p := range st.data.projects {
			if p.ID == id {
				out, found = p, true
			}
		}
	})
	return out, found
}

func (st *Store) Contract(id string) (models.Contract, bool) {
	var (
		out   models.Contract
		found bool
	)
	st.read(func() {
		for _, c := range st.data.contracts {
			if c.ID == id {
				out, found = c, true
			}
		}
	})
	return out, found
}

// Counts reports remaining housekeeping rows for a tenant.
func (st *Store) Counts(tenantID string) (sessions, challenges, notificationLogs int) {
	st.read(func() {
		for _, r := range st.data.sessions {
			if r.TenantID == tenantID {
				sessions++
			}
		}
		for _, r := range st.data.challenges {
			if r.TenantID == tenantID {
				challenges++
			}
		}
		for _, r := range st.data.notificationLogs {
			if r.TenantID == tenantID {
				notificationLogs++
			}
		}
	})
	return sessions, challenges, notificationLogs
}

// Workspaces returns restored row counts per table for every workspace created so far.
func (st *Store) Workspaces() map[string]map[string]int64 {
	out := map[string]map[string]int64{}
	st.read(func() {
		out = st.data.clone().workspaces
	})
	return out
}

func sortByTime[T any](items []T, at func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]) < at(items[j]) })
}
