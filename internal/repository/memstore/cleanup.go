package memstore

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type cleanupRepo struct{ st *Store }

func (st *Store) Cleanup() repository.CleanupRepository { return cleanupRepo{st} }

func (r cleanupRepo) DeleteExpiredSessions(ctx context.Context, s repository.Session, now time.Time) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	if err := r.st.fault("sessions.delete"); err != nil {
		return 0, err
	}
	var (
		n    int64
		kept []SessionRow
	)
	for _, row := range r.st.data.sessions {
		if row.TenantID == tenantID && row.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.st.data.sessions = kept
	return n, nil
}

func (r cleanupRepo) DeleteExpiredChallenges(ctx context.Context, s repository.Session, now time.Time) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	var (
		n    int64
		kept []ChallengeRow
	)
	for _, row := range r.st.data.challenges {
		if row.TenantID == tenantID && row.ExpiresAt.Before(now) && !row.Verified {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.st.data.challenges = kept
	return n, nil
}

func (r cleanupRepo) DeleteNotificationLogs(ctx context.Context, s repository.Session, olderThan time.Time) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	terminal := map[string]bool{}
	for _, status := range repository.NotificationLogTerminalStatuses {
		terminal[status] = true
	}
	var (
		n    int64
		kept []NotificationLogRow
	)
	for _, row := range r.st.data.notificationLogs {
		if row.TenantID == tenantID && row.CreatedAt.Before(olderThan) && terminal[row.Status] {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.st.data.notificationLogs = kept
	return n, nil
}
