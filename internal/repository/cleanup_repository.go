package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// NotificationLogTerminalStatuses are delivery states that will never change again.
var NotificationLogTerminalStatuses = []string{"SENT", "DELIVERED", "FAILED", "BOUNCED"}

// CleanupRepository deletes expired housekeeping rows. Every method returns the
// number of rows removed.
type CleanupRepository interface {
	DeleteExpiredSessions(ctx context.Context, s Session, now time.Time) (int64, error)
	DeleteExpiredChallenges(ctx context.Context, s Session, now time.Time) (int64, error)
	DeleteNotificationLogs(ctx context.Context, s Session, olderThan time.Time) (int64, error)
}

type cleanupRepository struct{}

func NewCleanupRepository() CleanupRepository {
	return &cleanupRepository{}
}

func (r *cleanupRepository) DeleteExpiredSessions(ctx context.Context, s Session, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE tenant_id = $1 AND expires_at < $2`
	return execCount(ctx, s, "delete expired sessions", query, s.TenantID(), now)
}

func (r *cleanupRepository) DeleteExpiredChallenges(ctx context.Context, s Session, now time.Time) (int64, error) {
	const query = `
		DELETE FROM otp_challenges
		WHERE tenant_id = $1 AND expires_at < $2 AND verified_at IS NULL
	`
	return execCount(ctx, s, "delete expired otp challenges", query, s.TenantID(), now)
}

func (r *cleanupRepository) DeleteNotificationLogs(ctx context.Context, s Session, olderThan time.Time) (int64, error) {
	const query = `
		DELETE FROM notification_logs
		WHERE tenant_id = $1 AND created_at < $2 AND status = ANY($3)
	`
	return execCount(ctx, s, "delete notification logs", query, s.TenantID(), olderThan, pq.Array(NotificationLogTerminalStatuses))
}

func execCount(ctx context.Context, s Session, op, query string, args ...interface{}) (int64, error) {
	res, err := s.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected()
}
