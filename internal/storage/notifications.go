package storage

import (
	"context"

	"github.com/mesto-barbershop/notifybot/libs/db"
)

// Notification kinds. A reschedule kind is parameterized by the new start
// time so each distinct target gets its own dedup key.
const (
	KindNew        = "new"
	KindReminder24 = "reminder_24h"
	KindCancelled  = "cancelled"
)

func KindChanged(newStart string) string {
	return "changed_" + newStart
}

// NotificationsRepository is the dedup ledger: a (record_id, kind) row means
// "already sent, never resend". Rows are never deleted.
type NotificationsRepository struct {
	pool *db.Pool
}

func NewNotificationsRepository(pool *db.Pool) *NotificationsRepository {
	return &NotificationsRepository{pool: pool}
}

func (r *NotificationsRepository) Sent(ctx context.Context, recordID int64, kind string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM sent_notifications WHERE record_id = $1 AND kind = $2)
	`, recordID, kind).Scan(&exists)
	return exists, err
}

// MarkSent records a delivery. Idempotent under repeated calls.
func (r *NotificationsRepository) MarkSent(ctx context.Context, recordID int64, kind string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sent_notifications (record_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (record_id, kind) DO NOTHING
	`, recordID, kind)
	return err
}

// Arrival dedup is keyed by record id alone: there is a single arrival event
// per appointment.

func (r *NotificationsRepository) ArrivalNotified(ctx context.Context, recordID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance_notified WHERE record_id = $1)
	`, recordID).Scan(&exists)
	return exists, err
}

func (r *NotificationsRepository) MarkArrival(ctx context.Context, recordID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_notified (record_id)
		VALUES ($1)
		ON CONFLICT (record_id) DO NOTHING
	`, recordID)
	return err
}
