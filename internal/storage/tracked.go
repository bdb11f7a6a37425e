package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mesto-barbershop/notifybot/libs/db"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// TrackedRecord is the last locally observed state of one appointment, used
// to detect reschedules and disappearances between poll cycles.
type TrackedRecord struct {
	RecordID    int64
	ClientPhone string
	StartAt     string // datetime exactly as the booking API sent it
	Services    string
	StaffName   string
	Status      string
	UpdatedAt   time.Time
}

type TrackedRepository struct {
	pool *db.Pool
}

func NewTrackedRepository(pool *db.Pool) *TrackedRepository {
	return &TrackedRepository{pool: pool}
}

func (r *TrackedRepository) Get(ctx context.Context, recordID int64) (TrackedRecord, bool, error) {
	var tr TrackedRecord
	err := r.pool.QueryRow(ctx, `
		SELECT record_id, client_phone, start_at, services, staff_name, status, updated_at
		FROM tracked_records
		WHERE record_id = $1
	`, recordID).Scan(&tr.RecordID, &tr.ClientPhone, &tr.StartAt, &tr.Services, &tr.StaffName, &tr.Status, &tr.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TrackedRecord{}, false, nil
	}
	if err != nil {
		return TrackedRecord{}, false, err
	}
	return tr, true, nil
}

// Upsert writes the latest observed state. Idempotent; every call bumps
// updated_at. The write is synchronous, so a state transition acted upon is
// durable before the reconciler moves on.
func (r *TrackedRepository) Upsert(ctx context.Context, tr TrackedRecord) error {
	status := tr.Status
	if status == "" {
		status = StatusActive
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tracked_records (record_id, client_phone, start_at, services, staff_name, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (record_id) DO UPDATE SET
			client_phone = EXCLUDED.client_phone,
			start_at = EXCLUDED.start_at,
			services = EXCLUDED.services,
			staff_name = EXCLUDED.staff_name,
			status = EXCLUDED.status,
			updated_at = now()
	`, tr.RecordID, tr.ClientPhone, tr.StartAt, tr.Services, tr.StaffName, status)
	return err
}

// ListActive returns record id -> last seen start for every active record,
// the pre-cycle snapshot for disappearance detection.
func (r *TrackedRepository) ListActive(ctx context.Context) (map[int64]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT record_id, start_at FROM tracked_records WHERE status = 'active'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	active := make(map[int64]string)
	for rows.Next() {
		var id int64
		var startAt string
		if err := rows.Scan(&id, &startAt); err != nil {
			return nil, err
		}
		active[id] = startAt
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return active, nil
}

// MarkCancelled flips a record to cancelled. One-way; a no-op when the record
// is absent or already cancelled.
func (r *TrackedRepository) MarkCancelled(ctx context.Context, recordID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tracked_records
		SET status = 'cancelled', updated_at = now()
		WHERE record_id = $1 AND status <> 'cancelled'
	`, recordID)
	return err
}
