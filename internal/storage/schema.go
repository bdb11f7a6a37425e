package storage

import (
	"context"

	"github.com/mesto-barbershop/notifybot/libs/db"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE NOT NULL,
		phone_number TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		username TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_phone ON clients(phone_number)`,
	`CREATE TABLE IF NOT EXISTS tracked_records (
		record_id BIGINT PRIMARY KEY,
		client_phone TEXT NOT NULL DEFAULT '',
		start_at TEXT NOT NULL DEFAULT '',
		services TEXT NOT NULL DEFAULT '',
		staff_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sent_notifications (
		id BIGSERIAL PRIMARY KEY,
		record_id BIGINT NOT NULL,
		kind TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (record_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE NOT NULL,
		staff_name TEXT NOT NULL,
		yclients_staff_id BIGINT,
		phone_number TEXT,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// One Telegram account per master. The keyboard filter alone cannot
	// guarantee this: two users holding stale keyboards can pick the same
	// master, and arrival notices must not go to an arbitrary claimant.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_staff_remote_id
		ON staff(yclients_staff_id) WHERE yclients_staff_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS attendance_notified (
		record_id BIGINT PRIMARY KEY,
		notified_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		traceparent TEXT NOT NULL DEFAULT '',
		tracestate TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ
	)`,
}

// EnsureSchema creates all tables idempotently. There are no migrations; the
// schema only ever grows additively.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
