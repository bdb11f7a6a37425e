package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mesto-barbershop/notifybot/internal/phone"
	"github.com/mesto-barbershop/notifybot/libs/db"
)

type Client struct {
	TelegramID int64
	Phone      string
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
}

type ClientsRepository struct {
	pool *db.Pool
}

func NewClientsRepository(pool *db.Pool) *ClientsRepository {
	return &ClientsRepository{pool: pool}
}

// Upsert stores or refreshes a registered client. The phone is normalized
// before persisting so lookups compare canonical forms.
func (r *ClientsRepository) Upsert(ctx context.Context, c Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (telegram_id, phone_number, first_name, last_name, username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username
	`, c.TelegramID, phone.Normalize(c.Phone), c.FirstName, c.LastName, c.Username)
	return err
}

// ResolveByPhone maps a booking-side phone to a registered chat id using the
// 10-digit suffix, tolerating the API's inconsistent formatting. Returns
// (0, false, nil) when nobody matches.
func (r *ClientsRepository) ResolveByPhone(ctx context.Context, rawPhone string) (int64, bool, error) {
	suffix := phone.SuffixKey(rawPhone)
	if suffix == "" {
		return 0, false, nil
	}
	var telegramID int64
	err := r.pool.QueryRow(ctx, `
		SELECT telegram_id FROM clients WHERE phone_number LIKE '%' || $1 LIMIT 1
	`, suffix).Scan(&telegramID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return telegramID, true, nil
}

// PhoneByTelegramID returns the stored phone for a chat, ("", false, nil)
// when the chat never registered.
func (r *ClientsRepository) PhoneByTelegramID(ctx context.Context, telegramID int64) (string, bool, error) {
	var p string
	err := r.pool.QueryRow(ctx, `
		SELECT phone_number FROM clients WHERE telegram_id = $1
	`, telegramID).Scan(&p)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// ListAll returns every registered client, newest first; used by the export tool.
func (r *ClientsRepository) ListAll(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT telegram_id, phone_number, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(username, ''), created_at
		FROM clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.TelegramID, &c.Phone, &c.FirstName, &c.LastName, &c.Username, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clients, nil
}

// Stats returns the total client count and how many registered today.
func (r *ClientsRepository) Stats(ctx context.Context) (total int, today int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE created_at::date = now()::date)
		FROM clients
	`).Scan(&total, &today)
	return total, today, err
}
