package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mesto-barbershop/notifybot/libs/db"
)

type StaffMember struct {
	TelegramID      int64
	Name            string
	YClientsStaffID int64 // 0 when not linked to the booking system roster
	Phone           string
	Active          bool
}

type StaffRepository struct {
	pool *db.Pool
}

func NewStaffRepository(pool *db.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func (r *StaffRepository) Upsert(ctx context.Context, m StaffMember) error {
	var remoteID *int64
	if m.YClientsStaffID != 0 {
		remoteID = &m.YClientsStaffID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (telegram_id, staff_name, yclients_staff_id, phone_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			staff_name = EXCLUDED.staff_name,
			yclients_staff_id = EXCLUDED.yclients_staff_id,
			phone_number = EXCLUDED.phone_number
	`, m.TelegramID, m.Name, remoteID, m.Phone)
	// telegram_id conflicts are absorbed by the ON CONFLICT clause, so a
	// unique violation here means the master is claimed by someone else.
	if isUniqueViolation(err) {
		return ErrMasterClaimed
	}
	return err
}

// ResolveByRemoteID maps a YClients staff id to the chat of the registered
// master; (0, false, nil) when that master never registered or is inactive.
func (r *StaffRepository) ResolveByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	if remoteID == 0 {
		return 0, false, nil
	}
	var telegramID int64
	err := r.pool.QueryRow(ctx, `
		SELECT telegram_id FROM staff WHERE yclients_staff_id = $1 AND is_active
	`, remoteID).Scan(&telegramID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return telegramID, true, nil
}

// RegisteredRemoteIDs lists YClients ids already claimed by active staff,
// used to hide them from the registration keyboard.
func (r *StaffRepository) RegisteredRemoteIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT yclients_staff_id FROM staff WHERE is_active AND yclients_staff_id IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}
