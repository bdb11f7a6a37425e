package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrMasterClaimed is returned when another Telegram account already
// holds the chosen booking-system master.
var ErrMasterClaimed = errors.New("storage: master already claimed")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
