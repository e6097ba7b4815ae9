package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

// mapError folds lock and serialization failures into the domain conflict
// error so callers see a retryable kind instead of a driver error.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrentModification, err)
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrentModification, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
