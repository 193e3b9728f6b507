package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/weftline/weftline/pkg/domain"
)

// wrapPgError maps low-level postgres failures onto domain error kinds.
//
// Lock conflicts and serialization failures mean another operator touched the
// same record first; such callers retry with fresh state. Timeouts and
// connection-level failures surface as store unavailability. In both cases
// the whole transaction has been rolled back; no partial ledger writes.
func wrapPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable,
			pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrConcurrentModification, pgErr.Code)
		case pgerrcode.QueryCanceled,
			pgerrcode.AdminShutdown,
			pgerrcode.CrashShutdown,
			pgerrcode.CannotConnectNow,
			pgerrcode.TooManyConnections:
			return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, pgErr.Code)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	return err
}
