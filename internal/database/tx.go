package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers that mean "another transaction got in the way".
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// ErrTxConflict is returned when a transaction kept hitting lock
// conflicts and the retry budget ran out.
var ErrTxConflict = errors.New("transaction conflict")

// TxRunner runs functions inside a transaction and retries them when
// InnoDB aborts the transaction because of a deadlock or a lock wait
// timeout.
type TxRunner struct {
	DB         *sql.DB
	MaxRetries int           // extra attempts after the first one
	Backoff    time.Duration // base delay, doubled on every retry
	// OnRetry is called before each retry; it may be nil.
	OnRetry func(attempt int, err error)
}

// Run executes fn in a transaction.  The transaction is committed when
// fn returns nil and rolled back on any error or panic.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 10 * time.Millisecond
	}
	for attempt := 0; ; attempt++ {
		err := runOnce(ctx, r.DB, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= r.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %w", ErrTxConflict, attempt+1, err)
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func runOnce(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// IsRetryable reports whether err is a MySQL deadlock or lock wait
// timeout, in which case the whole transaction can be run again.
func IsRetryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWaitTimeout
	}
	return false
}
