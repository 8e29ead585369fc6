package settlement

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// sessionLock holds a session-level advisory lock on one dedicated
// connection, keyed by the parlay's session id. It must be released on
// the same connection it was acquired on, so the pooled connection is
// held for the lock's lifetime rather than returned between statements.
// Grounded on dbnit.go's pg_advisory_lock migration-lock pattern,
// narrowed here to pg_try_advisory_lock so one stuck parlay never blocks
// the rest of a pass.
type sessionLock struct {
	conn *pgxpool.Conn
	key  int64
}

// tryLockParlay attempts to acquire the advisory lock for sessionID without
// blocking. It returns ok=false if another worker already holds it.
func tryLockParlay(ctx context.Context, db *pgxpool.Pool, sessionID string) (*sessionLock, bool, error) {
	key := advisoryKey(sessionID)
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `select pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	return &sessionLock{conn: conn, key: key}, true, nil
}

func (l *sessionLock) Release(ctx context.Context) {
	if l == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, `select pg_advisory_unlock($1)`, l.key)
	l.conn.Release()
}

func advisoryKey(sessionID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("parlay:" + sessionID))
	return int64(h.Sum64())
}
