package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// recordEvent appends one row to the append-only ledger_events audit log,
// chaining it to the previous row's hash. A transaction-scoped advisory
// lock taken before the tail is read makes concurrent appenders
// serialize rather than race on the chain tail. Adapted from the
// teacher's public_transactions hash-chain view (internal/http/transactions.go),
// generalized from bet settlement to the full ledger event stream.
func recordEvent(ctx context.Context, q Querier, actor, kind string, refs, deltaByAccount any) error {
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("marshal refs: %w", err)
	}
	deltaJSON, err := json.Marshal(deltaByAccount)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}

	if _, err := q.Exec(ctx, `select pg_advisory_xact_lock(hashtext('ledger_events_tail'))`); err != nil {
		return fmt.Errorf("lock ledger tail: %w", err)
	}

	var prevHash string
	err = q.QueryRow(ctx, `select hash from ledger_events order by id desc limit 1 for update`).Scan(&prevHash)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("lock ledger tail: %w", err)
	}

	hash := chainHash(prevHash, kind, refsJSON, deltaJSON)

	_, err = q.Exec(ctx, `
		insert into ledger_events (actor, kind, refs, delta_by_account, prev_hash, hash)
		values ($1, $2, $3, $4, nullif($5, ''), $6)
	`, actor, kind, refsJSON, deltaJSON, prevHash, hash)
	if err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

func chainHash(prevHash, kind string, refsJSON, deltaJSON []byte) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte(kind))
	h.Write(refsJSON)
	h.Write(deltaJSON)
	return hex.EncodeToString(h.Sum(nil))
}
