package clickhouse

import (
	"context"
	"fmt"
	"time"
)

const maxBlockHeightQuery = `
SELECT count() AS blocks, max(height) AS max_height
FROM utxo_blocks
WHERE network = ?`

// MaxBlockHeight returns the highest archived height. The flag is false when
// nothing is archived for the network.
func (r *Repository) MaxBlockHeight(ctx context.Context) (height uint64, ok bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("max_block_height", err, start)
	}()

	rows, err := r.conn.Query(ctx, maxBlockHeightQuery, string(r.network))
	if err != nil {
		return 0, false, fmt.Errorf("query max block height: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, false, fmt.Errorf("iterate max block height: %w", err)
		}
		return 0, false, fmt.Errorf("max block height not found")
	}

	var blocks uint64
	if err = rows.Scan(&blocks, &height); err != nil {
		return 0, false, fmt.Errorf("scan max block height: %w", err)
	}
	if err = rows.Err(); err != nil {
		return 0, false, fmt.Errorf("iterate max block height: %w", err)
	}
	return height, blocks > 0, nil
}
