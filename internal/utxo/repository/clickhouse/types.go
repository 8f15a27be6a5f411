package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Conn is the part of the driver connection the repository uses.
	Conn interface {
		Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
		Close() error
	}

	// Rows mirrors driver.Rows.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		ScanStruct(dest any) error
		ColumnTypes() []driver.ColumnType
		Totals(dest ...any) error
		Columns() []string
		Close() error
		Err() error
	}

	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// Archive reads blocks back from the archive tables.
	Archive interface {
		MaxBlockHeight(ctx context.Context) (uint64, bool, error)
		ArchivedBlock(ctx context.Context, height uint64) (*ArchivedBlock, error)
	}

	// TxConverter turns an archived transaction into a chain transaction.
	TxConverter interface {
		ConvertTx(txid chainhash.Hash, tx *wire.MsgTx, coinbase bool) (chain.Tx, error)
	}
)
