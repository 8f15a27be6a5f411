package ingester

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Source interface {
		LatestHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*chain.Block, error)
	}
	BlockStore interface {
		MaxBlockHeight(ctx context.Context) (uint64, bool, error)
		Block(ctx context.Context, height uint64) (model.Block, bool, error)
		UpsertBlock(ctx context.Context, b model.Block) error
	}
	Transactions interface {
		Get(ctx context.Context, id int64) (model.Transaction, bool, error)
		GetByTxID(ctx context.Context, txid model.TxID) (model.Transaction, bool, error)
		GetOrAdd(ctx context.Context, tx model.Transaction) (model.Transaction, bool, error)
		Update(ctx context.Context, tx model.Transaction, fields model.TxField) error
		Delete(ctx context.Context, tx model.Transaction) error
		ListByHeight(ctx context.Context, height uint64) ([]model.Transaction, error)
	}
	Outputs interface {
		Get(ctx context.Context, key model.OutputKey) (model.Output, bool, error)
		Add(ctx context.Context, o model.Output) (bool, error)
		Update(ctx context.Context, o model.Output, fields model.OutputField) error
		SetStatus(ctx context.Context, key model.OutputKey, status model.OutputStatus) (model.Output, bool, error)
		Delete(ctx context.Context, key model.OutputKey) error
		ByTransaction(ctx context.Context, txID int64) ([]model.Output, error)
	}
	Inputs interface {
		Get(ctx context.Context, key model.InputKey) (model.Input, bool, error)
		Add(ctx context.Context, in model.Input) (bool, error)
		Repoint(ctx context.Context, in model.Input) error
		Delete(ctx context.Context, key model.InputKey) error
		BySpent(ctx context.Context, out model.OutputKey) ([]model.Input, error)
		ByTransaction(ctx context.Context, txID int64) ([]model.Input, error)
		Annex(ctx context.Context, key model.InputKey) (model.InputAnnex, bool, error)
		AddAnnex(ctx context.Context, a model.InputAnnex) (bool, error)
		UpdateAnnex(ctx context.Context, a model.InputAnnex) error
		DeleteAnnex(ctx context.Context, key model.InputKey) error
	}
	Addresses interface {
		GetOrAdd(ctx context.Context, kind model.AddressKind, raw []byte) (model.Address, bool, error)
	}
	Metrics interface {
		ObserveBlock(err error, height uint64, txs int, started time.Time)
		ObserveRepair(kind string)
		SetTip(height uint64)
	}
)
