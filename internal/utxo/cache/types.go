package cache

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/flusher"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// TransactionRepository is the query path of the transaction cache.
	TransactionRepository interface {
		TransactionByID(ctx context.Context, id int64) (model.Transaction, bool, error)
		TransactionByTxID(ctx context.Context, txid model.TxID) (model.Transaction, bool, error)
		TransactionsByHeight(ctx context.Context, height uint64) ([]model.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// OutputRepository is the query path of the output cache.
	OutputRepository interface {
		OutputByKey(ctx context.Context, key model.OutputKey) (model.Output, bool, error)
		OutputsByTransaction(ctx context.Context, txID int64) ([]model.Output, error)
		DeleteOutput(ctx context.Context, key model.OutputKey) error
	}

	// InputRepository is the query path of the input store.
	InputRepository interface {
		InputByKey(ctx context.Context, key model.InputKey) (model.Input, bool, error)
		InputsByTransaction(ctx context.Context, txID int64) ([]model.Input, error)
		InputsBySpent(ctx context.Context, out model.OutputKey) ([]model.Input, error)
		DeleteInput(ctx context.Context, key model.InputKey) error
		AnnexByKey(ctx context.Context, key model.InputKey) (model.InputAnnex, bool, error)
		DeleteAnnex(ctx context.Context, key model.InputKey) error
	}

	// AddressRepository is the query path of the address cache.
	AddressRepository interface {
		AddressByID(ctx context.Context, id int64) (model.Address, bool, error)
		AddressByNaturalKey(ctx context.Context, kind model.AddressKind, raw []byte) (model.Address, bool, error)
	}

	// IDAllocator hands out new record ids.
	IDAllocator interface {
		Next(ctx context.Context, kind idalloc.Kind) (int64, error)
	}

	// Registry schedules background flushes of the cache queues.
	Registry interface {
		Register(f flusher.Flushable)
		Close(ctx context.Context, f flusher.Flushable) error
	}
)
