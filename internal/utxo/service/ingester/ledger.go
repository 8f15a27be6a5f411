package ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/cache"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/idalloc"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/sqlstore"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
)

// LedgerConfig sizes the memory and queues of every entity cache.
type LedgerConfig struct {
	Transactions cache.Config
	Outputs      cache.Config
	Inputs       cache.Config
	Annexes      cache.Config
	Addresses    cache.Config
}

func DefaultLedgerConfig() LedgerConfig {
	queue := func(capacity int) writequeue.Config {
		return writequeue.Config{Capacity: capacity, MinBatch: capacity / 10, BatchSize: 1000}
	}
	return LedgerConfig{
		Transactions: cache.Config{Capacity: 100_000, Queue: queue(20_000)},
		Outputs:      cache.Config{Capacity: 300_000, Queue: queue(50_000)},
		Inputs:       cache.Config{Queue: queue(50_000)},
		Annexes:      cache.Config{Queue: queue(20_000)},
		Addresses:    cache.Config{Capacity: 200_000, Queue: queue(20_000)},
	}
}

// Ledger is the set of write-behind caches over one relational store.
type Ledger struct {
	Transactions *cache.TransactionCache
	Outputs      *cache.OutputCache
	Inputs       *cache.Inputs
	Addresses    *cache.AddressCache

	store *sqlstore.Store
	ids   cache.IDAllocator
}

func NewLedger(store *sqlstore.Store, deps cache.Deps, cfg LedgerConfig) *Ledger {
	return &Ledger{
		store: store,
		ids:   deps.IDs,
		Transactions: cache.NewTransactionCache(deps, store,
			cache.Writers[model.Transaction]{Inserts: store.TransactionWriter(), Updates: store.TransactionUpdater()},
			cfg.Transactions,
		),
		Outputs: cache.NewOutputCache(deps, store,
			cache.Writers[model.Output]{Inserts: store.OutputWriter(), Updates: store.OutputUpdater()},
			cfg.Outputs,
		),
		Inputs: cache.NewInputs(deps, store,
			cache.Writers[model.Input]{Inserts: store.InputWriter(), Updates: store.InputUpdater()},
			cache.Writers[model.InputAnnex]{Inserts: store.AnnexWriter(), Updates: store.AnnexUpdater()},
			cfg.Inputs, cfg.Annexes,
		),
		Addresses: cache.NewAddressCache(deps, store,
			cache.Writers[model.Address]{Inserts: store.AddressWriter(), Updates: store.AddressUpdater()},
			cfg.Addresses,
		),
	}
}

func (l *Ledger) Caches() Caches {
	return Caches{
		Transactions: l.Transactions,
		Outputs:      l.Outputs,
		Inputs:       l.Inputs,
		Addresses:    l.Addresses,
	}
}

// Close drains every queue. Each cache is closed even when an earlier one fails.
func (l *Ledger) Close(ctx context.Context) error {
	return errors.Join(
		l.Transactions.Close(ctx),
		l.Addresses.Close(ctx),
		l.Outputs.Close(ctx),
		l.Inputs.Close(ctx),
	)
}

// CreateWallet stores a wallet under a fresh id and points every address in
// addressIDs at it. Nothing is written when an id lies outside the address ranges.
func (l *Ledger) CreateWallet(ctx context.Context, name, details string, addressIDs []int64) (model.Wallet, error) {
	for _, id := range addressIDs {
		if _, ok := model.KindOf(id); !ok {
			return model.Wallet{}, fmt.Errorf("address id %d is outside every address range", id)
		}
	}

	id, err := l.ids.Next(ctx, idalloc.Wallet)
	if err != nil {
		return model.Wallet{}, fmt.Errorf("allocate wallet id: %w", err)
	}
	w := model.Wallet{ID: id, Name: name, Details: details}
	if err := l.store.InsertWallet(ctx, w); err != nil {
		return model.Wallet{}, err
	}
	for _, addrID := range addressIDs {
		_, ok, err := l.Addresses.AssignWallet(ctx, addrID, w.ID)
		if err != nil {
			return w, err
		}
		if !ok {
			return w, fmt.Errorf("address %d not found", addrID)
		}
	}
	return w, nil
}
