// Package idalloc hands out monotonically increasing record ids. Each kind is
// seeded lazily from the store on first use and never reuses an id within a
// process.
package idalloc

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// Kind identifies an id sequence and where its current maximum is stored.
type Kind struct {
	Table  string
	Column string
	// Floor is the id preceding the first one handed out when the table is empty.
	Floor int64
}

var (
	Transaction = Kind{Table: `"transaction"`, Column: "transaction_id"}
	Wallet      = Kind{Table: "wallet", Column: "wallet_id"}
)

// Address returns the sequence of an address kind. Ids of different kinds
// live in disjoint ranges so the kind can be recovered from the id alone.
func Address(k model.AddressKind) Kind {
	return Kind{Table: k.Table(), Column: "address_id", Floor: k.FirstID() - 1}
}

type counter struct {
	mu     sync.Mutex
	seeded bool
	last   int64
}

// Allocator is safe for concurrent use.
type Allocator struct {
	seeder Seeder

	mu       sync.Mutex
	counters map[Kind]*counter
}

func New(seeder Seeder) *Allocator {
	return &Allocator{seeder: seeder, counters: make(map[Kind]*counter)}
}

// Next returns the next id of kind.
func (a *Allocator) Next(ctx context.Context, kind Kind) (int64, error) {
	c := a.counter(kind)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seeded {
		last, ok, err := a.seeder.MaxID(ctx, kind.Table, kind.Column)
		if err != nil {
			return 0, fmt.Errorf("seed %s ids: %w", kind.Table, err)
		}
		if !ok || last < kind.Floor {
			last = kind.Floor
		}
		c.last = last
		c.seeded = true
	}
	c.last++
	return c.last, nil
}

func (a *Allocator) counter(kind Kind) *counter {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.counters[kind]
	if !ok {
		c = &counter{}
		a.counters[kind] = c
	}
	return c
}
