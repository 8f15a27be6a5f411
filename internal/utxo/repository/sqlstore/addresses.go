package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batchexec"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/writequeue"
)

type addressRow struct {
	ID       int64  `db:"address_id"`
	Raw      []byte `db:"address"`
	WalletID int64  `db:"wallet_id"`
}

func (s *Store) addressBy(ctx context.Context, op string, kind model.AddressKind, where string, arg any) (a model.Address, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(op, err, start)
	}()

	if !kind.Valid() {
		return model.Address{}, false, fmt.Errorf("unknown address kind %d", kind)
	}
	var row addressRow
	query := s.db.Rebind(`SELECT address_id, address, wallet_id FROM ` + kind.Table() + ` WHERE ` + where)
	err = s.db.GetContext(ctx, &row, query, arg)
	if notFound(err) {
		return model.Address{}, false, nil
	}
	if err != nil {
		return model.Address{}, false, fmt.Errorf("query %s: %w", kind.Table(), err)
	}
	return model.Address{ID: row.ID, Kind: kind, Raw: row.Raw, WalletID: row.WalletID}, true, nil
}

// AddressByID loads an address, routing to its table by the id range.
func (s *Store) AddressByID(ctx context.Context, id int64) (model.Address, bool, error) {
	kind, ok := model.KindOf(id)
	if !ok {
		return model.Address{}, false, nil
	}
	return s.addressBy(ctx, "get_address", kind, "address_id = ?", id)
}

// AddressByNaturalKey loads an address by kind and raw bytes.
func (s *Store) AddressByNaturalKey(ctx context.Context, kind model.AddressKind, raw []byte) (model.Address, bool, error) {
	return s.addressBy(ctx, "get_address_by_raw", kind, "address = ?", raw)
}

// AddressWriter inserts addresses. A batch spanning several kinds is written
// table by table inside one database transaction.
func (s *Store) AddressWriter() batchexec.Writer[model.Address] {
	return &insertWriter[model.Address]{
		store:   s,
		op:      "insert_addresses",
		table:   func(a model.Address) string { return a.Kind.Table() },
		columns: []string{"address_id", "address", "wallet_id"},
		values: func(a model.Address) []any {
			return []any{a.ID, a.Raw, a.WalletID}
		},
	}
}

// AddressUpdater applies masked address updates.
func (s *Store) AddressUpdater() batchexec.Writer[writequeue.Update[model.Address]] {
	return &updateWriter[model.Address]{
		store: s,
		op:    "update_addresses",
		table: func(a model.Address) string { return a.Kind.Table() },
		set: []column[model.Address]{
			{name: "wallet_id", field: uint8(model.AddressFieldWallet), value: func(a model.Address) any { return a.WalletID }},
		},
		where: []column[model.Address]{
			{name: "address_id", value: func(a model.Address) any { return a.ID }},
		},
	}
}

// InsertWallet stores a new wallet row.
func (s *Store) InsertWallet(ctx context.Context, w model.Wallet) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("insert_wallet", err, start)
	}()

	query := s.db.Rebind(`INSERT INTO wallet (wallet_id, name, details) VALUES (?, ?, ?)`)
	if _, err = s.db.ExecContext(ctx, query, w.ID, w.Name, w.Details); err != nil {
		return fmt.Errorf("insert wallet %d: %w", w.ID, err)
	}
	return nil
}
