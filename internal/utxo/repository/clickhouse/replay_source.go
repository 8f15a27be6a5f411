package clickhouse

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
)

// ReplaySource implements chain.Source over the block archive, so a ledger
// can be rebuilt without a node.
type ReplaySource struct {
	archive   Archive
	converter TxConverter
}

func NewReplaySource(archive Archive, converter TxConverter) *ReplaySource {
	return &ReplaySource{archive: archive, converter: converter}
}

func (s *ReplaySource) LatestHeight(ctx context.Context) (uint64, error) {
	height, ok, err := s.archive.MaxBlockHeight(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("archive is empty: %w", chain.ErrBlockNotFound)
	}
	return height, nil
}

func (s *ReplaySource) FetchBlock(ctx context.Context, height uint64) (*chain.Block, error) {
	archived, err := s.archive.ArchivedBlock(ctx, height)
	if err != nil {
		return nil, err
	}

	block := &chain.Block{
		Height: archived.Height,
		Hash:   archived.Hash,
		Txs:    make([]chain.Tx, 0, len(archived.Txs)),
	}
	for i, tx := range archived.Txs {
		converted, err := s.converter.ConvertTx(tx.TxID, tx.Tx, i == 0 && tx.Coinbase)
		if err != nil {
			return nil, fmt.Errorf("replay block %d: %w", height, err)
		}
		block.Txs = append(block.Txs, converted)
	}
	return block, nil
}
