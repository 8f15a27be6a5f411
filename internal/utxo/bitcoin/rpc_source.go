package bitcoin

import (
	"context"
	"fmt"
	"math"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
)

// RPCSource implements chain.Source over a node RPC connection.
type RPCSource struct {
	rpc       RPCClient
	converter *Converter
}

// NewRPCSource creates an RPCSource.
func NewRPCSource(rpc RPCClient, converter *Converter) *RPCSource {
	return &RPCSource{rpc: rpc, converter: converter}
}

// LatestHeight returns the latest block height available from the node.
func (s *RPCSource) LatestHeight(_ context.Context) (uint64, error) {
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, err
	}
	height, err := safe.Uint64(count)
	if err != nil {
		return 0, fmt.Errorf("block count overflow: %w", err)
	}
	return height, nil
}

// FetchBlock retrieves and converts the block at the given height.
func (s *RPCSource) FetchBlock(ctx context.Context, height uint64) (*chain.Block, error) {
	if height > math.MaxInt64 {
		return nil, fmt.Errorf("block height %d exceeds rpc limit", height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := s.rpc.GetBlockHash(int64(height))
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}
	msg, err := s.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}
	return s.converter.ConvertBlock(height, msg)
}
