// Package bitcoin reads Bitcoin blocks from a node or from its block files
// and converts them into chain blocks.
package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
)

// Converter maps wire blocks to chain blocks.
type Converter struct {
	decoder *scriptDecoder
}

// NewConverter builds a converter decoding scripts with the params of network.
func NewConverter(network model.Network) (*Converter, error) {
	decoder, err := newScriptDecoder(network)
	if err != nil {
		return nil, err
	}
	return &Converter{decoder: decoder}, nil
}

// ConvertBlock converts msg, found at height, into a chain block.
func (c *Converter) ConvertBlock(height uint64, msg *wire.MsgBlock) (*chain.Block, error) {
	block := &chain.Block{
		Height: height,
		Hash:   msg.BlockHash(),
		Txs:    make([]chain.Tx, 0, len(msg.Transactions)),
	}
	for i, tx := range msg.Transactions {
		converted, err := c.ConvertTx(tx.TxHash(), tx, i == 0 && isCoinbase(tx))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", height, err)
		}
		block.Txs = append(block.Txs, converted)
	}
	return block, nil
}

// ConvertTx converts tx under the given id. Archived transactions carry only
// their inputs and outputs, so their id cannot be recomputed from tx.
func (c *Converter) ConvertTx(txid chainhash.Hash, tx *wire.MsgTx, coinbase bool) (chain.Tx, error) {
	out := chain.Tx{
		TxID:     txid,
		Coinbase: coinbase,
		Inputs:   make([]chain.TxIn, 0, len(tx.TxIn)),
		Outputs:  make([]chain.TxOut, 0, len(tx.TxOut)),
	}

	for _, in := range tx.TxIn {
		converted := chain.TxIn{
			PrevTxID:  in.PreviousOutPoint.Hash,
			PrevIndex: in.PreviousOutPoint.Index,
		}
		if !out.Coinbase {
			converted.Annex = decodeAnnex(in)
		}
		out.Inputs = append(out.Inputs, converted)
	}

	for idx, o := range tx.TxOut {
		pos, err := safe.Uint32(idx)
		if err != nil {
			return chain.Tx{}, fmt.Errorf("tx %s output index overflow: %w", out.TxID, err)
		}
		if o.Value < 0 || o.Value > btcutil.MaxSatoshi {
			return chain.Tx{}, fmt.Errorf("tx %s output %d value out of range: %s", out.TxID, idx, btcutil.Amount(o.Value))
		}
		addr, status := c.decoder.decode(o.PkScript)
		out.Outputs = append(out.Outputs, chain.TxOut{
			Pos:     pos,
			Value:   o.Value,
			Address: addr,
			Status:  status,
		})
	}
	return out, nil
}

func isCoinbase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := tx.TxIn[0].PreviousOutPoint
	return prev.Index == wire.MaxPrevOutIndex && prev.Hash == (chainhash.Hash{})
}
