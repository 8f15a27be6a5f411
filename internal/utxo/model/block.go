// Package model defines domain models for relational UTXO ledger ingestion.
package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Block represents a persisted block row. Blocks are written once per height and
// rewritten only when a reorg repair finds a different hash at the same height.
type Block struct {
	Height  uint64
	Hash    chainhash.Hash
	TxCount uint32
}
