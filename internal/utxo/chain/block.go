// Package chain describes blocks as the ingestion pipeline consumes them,
// independent of where they were read from.
package chain

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// ErrBlockNotFound is returned by sources asked for a height they do not have.
var ErrBlockNotFound = errors.New("block not found")

// Block is a parsed block.
type Block struct {
	Height uint64
	Hash   chainhash.Hash
	Txs    []Tx
}

// Tx is a parsed transaction. A coinbase transaction keeps its single
// input so the declared input count matches the source.
type Tx struct {
	TxID     chainhash.Hash
	Coinbase bool
	Inputs   []TxIn
	Outputs  []TxOut
}

// TxIn references the output it spends.
type TxIn struct {
	PrevTxID  chainhash.Hash
	PrevIndex uint32
	// Annex is nil for plain single-signature SIGHASH_ALL spends.
	Annex *Annex
}

// Annex carries non-default signing semantics of an input.
type Annex struct {
	SighashType uint8
	Segwit      bool
	Multisig    bool
}

// TxOut is a parsed output.
type TxOut struct {
	Pos   uint32
	Value int64
	// Address is nil when the script pays no decodable destination.
	Address *Address
	Status  model.OutputStatus
}

// Address is the decoded destination of an output script.
type Address struct {
	Kind model.AddressKind
	Raw  []byte
}
