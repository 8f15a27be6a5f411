package model

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxID is the 32-byte transaction identifier as stored in the transaction table.
type TxID = chainhash.Hash

// TxField is a bit mask of mutable transaction columns.
type TxField uint8

const (
	TxFieldHeight TxField = 1 << iota
	TxFieldInputs
	TxFieldOutputs
)

// Transaction is a stored transaction row.
type Transaction struct {
	ID          int64
	TxID        TxID
	BlockHeight uint64
	InputCount  uint32
	OutputCount uint32
}

// DisambiguateTxID derives the stored id for a repeated txid by mixing the block
// height and the occurrence ordinal into the trailing bytes. The result is stable
// across runs, so a safe-mode rerun finds the same row again.
func DisambiguateTxID(txid TxID, height uint64, ordinal uint16) TxID {
	out := txid
	var h [4]byte
	binary.BigEndian.PutUint32(h[:], uint32(height))
	for i := range h {
		out[28+i] ^= h[i]
	}
	var o [2]byte
	binary.BigEndian.PutUint16(o[:], ordinal+1)
	out[26] ^= o[0]
	out[27] ^= o[1]
	return out
}
