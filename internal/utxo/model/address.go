package model

import (
	"fmt"
	"strings"
)

// AddressKind is the script family an address belongs to. Every kind owns a
// disjoint id range, so the kind of an address is recoverable from its id alone.
type AddressKind uint8

const (
	AddressP2PK AddressKind = iota + 1
	AddressP2PKH
	AddressP2SH
	AddressMultisig
	AddressP2WPKH
	AddressP2WSH
	AddressP2TR
	AddressWitnessUnknown
)

const addressRangeBits = 40

// AddressKinds lists every kind in table order.
var AddressKinds = []AddressKind{
	AddressP2PK,
	AddressP2PKH,
	AddressP2SH,
	AddressMultisig,
	AddressP2WPKH,
	AddressP2WSH,
	AddressP2TR,
	AddressWitnessUnknown,
}

var addressKindNames = map[AddressKind]string{
	AddressP2PK:           "p2pk",
	AddressP2PKH:          "p2pkh",
	AddressP2SH:           "p2sh",
	AddressMultisig:       "multisig",
	AddressP2WPKH:         "p2wpkh",
	AddressP2WSH:          "p2wsh",
	AddressP2TR:           "p2tr",
	AddressWitnessUnknown: "witness_unknown",
}

func (k AddressKind) String() string {
	if name, ok := addressKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind%d", uint8(k))
}

// Valid reports whether k is one of the known kinds.
func (k AddressKind) Valid() bool {
	_, ok := addressKindNames[k]
	return ok
}

// Table is the physical table holding addresses of this kind.
func (k AddressKind) Table() string {
	return "address_" + k.String()
}

// FirstID is the smallest id in the kind's range.
func (k AddressKind) FirstID() int64 {
	return int64(k)<<addressRangeBits + 1
}

// LastID is the largest id in the kind's range.
func (k AddressKind) LastID() int64 {
	return int64(k+1)<<addressRangeBits - 1
}

// KindOf maps an address id back to its kind. Id 0 means "no address".
func KindOf(id int64) (AddressKind, bool) {
	if id <= 0 {
		return 0, false
	}
	kind := AddressKind(id >> addressRangeBits)
	if !kind.Valid() || id < kind.FirstID() {
		return 0, false
	}
	return kind, true
}

// ParseAddressKind resolves a kind from its table suffix name.
func ParseAddressKind(name string) (AddressKind, error) {
	for kind, n := range addressKindNames {
		if strings.EqualFold(n, name) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown address kind %q", name)
}

// AddressField is a bit mask of mutable address columns.
type AddressField uint8

const (
	AddressFieldWallet AddressField = 1 << iota
)

// AddressKey is the natural key of an address: its kind plus raw bytes.
type AddressKey struct {
	Kind AddressKind
	Raw  string
}

// Address is a stored address row.
type Address struct {
	ID       int64
	Kind     AddressKind
	Raw      []byte
	WalletID int64
}

// NaturalKey returns the (kind, raw) key of the address.
func (a Address) NaturalKey() AddressKey {
	return AddressKey{Kind: a.Kind, Raw: string(a.Raw)}
}

// Wallet is a stored wallet row. Wallets group addresses; clustering happens elsewhere.
type Wallet struct {
	ID      int64
	Name    string
	Details string
}
