package model

import "fmt"

// OutputStatus is the spend state of an output.
type OutputStatus uint8

const (
	OutputUndefined OutputStatus = iota
	OutputUnspent
	OutputSpent
	OutputUnspendable
	OutputUnspendableOpReturn
	OutputUnspendableBadScript
)

func (s OutputStatus) String() string {
	switch s {
	case OutputUndefined:
		return "UNDEFINED"
	case OutputUnspent:
		return "UNSPENT"
	case OutputSpent:
		return "SPENT"
	case OutputUnspendable:
		return "UNSPENDABLE"
	case OutputUnspendableOpReturn:
		return "UNSPENDABLE_OP_RETURN"
	case OutputUnspendableBadScript:
		return "UNSPENDABLE_BAD_SCRIPT"
	default:
		return fmt.Sprintf("OutputStatus(%d)", uint8(s))
	}
}

// Spendable reports whether an input may legitimately reference an output in this state.
func (s OutputStatus) Spendable() bool {
	return s == OutputUnspent || s == OutputSpent || s == OutputUndefined
}

// OutputField is a bit mask of mutable output columns.
type OutputField uint8

const (
	OutputFieldStatus OutputField = 1 << iota
	OutputFieldAddress
	OutputFieldAmount
)

// OutputKey addresses an output (and equally an input) by owning transaction and position.
type OutputKey struct {
	TransactionID int64
	Pos           uint32
}

func (k OutputKey) String() string {
	return fmt.Sprintf("%d:%d", k.TransactionID, k.Pos)
}

// Output is a stored output row.
type Output struct {
	TransactionID int64
	Pos           uint32
	AddressID     int64
	Amount        int64
	Status        OutputStatus
}

// Key returns the composite key of the output.
func (o Output) Key() OutputKey {
	return OutputKey{TransactionID: o.TransactionID, Pos: o.Pos}
}
