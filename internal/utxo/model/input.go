package model

// InputKey addresses an input by spending transaction and position.
type InputKey = OutputKey

// InputField is a bit mask of mutable input columns.
type InputField uint8

const (
	InputFieldSpent InputField = 1 << iota
)

// Input is a stored input row pointing back at the output it spends.
type Input struct {
	TransactionID   int64
	Pos             uint32
	InTransactionID int64
	InPos           uint32
}

// Key returns the composite key of the input.
func (i Input) Key() InputKey {
	return InputKey{TransactionID: i.TransactionID, Pos: i.Pos}
}

// Spends returns the key of the output this input consumes.
func (i Input) Spends() OutputKey {
	return OutputKey{TransactionID: i.InTransactionID, Pos: i.InPos}
}

// SighashAll is the signature hash type every legacy input uses by default.
const SighashAll uint8 = 0x01

// InputAnnex carries signing metadata for inputs with non-default semantics.
type InputAnnex struct {
	TransactionID int64
	Pos           uint32
	SighashType   uint8
	Segwit        bool
	Multisig      bool
}

// Key returns the composite key of the annex.
func (a InputAnnex) Key() InputKey {
	return InputKey{TransactionID: a.TransactionID, Pos: a.Pos}
}

// IsDefault reports whether the annex describes plain single-signature SIGHASH_ALL spending,
// in which case no row is stored.
func (a InputAnnex) IsDefault() bool {
	return a.SighashType == SighashAll && !a.Segwit && !a.Multisig
}
