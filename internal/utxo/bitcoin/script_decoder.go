package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

var addressKinds = map[txscript.ScriptClass]model.AddressKind{
	txscript.PubKeyTy:              model.AddressP2PK,
	txscript.PubKeyHashTy:          model.AddressP2PKH,
	txscript.ScriptHashTy:          model.AddressP2SH,
	txscript.WitnessV0PubKeyHashTy: model.AddressP2WPKH,
	txscript.WitnessV0ScriptHashTy: model.AddressP2WSH,
	txscript.WitnessV1TaprootTy:    model.AddressP2TR,
}

// scriptDecoder classifies output scripts and extracts their destination.
type scriptDecoder struct {
	params *chaincfg.Params
}

// newScriptDecoder initializes a decoder using params of the provided network.
func newScriptDecoder(network model.Network) (*scriptDecoder, error) {
	params, err := chainParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	return &scriptDecoder{params: params}, nil
}

// decode returns the destination of pkScript, or nil when it pays none, and
// the spend status an output with this script starts in.
func (d *scriptDecoder) decode(pkScript []byte) (*chain.Address, model.OutputStatus) {
	if !wellFormed(pkScript) {
		return nil, model.OutputUnspendableBadScript
	}
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, d.params)
	if err != nil {
		return nil, model.OutputUnspendableBadScript
	}

	switch class {
	case txscript.NullDataTy:
		return nil, model.OutputUnspendableOpReturn
	case txscript.MultiSigTy:
		return &chain.Address{Kind: model.AddressMultisig, Raw: clone(pkScript)}, model.OutputUnspent
	case txscript.WitnessUnknownTy:
		return &chain.Address{Kind: model.AddressWitnessUnknown, Raw: clone(pkScript)}, model.OutputUnspent
	case txscript.NonStandardTy:
		if txscript.IsUnspendable(pkScript) {
			return nil, model.OutputUnspendable
		}
		return nil, model.OutputUnspent
	}

	kind, ok := addressKinds[class]
	if !ok || len(addrs) == 0 {
		// e.g. a pay-to-pubkey script whose key is not on the curve
		return nil, model.OutputUnspendable
	}
	return &chain.Address{Kind: kind, Raw: clone(addrs[0].ScriptAddress())}, model.OutputUnspent
}

func wellFormed(script []byte) bool {
	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
	}
	return tok.Err() == nil
}

// decodeAnnex reports the signing semantics of a spend, or nil for a plain
// legacy single-signature SIGHASH_ALL input.
func decodeAnnex(in *wire.TxIn) *chain.Annex {
	annex := chain.Annex{SighashType: model.SighashAll, Segwit: len(in.Witness) > 0}

	pushes := [][]byte(in.Witness)
	if !annex.Segwit {
		pushes = scriptPushes(in.SignatureScript)
	}
	annex.Multisig = len(pushes) >= 2 && len(pushes[0]) == 0 && isDERSignature(pushes[1])
	if t, ok := sighashOf(pushes, annex.Segwit); ok {
		annex.SighashType = t
	}

	if annex.SighashType == model.SighashAll && !annex.Segwit && !annex.Multisig {
		return nil
	}
	return &annex
}

// scriptPushes returns the data pushed by a push-only script, or nil when the
// script contains anything else.
func scriptPushes(script []byte) [][]byte {
	var pushes [][]byte
	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
		if tok.Opcode() > txscript.OP_16 {
			return nil
		}
		pushes = append(pushes, tok.Data())
	}
	if tok.Err() != nil {
		return nil
	}
	return pushes
}

func sighashOf(pushes [][]byte, segwit bool) (uint8, bool) {
	if segwit && len(pushes) > 0 {
		// taproot key path: 64 byte schnorr signature, or 65 with explicit type
		switch first := pushes[0]; len(first) {
		case 64:
			return 0x00, true
		case 65:
			return first[64], true
		}
	}
	for _, p := range pushes {
		if isDERSignature(p) {
			return p[len(p)-1], true
		}
	}
	return 0, false
}

// isDERSignature matches a DER encoded ECDSA signature followed by its hash type byte.
func isDERSignature(p []byte) bool {
	return len(p) >= 9 && len(p) <= 73 && p[0] == 0x30 && int(p[1]) == len(p)-3
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func chainParamsForNetwork(network model.Network) (*chaincfg.Params, error) {
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
