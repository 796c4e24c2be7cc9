// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memchain

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// scriptInfo is the result of classifying an output script.
type scriptInfo struct {
	addrType chain.AddressType

	// key is the identity of the script within its dedup type.  It is
	// empty for scripts that are never deduplicated.
	key string

	// hash is the hash or witness program the script commits to.
	hash []byte

	// multisig member public keys and the number of required signatures.
	pubKeys  [][]byte
	required int
}

// classifyScript determines the address type and dedup identity of a
// public key script.
func classifyScript(pkScript []byte, params *chaincfg.Params) scriptInfo {
	switch txscript.GetScriptClass(pkScript) {
	case txscript.PubKeyTy:
		pushes, err := txscript.PushedData(pkScript)
		if err != nil || len(pushes) != 1 {
			break
		}
		hash := btcutil.Hash160(pushes[0])
		return scriptInfo{addrType: chain.PubKey, key: string(hash), hash: hash}

	case txscript.PubKeyHashTy:
		hash := pkScript[3:23]
		return scriptInfo{addrType: chain.PubKeyHash, key: string(hash), hash: hash}

	case txscript.WitnessV0PubKeyHashTy:
		hash := pkScript[2:22]
		return scriptInfo{addrType: chain.WitnessPubKeyHash, key: string(hash),
			hash: hash}

	case txscript.ScriptHashTy:
		hash := pkScript[2:22]
		return scriptInfo{addrType: chain.ScriptHash, key: string(hash), hash: hash}

	case txscript.WitnessV0ScriptHashTy:
		hash := pkScript[2:34]
		return scriptInfo{addrType: chain.WitnessScriptHash, key: string(hash),
			hash: hash}

	case txscript.MultiSigTy:
		_, addrs, required, err := txscript.ExtractPkScriptAddrs(pkScript, params)
		if err != nil {
			break
		}
		info := scriptInfo{
			addrType: chain.Multisig,
			key:      string(pkScript),
			required: required,
		}
		for _, addr := range addrs {
			info.pubKeys = append(info.pubKeys, addr.ScriptAddress())
		}
		return info

	case txscript.NullDataTy:
		return scriptInfo{addrType: chain.NullData}

	case txscript.WitnessV1TaprootTy, txscript.WitnessUnknownTy:
		return scriptInfo{addrType: chain.WitnessUnknown, key: string(pkScript),
			hash: pkScript[2:]}
	}

	return scriptInfo{addrType: chain.NonStandard, key: string(pkScript)}
}

// internAddress returns the address for the classified script, allocating a
// new script ordinal the first time a script is seen.
func (b *Builder) internAddress(info *scriptInfo) chain.Address {
	s := b.store
	d := info.addrType.Dedup()
	if info.key == "" {
		return b.NewAddress(info.addrType)
	}

	num, ok := s.dedupKeys[d][info.key]
	if !ok {
		addr := b.NewAddress(info.addrType)
		num = addr.ScriptNum
		s.dedupKeys[d][info.key] = num
	}
	addr := chain.Address{ScriptNum: num, Type: info.addrType}
	if info.hash != nil {
		if _, ok := s.addrHash[addr]; !ok {
			s.addrHash[addr] = info.hash
		}
	}

	if info.addrType == chain.Multisig && s.multisigs[num] == nil {
		ms := &chain.MultisigPolicy{
			Required: info.required,
			Total:    len(info.pubKeys),
		}
		for _, pubKey := range info.pubKeys {
			keyInfo := scriptInfo{
				addrType: chain.MultisigPubKey,
				key:      string(btcutil.Hash160(pubKey)),
			}
			keyInfo.hash = []byte(keyInfo.key)
			ms.Keys = append(ms.Keys, b.internAddress(&keyInfo))
		}
		s.multisigs[num] = ms
	}
	return addr
}

// revealWrapped records the script wrapped by a spent pay-to-script-hash or
// pay-to-witness-script-hash output from the data that spends it.
func (b *Builder) revealWrapped(wrapper chain.Address, txIn *wire.TxIn) {
	if _, ok := b.store.wrapped[wrapper.Dedup()]; ok {
		return
	}

	var script []byte
	switch wrapper.Type {
	case chain.ScriptHash:
		pushes, err := txscript.PushedData(txIn.SignatureScript)
		if err != nil || len(pushes) == 0 {
			return
		}
		script = pushes[len(pushes)-1]
	case chain.WitnessScriptHash:
		if len(txIn.Witness) == 0 {
			return
		}
		script = txIn.Witness[len(txIn.Witness)-1]
	default:
		return
	}

	info := classifyScript(script, b.params)
	inner := b.internAddress(&info)
	b.store.wrapped[wrapper.Dedup()] = inner
	if inner.Type == chain.WitnessScriptHash {
		b.revealWrapped(inner, txIn)
	}
}

// isCoinbase returns whether the transaction is a coinbase transaction.
func isCoinbase(msgTx *wire.MsgTx) bool {
	if len(msgTx.TxIn) != 1 {
		return false
	}
	prevOut := &msgTx.TxIn[0].PreviousOutPoint
	return prevOut.Index == math.MaxUint32 && prevOut.Hash == chainhash.Hash{}
}

// AddMsgBlock decodes the transactions of a serialized block and appends it
// to the chain.  Output scripts are classified into addresses and scripts
// seen before map to the same address.  The chain is left untouched when an
// error is returned.
func (b *Builder) AddMsgBlock(msgBlock *wire.MsgBlock) error {
	s := b.store

	// Resolve every spend before mutating anything.
	first := chain.TxNum(len(s.txs))
	local := make(map[chainhash.Hash]chain.TxNum, len(msgBlock.Transactions))
	hashes := make([]chainhash.Hash, len(msgBlock.Transactions))
	specs := make([]TxSpec, len(msgBlock.Transactions))
	for i, msgTx := range msgBlock.Transactions {
		hashes[i] = msgTx.TxHash()
		local[hashes[i]] = first + chain.TxNum(i)
		if isCoinbase(msgTx) {
			continue
		}
		for _, txIn := range msgTx.TxIn {
			prevOut := txIn.PreviousOutPoint
			in, ok := b.outpoint[prevOut]
			if !ok {
				num, ok := local[prevOut.Hash]
				if !ok {
					str := fmt.Sprintf("transaction %v spends unknown "+
						"output %v", hashes[i], prevOut)
					return makeError(ErrUnknownOutput, str)
				}
				in = InputSpec{Tx: num, Index: prevOut.Index}
			}
			specs[i].Inputs = append(specs[i].Inputs, in)
		}
	}

	// Classify outputs.  Scripts are only interned once the whole block is
	// known to be consistent so that a rejected block does not leave
	// orphaned addresses behind.
	infos := make([][]scriptInfo, len(msgBlock.Transactions))
	for i, msgTx := range msgBlock.Transactions {
		infos[i] = make([]scriptInfo, len(msgTx.TxOut))
		for j, txOut := range msgTx.TxOut {
			infos[i][j] = classifyScript(txOut.PkScript, b.params)
		}
	}
	if err := b.checkSpends(first, specs, msgBlock); err != nil {
		return err
	}
	for i, msgTx := range msgBlock.Transactions {
		specs[i].Outputs = make([]OutputSpec, len(msgTx.TxOut))
		for j, txOut := range msgTx.TxOut {
			specs[i].Outputs[j] = OutputSpec{
				Value:   txOut.Value,
				Address: b.internAddress(&infos[i][j]),
			}
		}
	}

	timestamp := uint32(msgBlock.Header.Timestamp.Unix())
	nums, err := b.AddBlock(timestamp, specs...)
	if err != nil {
		return err
	}

	// Reveal wrapped scripts from the inputs that spend them and index the
	// new outputs for later blocks.
	for i, msgTx := range msgBlock.Transactions {
		tx := &s.txs[nums[i]]
		for j := range tx.Inputs {
			in := &tx.Inputs[j]
			if in.Address.Type.IsWrapper() {
				b.revealWrapped(in.Address, msgTx.TxIn[j])
			}
			delete(b.outpoint, msgTx.TxIn[j].PreviousOutPoint)
		}
		for j := range msgTx.TxOut {
			op := wire.OutPoint{Hash: hashes[i], Index: uint32(j)}
			b.outpoint[op] = InputSpec{Tx: nums[i], Index: uint32(j)}
		}
	}
	for len(s.hashes) < int(first) {
		s.hashes = append(s.hashes, chainhash.Hash{})
	}
	s.hashes = append(s.hashes, hashes...)
	return nil
}

// checkSpends ensures every input of the block references an output that
// exists and is spent only once.
func (b *Builder) checkSpends(first chain.TxNum, specs []TxSpec, msgBlock *wire.MsgBlock) error {
	s := b.store
	seen := make(map[InputSpec]struct{})
	for i, spec := range specs {
		num := first + chain.TxNum(i)
		for _, in := range spec.Inputs {
			var numOutputs int
			switch {
			case in.Tx < first:
				numOutputs = len(s.txs[in.Tx].Outputs)
			case in.Tx < num:
				numOutputs = len(msgBlock.Transactions[in.Tx-first].TxOut)
			default:
				numOutputs = -1
			}
			if int(in.Index) >= numOutputs {
				str := fmt.Sprintf("transaction %d spends unknown output "+
					"%d:%d", num, in.Tx, in.Index)
				return makeError(ErrUnknownOutput, str)
			}
			if _, ok := seen[in]; ok {
				str := fmt.Sprintf("output %d:%d is spent twice", in.Tx,
					in.Index)
				return makeError(ErrDoubleSpend, str)
			}
			seen[in] = struct{}{}
		}
	}
	return nil
}
