// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import "fmt"

// AddressType identifies the kind of script an output pays to.
type AddressType uint8

// These constants define the supported address types.  The order is fixed
// since the values are persisted by stores.
const (
	NonStandard AddressType = iota
	PubKey
	PubKeyHash
	MultisigPubKey
	ScriptHash
	Multisig
	NullData
	WitnessPubKeyHash
	WitnessScriptHash
	WitnessUnknown

	// NumAddressTypes is the number of defined address types.
	NumAddressTypes = iota
)

// DedupType identifies a deduplicated address space.  All address types
// that collapse into the same dedup type share script ordinals.
type DedupType uint8

// These constants define the dedup types in the order their global
// identifier ranges are assigned.
const (
	DedupNonStandard DedupType = iota
	DedupPubKey
	DedupScriptHash
	DedupMultisig
	DedupNullData
	DedupWitnessUnknown

	// NumDedupTypes is the number of defined dedup types.
	NumDedupTypes = iota
)

type addressTypeInfo struct {
	name    string
	dedup   DedupType
	wrapper bool
}

var addressTypes = [NumAddressTypes]addressTypeInfo{
	NonStandard:       {"nonstandard", DedupNonStandard, false},
	PubKey:            {"pubkey", DedupPubKey, false},
	PubKeyHash:        {"pubkeyhash", DedupPubKey, false},
	MultisigPubKey:    {"multisig_pubkey", DedupPubKey, false},
	ScriptHash:        {"scripthash", DedupScriptHash, true},
	Multisig:          {"multisig", DedupMultisig, false},
	NullData:          {"nulldata", DedupNullData, false},
	WitnessPubKeyHash: {"witness_pubkeyhash", DedupPubKey, false},
	WitnessScriptHash: {"witness_scripthash", DedupScriptHash, true},
	WitnessUnknown:    {"witness_unknown", DedupWitnessUnknown, false},
}

type dedupTypeInfo struct {
	stem      string
	repr      AddressType
	spendable bool
	equived   bool
	members   []AddressType
}

var dedupTypes [NumDedupTypes]dedupTypeInfo

func init() {
	dedupTypes = [NumDedupTypes]dedupTypeInfo{
		DedupNonStandard:    {"nonstandard_script", NonStandard, true, false, nil},
		DedupPubKey:         {"pubkey_script", PubKeyHash, true, true, nil},
		DedupScriptHash:     {"scripthash_script", ScriptHash, true, true, nil},
		DedupMultisig:       {"multisig_script", Multisig, true, true, nil},
		DedupNullData:       {"null_data_script", NullData, false, false, nil},
		DedupWitnessUnknown: {"witness_unknown", WitnessUnknown, true, false, nil},
	}
	for t := AddressType(0); t < NumAddressTypes; t++ {
		d := addressTypes[t].dedup
		dedupTypes[d].members = append(dedupTypes[d].members, t)
	}
}

// Valid returns whether the address type is one of the defined types.
func (t AddressType) Valid() bool {
	return t < NumAddressTypes
}

// String returns the address type as a human-readable name.
func (t AddressType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Unknown AddressType (%d)", uint8(t))
	}
	return addressTypes[t].name
}

// Dedup returns the dedup type the address type collapses into.
func (t AddressType) Dedup() DedupType {
	return addressTypes[t].dedup
}

// IsWrapper returns whether addresses of the type can wrap another address.
func (t AddressType) IsWrapper() bool {
	return addressTypes[t].wrapper
}

// Valid returns whether the dedup type is one of the defined types.
func (d DedupType) Valid() bool {
	return d < NumDedupTypes
}

// String returns the file stem used for the dedup type.
func (d DedupType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Unknown DedupType (%d)", uint8(d))
	}
	return dedupTypes[d].stem
}

// AddressTypes returns the address types that collapse into the dedup type.
// The returned slice must not be modified.
func (d DedupType) AddressTypes() []AddressType {
	return dedupTypes[d].members
}

// ReprType returns the address type used to represent a dedup address when
// the original type is not known.
func (d DedupType) ReprType() AddressType {
	return dedupTypes[d].repr
}

// Spendable returns whether outputs of the dedup type can ever be spent.
func (d DedupType) Spendable() bool {
	return dedupTypes[d].spendable
}

// Equived returns whether distinct address types of the dedup type are
// treated as equivalent owners of the same script.
func (d DedupType) Equived() bool {
	return dedupTypes[d].equived
}

// Address identifies a script by its address type and 1-based script number.
// The zero value is not a valid address.
type Address struct {
	ScriptNum uint32
	Type      AddressType
}

// IsValid returns whether the address refers to a script.
func (a Address) IsValid() bool {
	return a.ScriptNum != 0 && a.Type.Valid()
}

// Dedup returns the deduplicated form of the address.
func (a Address) Dedup() DedupAddress {
	return DedupAddress{ScriptNum: a.ScriptNum, Type: a.Type.Dedup()}
}

// String returns a short human-readable form of the address.
func (a Address) String() string {
	return fmt.Sprintf("%s(%d)", a.Type, a.ScriptNum)
}

// DedupAddress identifies a script within a deduplicated address space.
type DedupAddress struct {
	ScriptNum uint32
	Type      DedupType
}

// Address returns the address using the representative type of the dedup
// type.
func (a DedupAddress) Address() Address {
	return Address{ScriptNum: a.ScriptNum, Type: a.Type.ReprType()}
}

// String returns a short human-readable form of the dedup address.
func (a DedupAddress) String() string {
	return fmt.Sprintf("%s(%d)", a.Type, a.ScriptNum)
}
