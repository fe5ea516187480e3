// Package ids derives deterministic validator identities. spec.md section 9
// notes that the source's deterministic clone creation need only be
// logically reproduced: "keyed by (quality, owner, id), not bit-identical
// bytecode". This package produces that key as a stable Address, derived
// the same way the teacher's chain/types.PublicKeyToAddress derives
// addresses from arbitrary byte material: a single Keccak256 digest,
// truncated to AddressLength.
package ids

import (
	"encoding/binary"

	"stakecore/chain/types"
)

// ValidatorAddress derives the deterministic address for a validator
// created by the factory at (quality, owner, sequential id).
func ValidatorAddress(quality uint8, owner types.Address, id uint64) types.Address {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)

	digest := types.Keccak256(
		[]byte("stakecore.validator"),
		[]byte{quality},
		owner.Bytes(),
		idBytes,
	)
	return types.BytesToAddress(digest)
}

// FeeVaultAddress derives the per-validator fee vault address bonded at
// construction time.
func FeeVaultAddress(validator types.Address) types.Address {
	digest := types.Keccak256([]byte("stakecore.feevault"), validator.Bytes())
	return types.BytesToAddress(digest)
}

// GovernanceAddress derives the identity Governance uses as its own
// "caller" when invoking master/secondary validator methods, keyed off the
// admin that deployed it.
func GovernanceAddress(admin types.Address) types.Address {
	digest := types.Keccak256([]byte("stakecore.governance"), admin.Bytes())
	return types.BytesToAddress(digest)
}
