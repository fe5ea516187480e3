// Package signer implements the purchase-authorization signature scheme
// from spec.md section 6: a keccak256 preimage over
// (np, validator, deadline, chainID, caller, quality), wrapped in the
// standard Ethereum personal-sign prefix, recovered with secp256k1 ECDSA.
package signer

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// Oracle is the signature-recovery side-effect port: recover(msg, sig) ->
// Address. The core treats it as opaque per spec.md section 1's Non-goals.
type Oracle interface {
	Recover(np *wad.U256, validator types.Address, deadline uint64, chainID uint64, caller types.Address, quality uint8, sig []byte) (types.Address, error)
}

// EthOracle recovers against the real secp256k1 curve via go-ethereum's
// crypto package, matching the exact preimage and prefix spec.md mandates
// for cross-compatibility with EVM-signed purchase authorizations.
type EthOracle struct{}

const personalPrefix = "\x19Ethereum Signed Message:\n32"

// PreimageHash builds the unprefixed keccak256 digest over the purchase
// fields, in the field order spec.md section 6 specifies.
func PreimageHash(np *wad.U256, validator types.Address, deadline uint64, chainID uint64, caller types.Address, quality uint8) types.Hash {
	npBytes := make([]byte, 32)
	np.ToBig().FillBytes(npBytes) // left-padded 32-byte big-endian, EVM abi.encodePacked-shaped

	deadlineBytes := make([]byte, 32)
	new(big.Int).SetUint64(deadline).FillBytes(deadlineBytes)

	chainIDBytes := make([]byte, 32)
	new(big.Int).SetUint64(chainID).FillBytes(chainIDBytes)

	return types.Keccak256Hash(
		npBytes,
		validator.Bytes(),
		deadlineBytes,
		chainIDBytes,
		caller.Bytes(),
		[]byte{quality},
	)
}

// signedMessageHash re-hashes the preimage under the Ethereum personal-sign
// prefix, as real wallets do before producing (v, r, s).
func signedMessageHash(preimage types.Hash) []byte {
	return types.Keccak256([]byte(personalPrefix), preimage.Bytes())
}

func (EthOracle) Recover(np *wad.U256, validator types.Address, deadline uint64, chainID uint64, caller types.Address, quality uint8, sig []byte) (types.Address, error) {
	if len(sig) != 65 {
		return types.ZeroAddress, fmt.Errorf("signer: signature must be 65 bytes (r,s,v), got %d", len(sig))
	}

	preimage := PreimageHash(np, validator, deadline, chainID, caller, quality)
	digest := signedMessageHash(preimage)

	sigCopy := make([]byte, 65)
	copy(sigCopy, sig)
	if sigCopy[64] >= 27 {
		sigCopy[64] -= 27 // go-ethereum expects recovery id in [0,1], wallets emit [27,28]
	}

	pub, err := ethcrypto.SigToPub(digest, sigCopy)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("signer: recover failed: %w", err)
	}

	return types.BytesToAddress(ethcrypto.PubkeyToAddress(*pub).Bytes()), nil
}

// ErrVerificationFailed describes a recovered address that does not match
// the expected verifier. Oracle.Recover itself never returns this, it only
// fails on malformed input; Validator.PurchaseValidator reports a mismatch
// with types.ErrVerificationFailed instead.
var ErrVerificationFailed = errors.New("signer: recovered address does not match verifier")
