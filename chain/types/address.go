package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address identifies a participant (user, validator owner, verifier) or a
// validator instance itself.
type Address [AddressLength]byte

// Hash is a 32-byte digest, used for block-independent message hashing in
// the purchase-authorization signature scheme.
type Hash [HashLength]byte

var ZeroAddress = Address{}
var ZeroHash = Hash{}

func BytesToAddress(b []byte) Address {
	var addr Address
	if len(b) > AddressLength {
		copy(addr[:], b[len(b)-AddressLength:])
	} else {
		copy(addr[AddressLength-len(b):], b)
	}
	return addr
}

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		copy(h[:], b[len(b)-HashLength:])
	} else {
		copy(h[HashLength-len(b):], b)
	}
	return h
}

func (addr Address) Hex() string    { return "0x" + hex.EncodeToString(addr[:]) }
func (addr Address) String() string { return addr.Hex() }
func (addr Address) Bytes() []byte  { return addr[:] }

func (addr Address) Equal(other Address) bool { return bytes.Equal(addr[:], other[:]) }
func (addr Address) IsZero() bool             { return addr.Equal(ZeroAddress) }

func (h Hash) Hex() string    { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }
func (h Hash) Bytes() []byte  { return h[:] }

func (h Hash) Equal(other Hash) bool { return bytes.Equal(h[:], other[:]) }
func (h Hash) IsZero() bool          { return h.Equal(ZeroHash) }

func HexToAddress(s string) (Address, error) {
	if len(s) > 2 && s[:2] == "0x" {
		s = s[2:]
	}
	if len(s) != AddressLength*2 {
		return ZeroAddress, fmt.Errorf("invalid address length: expected %d, got %d", AddressLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("invalid hex string: %w", err)
	}
	return BytesToAddress(b), nil
}

func HexToHash(s string) (Hash, error) {
	if len(s) > 2 && s[:2] == "0x" {
		s = s[2:]
	}
	if len(s) != HashLength*2 {
		return ZeroHash, fmt.Errorf("invalid hash length: expected %d, got %d", HashLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hex string: %w", err)
	}
	return BytesToHash(b), nil
}

// Keccak256 computes the Keccak256 hash used by the purchase-authorization
// preimage and by deterministic validator identity derivation.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

func Keccak256Hash(data ...[]byte) Hash {
	return BytesToHash(Keccak256(data...))
}

func ParseAddress(s string) (Address, error) {
	if s == "" {
		return ZeroAddress, errors.New("empty address string")
	}
	return HexToAddress(s)
}

func ParseHash(s string) (Hash, error) {
	if s == "" {
		return ZeroHash, errors.New("empty hash string")
	}
	return HexToHash(s)
}
