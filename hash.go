package main

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hash is a 256-bit content identifier, stored big-endian. Ordering treats
// the 32 bytes as a single big-endian integer: the high half dominates.
type Hash [32]byte

// ZeroHash is the all-zero sentinel used as genesis's parent.
var ZeroHash Hash

// HashBytes returns the SHA-256 digest of b as a Hash.
func HashBytes(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// HashFromBytes copies the low-order (or only, if len==32) bytes of b into a
// Hash. Panics if b is longer than 32 bytes, matching the fixed-width
// contract callers are expected to respect.
func HashFromBytes(b []byte) Hash {
	var h Hash
	if len(b) > 32 {
		panic("hash: source longer than 32 bytes")
	}
	copy(h[32-len(b):], b)
	return h
}

// Bytes returns the 32-byte big-endian representation.
func (h Hash) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

func (h Hash) halves() (hi, lo uint64, hi2, lo2 uint64) {
	hi = binary.BigEndian.Uint64(h[0:8])
	lo = binary.BigEndian.Uint64(h[8:16])
	hi2 = binary.BigEndian.Uint64(h[16:24])
	lo2 = binary.BigEndian.Uint64(h[24:32])
	return
}

// Cmp returns -1, 0 or 1 as h is less than, equal to, or greater than o,
// comparing the two 128-bit big-endian halves with the high half dominant.
func (h Hash) Cmp(o Hash) int {
	aHi1, aLo1, aHi2, aLo2 := h.halves()
	bHi1, bLo1, bHi2, bLo2 := o.halves()
	if aHi1 != bHi1 {
		return cmpUint64(aHi1, bHi1)
	}
	if aLo1 != bLo1 {
		return cmpUint64(aLo1, bLo1)
	}
	if aHi2 != bHi2 {
		return cmpUint64(aHi2, bHi2)
	}
	return cmpUint64(aLo2, bLo2)
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessOrEqual reports whether h <= o under Cmp's ordering. This is the PoW
// target check: header_hash <= difficulty.
func (h Hash) LessOrEqual(o Hash) bool {
	return h.Cmp(o) <= 0
}

// Equal reports byte-for-byte equality.
func (h Hash) Equal(o Hash) bool {
	return h == o
}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String renders h as lowercase hex, for logging and JSON.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Address is a 160-bit account identifier: the low-order 20 bytes of the
// SHA-256 of a 32-byte public key encoding.
type Address [20]byte

// AddressFromPublicKey derives the address bound to an Ed25519 public key.
func AddressFromPublicKey(pub []byte) Address {
	digest := sha256.Sum256(pub)
	var a Address
	copy(a[:], digest[12:32])
	return a
}

// Bytes returns the 20-byte representation.
func (a Address) Bytes() []byte {
	out := make([]byte, 20)
	copy(out, a[:])
	return out
}

// String renders a as lowercase hex.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Equal reports byte-for-byte equality.
func (a Address) Equal(o Address) bool {
	return a == o
}
