package main

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"math"
)

// ErrInvalidSignature is returned when a SignedTransaction's signature does
// not verify against its embedded public key.
var ErrInvalidSignature = errors.New("transaction: signature does not verify")

// ErrAddressMismatch is returned when the embedded public key does not hash
// to the claimed sender address.
var ErrAddressMismatch = errors.New("transaction: public key does not bind to sender address")

const unsignedTxSize = 20 + 20 + 4 // sender + recipient + amount

// Transaction is the unsigned value-transfer record: a flat, fixed-width
// tuple with no variable-length fields.
type Transaction struct {
	Sender    Address
	Recipient Address
	Amount    float32
}

// Encode serializes t deterministically: sender, then recipient, then
// amount as a little-endian IEEE-754 float32. Field order and widths are
// fixed so the same Transaction always produces the same bytes, which is
// what signing and hashing rely on.
func (t Transaction) Encode() []byte {
	buf := make([]byte, unsignedTxSize)
	copy(buf[0:20], t.Sender[:])
	copy(buf[20:40], t.Recipient[:])
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(t.Amount))
	return buf
}

// Sign produces an Ed25519 signature over t's deterministic encoding and
// wraps it, along with the public key, into a SignedTransaction.
func Sign(t Transaction, priv ed25519.PrivateKey) SignedTransaction {
	sig := ed25519.Sign(priv, t.Encode())
	var pub [32]byte
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	var sigArr [64]byte
	copy(sigArr[:], sig)
	return SignedTransaction{
		Transaction: t,
		PubKey:      pub,
		Signature:   sigArr,
	}
}

const signedTxSize = unsignedTxSize + 32 + 64

// SignedTransaction is a Transaction plus the detached Ed25519 signature
// over its deterministic encoding, and the public key that produced it.
type SignedTransaction struct {
	Transaction
	PubKey    [32]byte
	Signature [64]byte
}

// Encode serializes the signed transaction deterministically: the unsigned
// transaction's encoding, then the public key, then the signature.
func (st SignedTransaction) Encode() []byte {
	buf := make([]byte, 0, signedTxSize)
	buf = append(buf, st.Transaction.Encode()...)
	buf = append(buf, st.PubKey[:]...)
	buf = append(buf, st.Signature[:]...)
	return buf
}

// Hash is the SHA-256 of the signed transaction's own encoding, signature
// included, used as its identity on the wire and in the mempool.
func (st SignedTransaction) Hash() Hash {
	return HashBytes(st.Encode())
}

// Verify checks the Ed25519 signature against the embedded public key, and
// that the public key binds to the claimed sender address. Both checks are
// mandatory for acceptance.
func (st SignedTransaction) Verify() error {
	if !ed25519.Verify(st.PubKey[:], st.Transaction.Encode(), st.Signature[:]) {
		return ErrInvalidSignature
	}
	if AddressFromPublicKey(st.PubKey[:]) != st.Sender {
		return ErrAddressMismatch
	}
	return nil
}

// DecodeSignedTransaction parses a SignedTransaction from its deterministic
// encoding. Returns an error if b is not exactly signedTxSize bytes.
func DecodeSignedTransaction(b []byte) (SignedTransaction, error) {
	if len(b) != signedTxSize {
		return SignedTransaction{}, errors.New("transaction: wrong encoded length")
	}
	var st SignedTransaction
	copy(st.Sender[:], b[0:20])
	copy(st.Recipient[:], b[20:40])
	st.Amount = math.Float32frombits(binary.LittleEndian.Uint32(b[40:44]))
	copy(st.PubKey[:], b[44:76])
	copy(st.Signature[:], b[76:140])
	return st, nil
}
