package main

import (
	"encoding/binary"
	"errors"
)

var errShortHeader = errors.New("block: wrong encoded header length")

const headerSize = 32 + 4 + 32 + 16 + 32 // parent, nonce, difficulty, timestamp, merkle_root

// Header is the part of a Block that gets hashed. The content never
// re-enters the hash except via MerkleRoot.
type Header struct {
	Parent      Hash
	Nonce       uint32
	Difficulty  Hash
	TimestampMs uint64 // wall-clock milliseconds; wire-encoded as a 128-bit field
	MerkleRoot  Hash
}

// Encode serializes the header deterministically: parent, nonce (LE u32),
// difficulty, timestamp (LE, widened to 128 bits), merkle root.
func (h Header) Encode() []byte {
	buf := make([]byte, headerSize)
	off := 0
	copy(buf[off:off+32], h.Parent[:])
	off += 32
	binary.LittleEndian.PutUint32(buf[off:off+4], h.Nonce)
	off += 4
	copy(buf[off:off+32], h.Difficulty[:])
	off += 32
	binary.LittleEndian.PutUint64(buf[off:off+8], h.TimestampMs)
	// high 8 bytes of the 128-bit timestamp field are always zero: no block
	// in this system's lifetime needs more than 64 bits of milliseconds.
	off += 16
	copy(buf[off:off+32], h.MerkleRoot[:])
	return buf
}

// Hash is SHA-256 of the header's encoding.
func (h Header) Hash() Hash {
	return HashBytes(h.Encode())
}

// DecodeHeader parses a Header from its deterministic encoding.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != headerSize {
		return Header{}, errShortHeader
	}
	var h Header
	off := 0
	copy(h.Parent[:], b[off:off+32])
	off += 32
	h.Nonce = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	copy(h.Difficulty[:], b[off:off+32])
	off += 32
	h.TimestampMs = binary.LittleEndian.Uint64(b[off : off+8])
	off += 16
	copy(h.MerkleRoot[:], b[off:off+32])
	return h, nil
}

// Content is the ordered batch of signed transactions a block commits to.
type Content struct {
	Transactions []SignedTransaction
}

func (c Content) merkleRoot() Hash {
	items := make([]Hashable, len(c.Transactions))
	for i, tx := range c.Transactions {
		items[i] = tx
	}
	return NewMerkleTree(items).Root()
}

// Block pairs a Header with its Content. block.Hash() == header.Hash().
type Block struct {
	Header  Header
	Content Content
	// Depth caches the block's distance from genesis (genesis has depth 0),
	// so tip selection on insert is O(1) instead of walking parents.
	Depth uint64
}

// Hash delegates to the header, per block.hash() == header.hash().
func (b *Block) Hash() Hash {
	return b.Header.Hash()
}

// NewBlock assembles a block: computes the merkle root over txs, builds the
// header, and leaves Depth for the caller (the blockchain) to fill in on
// insert.
func NewBlock(parent Hash, difficulty Hash, nonce uint32, timestampMs uint64, txs []SignedTransaction) *Block {
	content := Content{Transactions: txs}
	header := Header{
		Parent:      parent,
		Nonce:       nonce,
		Difficulty:  difficulty,
		TimestampMs: timestampMs,
		MerkleRoot:  content.merkleRoot(),
	}
	return &Block{Header: header, Content: content}
}

// SatisfiesPoW reports whether the block's hash is at or below its
// difficulty target.
func (b *Block) SatisfiesPoW() bool {
	return b.Hash().LessOrEqual(b.Header.Difficulty)
}

// MerkleRootMatches recomputes the merkle root over Content and compares it
// to the header's claimed root.
func (b *Block) MerkleRootMatches() bool {
	return b.Content.merkleRoot().Equal(b.Header.MerkleRoot)
}
