package main

import "testing"

func TestBlockHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Parent:      HashBytes([]byte("parent")),
		Nonce:       12345,
		Difficulty:  GenesisDifficulty,
		TimestampMs: 1700000000000,
		MerkleRoot:  HashBytes([]byte("root")),
	}
	decoded, err := DecodeHeader(h.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != h {
		t.Fatalf("header round trip mismatch:\n got %+v\nwant %+v", decoded, h)
	}
}

func TestBlockHashDelegatesToHeader(t *testing.T) {
	st, _ := newSignedTx(t, 1)
	b := NewBlock(ZeroHash, GenesisDifficulty, 0, 0, []SignedTransaction{st})
	if b.Hash() != b.Header.Hash() {
		t.Fatalf("block hash should equal header hash")
	}
}

func TestBlockMerkleRootMatches(t *testing.T) {
	st, _ := newSignedTx(t, 1)
	b := NewBlock(ZeroHash, GenesisDifficulty, 0, 0, []SignedTransaction{st})
	if !b.MerkleRootMatches() {
		t.Fatalf("freshly built block should have a matching merkle root")
	}

	b.Content.Transactions[0].Amount = 999
	if b.MerkleRootMatches() {
		t.Fatalf("tampering with content should invalidate the merkle root check")
	}
}

func TestBlockSatisfiesPoW(t *testing.T) {
	st, _ := newSignedTx(t, 1)
	lowDifficulty := Hash{} // nothing satisfies an all-zero target except an exact zero hash
	b := NewBlock(ZeroHash, lowDifficulty, 0, 0, []SignedTransaction{st})
	if b.SatisfiesPoW() {
		t.Fatalf("a block should not satisfy an all-zero target by chance")
	}
}
