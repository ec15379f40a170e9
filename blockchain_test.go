package main

import "testing"

// mineOnto finds a nonce that satisfies difficulty for a block built on
// parent; tests use a low-difficulty (easy) target so this terminates fast.
func mineOnto(parent Hash, difficulty Hash, txs []SignedTransaction) *Block {
	for nonce := uint32(0); ; nonce++ {
		b := NewBlock(parent, difficulty, nonce, 0, txs)
		if b.SatisfiesPoW() {
			return b
		}
	}
}

func easyDifficulty() Hash {
	// top byte zero, rest set: satisfied often, not trivially by every nonce.
	d := Hash{}
	for i := 1; i < 32; i++ {
		d[i] = 0xff
	}
	return d
}

func TestBlockchainGenesis(t *testing.T) {
	bc := NewBlockchain()
	if bc.ChainLength() != 1 {
		t.Fatalf("genesis-only chain should have length 1, got %d", bc.ChainLength())
	}
	if !bc.Has(bc.Tip()) {
		t.Fatalf("tip block should be present")
	}
}

func TestBlockchainSingleInsertAdvancesTip(t *testing.T) {
	bc := NewBlockchain()
	genesis := bc.Tip()
	difficulty := easyDifficulty()
	sentinel := SignedTransaction{}

	b1 := mineOnto(genesis, difficulty, []SignedTransaction{sentinel})
	bc.Insert(b1)

	if bc.Tip() != b1.Hash() {
		t.Fatalf("tip should advance to the new block")
	}
	if bc.ChainLength() != 2 {
		t.Fatalf("chain length should be 2, got %d", bc.ChainLength())
	}
}

// TestBlockchainForkFirstSeenWins verifies the strict-greater tie-breaking
// rule: when two blocks extend the same parent to the same depth, the first
// one inserted keeps the tip.
func TestBlockchainForkFirstSeenWins(t *testing.T) {
	bc := NewBlockchain()
	genesis := bc.Tip()
	difficulty := easyDifficulty()
	sentinel := SignedTransaction{}

	a := mineOnto(genesis, difficulty, []SignedTransaction{sentinel})
	// Force a distinct hash for the competing block at the same depth.
	txB, _ := newSignedTx(t, 7)
	b := mineOnto(genesis, difficulty, []SignedTransaction{txB})

	bc.Insert(a)
	bc.Insert(b)

	if bc.Tip() != a.Hash() {
		t.Fatalf("first-seen block should keep the tip at an equal-depth fork")
	}
	if bc.ChainLength() != 2 {
		t.Fatalf("chain length should still be 2 after the fork, got %d", bc.ChainLength())
	}
}

func TestBlockchainInsertIfTipUnchanged(t *testing.T) {
	bc := NewBlockchain()
	genesis := bc.Tip()
	difficulty := easyDifficulty()
	sentinel := SignedTransaction{}

	b1 := mineOnto(genesis, difficulty, []SignedTransaction{sentinel})
	bc.Insert(b1)

	// Mined against the stale genesis parent: must be rejected now that the
	// tip has moved to b1. Distinct content keeps it from being b1 itself.
	txStale, _ := newSignedTx(t, 7)
	stale := mineOnto(genesis, difficulty, []SignedTransaction{txStale})
	if stale.Hash() == b1.Hash() {
		t.Skip("nonce search produced a duplicate block; extremely unlikely")
	}
	if bc.InsertIfTipUnchanged(stale, genesis) {
		t.Fatalf("insert against a stale parent should be rejected")
	}
	if bc.Tip() != b1.Hash() {
		t.Fatalf("tip should remain at b1 after a rejected stale insert")
	}
}

func TestBlockchainBlocksInLongestChain(t *testing.T) {
	bc := NewBlockchain()
	genesis := bc.Tip()
	difficulty := easyDifficulty()
	sentinel := SignedTransaction{}

	b1 := mineOnto(genesis, difficulty, []SignedTransaction{sentinel})
	bc.Insert(b1)
	b2 := mineOnto(b1.Hash(), difficulty, []SignedTransaction{sentinel})
	bc.Insert(b2)

	hashes := bc.BlocksInLongestChain()
	if len(hashes) != 3 {
		t.Fatalf("expected 3 blocks (genesis, b1, b2), got %d", len(hashes))
	}
	if hashes[0] != b2.Hash() || hashes[len(hashes)-1] != genesis {
		t.Fatalf("expected walk from tip to genesis, got %v", hashes)
	}
}
