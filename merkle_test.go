package main

import "testing"

type hashLeaf Hash

func (h hashLeaf) Hash() Hash { return Hash(h) }

func leavesFrom(raw ...string) []Hashable {
	out := make([]Hashable, len(raw))
	for i, s := range raw {
		out[i] = hashLeaf(HashBytes([]byte(s)))
	}
	return out
}

// TestMerkleKnownAnswer checks the two-leaf case against its expected
// shape: the root is SHA-256(H0||H1), and the proof of leaf 0 is just [H1].
func TestMerkleKnownAnswer(t *testing.T) {
	items := leavesFrom("a", "b")
	h0, h1 := items[0].Hash(), items[1].Hash()

	tree := NewMerkleTree(items)
	wantRoot := combine(h0, h1)
	if tree.Root() != wantRoot {
		t.Fatalf("root mismatch: got %s want %s", tree.Root(), wantRoot)
	}

	proof := tree.Proof(0)
	if len(proof) != 1 || proof[0] != h1 {
		t.Fatalf("proof of leaf 0 should be [h1], got %v", proof)
	}
	if !VerifyMerkleProof(tree.Root(), h0, proof, 0, tree.LeafCount()) {
		t.Fatalf("proof of leaf 0 should verify")
	}
}

func TestMerkleProofRoundTripAllIndices(t *testing.T) {
	items := leavesFrom("a", "b", "c", "d", "e")
	tree := NewMerkleTree(items)
	root := tree.Root()

	for i, it := range items {
		proof := tree.Proof(i)
		if !VerifyMerkleProof(root, it.Hash(), proof, i, tree.LeafCount()) {
			t.Fatalf("leaf %d: proof did not verify", i)
		}
	}
}

func TestMerkleProofRejectsTamperedLeaf(t *testing.T) {
	items := leavesFrom("a", "b", "c")
	tree := NewMerkleTree(items)
	proof := tree.Proof(1)

	wrongLeaf := HashBytes([]byte("not-b"))
	if VerifyMerkleProof(tree.Root(), wrongLeaf, proof, 1, tree.LeafCount()) {
		t.Fatalf("proof should not verify against a different leaf")
	}
}

func TestMerkleSingleLeaf(t *testing.T) {
	items := leavesFrom("only")
	tree := NewMerkleTree(items)
	if tree.Root() != items[0].Hash() {
		t.Fatalf("single-leaf tree's root should equal the leaf")
	}
	if len(tree.Proof(0)) != 0 {
		t.Fatalf("single-leaf tree's proof should be empty")
	}
}

func TestMerkleProofOutOfRangePanics(t *testing.T) {
	tree := NewMerkleTree(leavesFrom("a", "b"))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range index")
		}
	}()
	tree.Proof(5)
}

func TestNewMerkleTreeEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for empty leaf set")
		}
	}()
	NewMerkleTree(nil)
}
