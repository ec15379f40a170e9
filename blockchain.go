package main

import "sync"

// GenesisDifficulty is the fixed target genesis (and, absent difficulty
// adjustment, every other block) mines against: the top two bits clear,
// the rest set. Difficulty adjustment over epochs is out of scope; every
// header simply inherits its parent's difficulty at mining time.
var GenesisDifficulty = Hash{0x3f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func buildGenesisBlock() *Block {
	sentinel := SignedTransaction{} // zero-value: genesis is exempt from the validation gate
	block := NewBlock(ZeroHash, GenesisDifficulty, 0, 0, []SignedTransaction{sentinel})
	block.Depth = 0
	return block
}

// Blockchain is the in-memory, hash-indexed store of every block this node
// has accepted, plus the current longest-chain tip. Miner and every gossip
// worker share one Blockchain under mu; critical sections are kept short.
type Blockchain struct {
	mu          sync.Mutex
	blocks      map[Hash]*Block
	tip         Hash
	chainLength uint64
}

// NewBlockchain creates the genesis block and initializes tip/chainLength.
func NewBlockchain() *Blockchain {
	genesis := buildGenesisBlock()
	h := genesis.Hash()
	return &Blockchain{
		blocks:      map[Hash]*Block{h: genesis},
		tip:         h,
		chainLength: 1,
	}
}

// Tip returns the current tip hash.
func (bc *Blockchain) Tip() Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tip
}

// ChainLength returns the length of the chain ending at the current tip.
func (bc *Blockchain) ChainLength() uint64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.chainLength
}

// Get returns the block stored under hash, if any.
func (bc *Blockchain) Get(hash Hash) (*Block, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	b, ok := bc.blocks[hash]
	return b, ok
}

// Has reports whether hash is already stored.
func (bc *Blockchain) Has(hash Hash) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	_, ok := bc.blocks[hash]
	return ok
}

// TipAndDifficulty snapshots the tip hash and the difficulty inherited from
// it, for the miner's per-iteration read.
func (bc *Blockchain) TipAndDifficulty() (Hash, Hash) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	tip := bc.blocks[bc.tip]
	return bc.tip, tip.Header.Difficulty
}

// Insert stores b and advances the tip if b's chain is now the longest.
// Precondition, enforced by callers (the gossip worker for received blocks,
// the miner for self-mined ones): PoW has been checked, the merkle root
// matches, and b.Header.Parent is already present. Duplicate inserts are
// silently skipped by key, not an error.
func (bc *Blockchain) Insert(b *Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.insertLocked(b)
}

// InsertIfTipUnchanged inserts b only if the chain's tip is still
// expectedParent at the moment of insertion, atomically with the check.
// This is the miner's stale-tip guard: a block mined against a parent that
// has since been superseded is dropped rather than inserted off the
// longest chain. Returns whether the insert happened.
func (bc *Blockchain) InsertIfTipUnchanged(b *Block, expectedParent Hash) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.tip != expectedParent {
		return false
	}
	bc.insertLocked(b)
	return true
}

func (bc *Blockchain) insertLocked(b *Block) {
	h := b.Hash()
	if _, exists := bc.blocks[h]; exists {
		return
	}
	parent, ok := bc.blocks[b.Header.Parent]
	depth := uint64(0)
	if ok {
		depth = parent.Depth + 1
	}
	b.Depth = depth
	bc.blocks[h] = b

	length := depth + 1
	if length > bc.chainLength {
		bc.chainLength = length
		bc.tip = h
	}
}

// BlocksInLongestChain walks from the tip back to genesis, inclusive.
func (bc *Blockchain) BlocksInLongestChain() []Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var hashes []Hash
	cur := bc.tip
	for {
		hashes = append(hashes, cur)
		block := bc.blocks[cur]
		if block.Header.Parent.IsZero() {
			break
		}
		cur = block.Header.Parent
	}
	return hashes
}
