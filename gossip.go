package main

// GossipWorker drains a shared Inbound channel of peer frames, usually with
// several workers running concurrently, each owning its own orphan map: the
// map is deliberately per-worker, not shared, so redundant GetBlock requests
// across workers are accepted as benign rather than coordinated away.
type GossipWorker struct {
	chain   *Blockchain
	mempool *Mempool
	server  Server

	orphanByParent map[Hash]*Block
}

// NewGossipWorker constructs a worker with an empty orphan map.
func NewGossipWorker(chain *Blockchain, mempool *Mempool, server Server) *GossipWorker {
	return &GossipWorker{
		chain:          chain,
		mempool:        mempool,
		server:         server,
		orphanByParent: make(map[Hash]*Block),
	}
}

// Run drains frames from in until it is closed, processing each in FIFO
// order. Multiple workers may run concurrently over the same channel; no
// ordering is promised across them.
func (w *GossipWorker) Run(in <-chan Frame) {
	for frame := range in {
		w.handleFrame(frame)
	}
}

func (w *GossipWorker) handleFrame(frame Frame) {
	msg, err := DecodeMessage(frame.Raw)
	if err != nil {
		logWarn("gossip: dropping malformed frame from %s: %v", frame.Peer.ID(), err)
		return
	}
	w.handleMessage(msg, frame.Peer)
}

func (w *GossipWorker) handleMessage(msg Message, peer Peer) {
	switch msg.Tag {
	case tagPing:
		w.handlePing(msg, peer)
	case tagPong:
		w.handlePong(msg)
	case tagNewBlockHashes:
		w.handleNewBlockHashes(msg, peer)
	case tagGetBlock:
		w.handleGetBlock(msg, peer)
	case tagBlock:
		w.handleBlock(msg)
	case tagNewTransactionHashes:
		w.handleNewTransactionHashes(msg, peer)
	case tagGetTransaction:
		w.handleGetTransaction(msg, peer)
	case tagTransaction:
		w.handleTransaction(msg)
	}
}

func (w *GossipWorker) handlePing(msg Message, peer Peer) {
	if err := peer.Write(NewPong(msg.Text)); err != nil {
		logWarn("gossip: reply to ping from %s failed: %v", peer.ID(), err)
	}
}

func (w *GossipWorker) handlePong(msg Message) {
	logNetwork("pong %q", msg.Text)
}

func (w *GossipWorker) handleNewBlockHashes(msg Message, peer Peer) {
	var wanted []Hash
	for _, h := range msg.Hashes {
		if !w.chain.Has(h) {
			wanted = append(wanted, h)
		}
	}
	if len(wanted) > 0 {
		if err := peer.Write(NewGetBlockMsg(wanted)); err != nil {
			logWarn("gossip: getblock request to %s failed: %v", peer.ID(), err)
		}
	}
}

func (w *GossipWorker) handleGetBlock(msg Message, peer Peer) {
	var have []*Block
	for _, h := range msg.Hashes {
		if b, ok := w.chain.Get(h); ok {
			have = append(have, b)
		}
	}
	if len(have) > 0 {
		if err := peer.Write(NewBlockMsg(have)); err != nil {
			logWarn("gossip: block response to %s failed: %v", peer.ID(), err)
		}
	}
}

// handleBlock is the core inventory-acceptance algorithm: stash every block
// by its parent hash first, so that dependencies among a single batch
// resolve regardless of arrival order within it, then walk each block
// through the validation gate and drain any orphan chain it unblocks.
func (w *GossipWorker) handleBlock(msg Message) {
	for _, b := range msg.Blocks {
		w.orphanByParent[b.Header.Parent] = b
	}

	var toFetch []Hash
	var inserted []Hash

	for _, b := range msg.Blocks {
		h := b.Hash()
		if w.chain.Has(h) {
			continue
		}
		if _, ok := w.chain.Get(b.Header.Parent); ok && validateBlock(b) {
			w.chain.Insert(b)
			inserted = append(inserted, h)
			delete(w.orphanByParent, b.Header.Parent)

			parent := h
			for {
				child, ok := w.orphanByParent[parent]
				if !ok {
					break
				}
				delete(w.orphanByParent, parent)
				if !validateBlock(child) {
					break
				}
				w.chain.Insert(child)
				inserted = append(inserted, child.Hash())
				parent = child.Hash()
			}
		} else if validateBlockWithoutParent(b) {
			toFetch = append(toFetch, b.Header.Parent)
		}
	}

	if len(toFetch) > 0 {
		w.server.Broadcast(NewGetBlockMsg(toFetch))
	}
	if len(inserted) > 0 {
		w.server.Broadcast(NewBlockHashesMsg(inserted))
	}
}

// validateBlock is the full acceptance gate for a block whose parent is
// already known: PoW, merkle root, and every embedded transaction's
// signature and address binding. Failures are silently dropped, never
// surfaced to the peer.
func validateBlock(b *Block) bool {
	if !b.SatisfiesPoW() {
		return false
	}
	if !b.MerkleRootMatches() {
		return false
	}
	for _, tx := range b.Content.Transactions {
		if tx == (SignedTransaction{}) {
			continue // genesis-style sentinel, carries no signature to verify
		}
		if tx.Verify() != nil {
			return false
		}
	}
	return true
}

// validateBlockWithoutParent checks only what can be checked before the
// parent is known: PoW against the claimed difficulty. A missing parent
// with valid PoW is worth requesting; one with invalid PoW is not.
func validateBlockWithoutParent(b *Block) bool {
	return b.SatisfiesPoW()
}

func (w *GossipWorker) handleNewTransactionHashes(msg Message, peer Peer) {
	var wanted []Hash
	for _, h := range msg.Hashes {
		if !w.mempool.Has(h) {
			wanted = append(wanted, h)
		}
	}
	if len(wanted) > 0 {
		if err := peer.Write(NewGetTransactionMsg(wanted)); err != nil {
			logWarn("gossip: gettransaction request to %s failed: %v", peer.ID(), err)
		}
	}
}

func (w *GossipWorker) handleGetTransaction(msg Message, peer Peer) {
	var have []SignedTransaction
	for _, h := range msg.Hashes {
		if tx, ok := w.mempool.Get(h); ok {
			have = append(have, tx)
		}
	}
	if len(have) > 0 {
		if err := peer.Write(NewTransactionMsg(have)); err != nil {
			logWarn("gossip: transaction response to %s failed: %v", peer.ID(), err)
		}
	}
}

// handleTransaction mirrors handleBlock's ingest-and-rebroadcast shape at
// the transaction-gossip surface, by symmetry with block gossip.
func (w *GossipWorker) handleTransaction(msg Message) {
	var accepted []Hash
	for _, tx := range msg.Transactions {
		if tx.Verify() != nil {
			continue
		}
		if w.mempool.InsertIfNew(tx) {
			accepted = append(accepted, tx.Hash())
		}
	}
	if len(accepted) > 0 {
		w.server.Broadcast(NewTransactionHashesMsg(accepted))
	}
}
