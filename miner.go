package main

import (
	"math/rand"
	"time"
)

// MinerSignal is sent on the miner's control channel.
type MinerSignal struct {
	start  bool // true for Start, false for Exit
	lambda uint64
}

// StartSignal requests the Running(lambda) state.
func StartSignal(lambdaMicros uint64) MinerSignal {
	return MinerSignal{start: true, lambda: lambdaMicros}
}

// ExitSignal requests the terminal ShuttingDown state.
func ExitSignal() MinerSignal {
	return MinerSignal{start: false}
}

type minerState int

const (
	statePaused minerState = iota
	stateRunning
	stateShuttingDown
)

// Miner is the concurrent proof-of-work worker. It owns no blockchain
// mutation beyond calling Blockchain.InsertIfTipUnchanged; all shared-state
// discipline lives there.
type Miner struct {
	control chan MinerSignal
	chain   *Blockchain
	mempool *Mempool
	server  Server

	state  minerState
	lambda uint64
	rng    *rand.Rand
}

// NewMiner constructs a Miner in the initial Paused state.
func NewMiner(chain *Blockchain, mempool *Mempool, server Server) *Miner {
	return &Miner{
		control: make(chan MinerSignal, 8),
		chain:   chain,
		mempool: mempool,
		server:  server,
		state:   statePaused,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start requests Running(lambdaMicros). Non-blocking: the control channel
// is buffered, matching the single-producer/single-consumer contract.
func (m *Miner) Start(lambdaMicros uint64) {
	m.control <- StartSignal(lambdaMicros)
}

// Exit requests ShuttingDown. Terminal: once observed, Run returns.
func (m *Miner) Exit() {
	m.control <- ExitSignal()
}

// Run executes the miner's main loop until Exit is observed or the control
// channel is closed (treated as fatal: host shutdown without a clean Exit
// is not expected behavior, so Run panics rather than silently returning).
func (m *Miner) Run() {
	for {
		switch m.state {
		case statePaused:
			sig, ok := <-m.control
			if !ok {
				panic("miner: control channel disconnected while paused")
			}
			m.applySignal(sig)
			continue
		case stateShuttingDown:
			return
		}

		select {
		case sig, ok := <-m.control:
			if !ok {
				panic("miner: control channel disconnected while running")
			}
			m.applySignal(sig)
			continue
		default:
		}

		m.attempt()

		if m.state == stateRunning && m.lambda > 0 {
			time.Sleep(time.Duration(m.lambda) * time.Microsecond)
		}
	}
}

func (m *Miner) applySignal(sig MinerSignal) {
	if !sig.start {
		m.state = stateShuttingDown
		return
	}
	m.state = stateRunning
	m.lambda = sig.lambda
}

// attempt performs one mining iteration: snapshot tip/difficulty, assemble a
// batch from the mempool, search a single random nonce, and insert on
// success provided the tip hasn't moved. A batch whose block is not
// inserted goes back into the mempool.
func (m *Miner) attempt() {
	parent, difficulty := m.chain.TipAndDifficulty()

	batch := m.mempool.Drain(maxBlockTransactions)
	drained := batch
	if len(batch) == 0 {
		batch = []SignedTransaction{{}} // keep merkle construction's >=1 element precondition
	}
	inserted := false
	defer func() {
		if !inserted {
			for _, tx := range drained {
				m.mempool.InsertIfNew(tx)
			}
		}
	}()

	nonce := m.rng.Uint32()
	timestampMs := uint64(time.Now().UnixMilli())
	block := NewBlock(parent, difficulty, nonce, timestampMs, batch)

	if !block.SatisfiesPoW() {
		return
	}

	if m.chain.InsertIfTipUnchanged(block, parent) {
		inserted = true
		logMiner("accepted block %s at depth %d", block.Hash(), block.Depth)
		m.server.Broadcast(NewBlockHashesMsg([]Hash{block.Hash()}))
	}
}

// maxBlockTransactions bounds how many mempool entries one candidate block
// draws, purely to keep merkle construction and frame sizes small; it is
// not a fee market.
const maxBlockTransactions = 256
