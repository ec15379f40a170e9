package main

import (
	"testing"
	"time"
)

func TestMinerMinesAndStopsOnExit(t *testing.T) {
	chain := NewBlockchain()
	mempool := NewMempool()
	server := &fakeServer{}
	miner := NewMiner(chain, mempool, server)

	go miner.Run()
	miner.Start(0)

	deadline := time.After(5 * time.Second)
	for chain.ChainLength() < 2 {
		select {
		case <-deadline:
			t.Fatalf("miner did not extend the chain within the deadline")
		case <-time.After(time.Millisecond):
		}
	}

	miner.Exit()
	// Give Run a moment to observe ExitSignal and return; nothing else to
	// assert beyond "this doesn't hang or panic", since Run has no done signal.
	time.Sleep(10 * time.Millisecond)

	found := false
	for _, m := range server.broadcasts() {
		if m.Tag == tagNewBlockHashes {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one NewBlockHashes broadcast from mining")
	}
}

func TestMinerPausedByDefault(t *testing.T) {
	chain := NewBlockchain()
	mempool := NewMempool()
	server := &fakeServer{}
	miner := NewMiner(chain, mempool, server)

	go miner.Run()
	time.Sleep(50 * time.Millisecond)

	if chain.ChainLength() != 1 {
		t.Fatalf("a miner that was never started should never extend the chain")
	}
	miner.Exit()
}
