package main

import "testing"

func sampleBlock(t *testing.T) *Block {
	t.Helper()
	st, _ := newSignedTx(t, 2)
	return NewBlock(HashBytes([]byte("parent")), GenesisDifficulty, 7, 42, []SignedTransaction{st})
}

func TestMessagePingPongRoundTrip(t *testing.T) {
	for _, m := range []Message{NewPing("abc"), NewPong("xyz")} {
		decoded, err := DecodeMessage(m.Encode())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Tag != m.Tag || decoded.Text != m.Text {
			t.Fatalf("round trip mismatch: got %+v want %+v", decoded, m)
		}
	}
}

func TestMessageHashSequencesRoundTrip(t *testing.T) {
	hashes := []Hash{HashBytes([]byte("a")), HashBytes([]byte("b"))}
	for _, m := range []Message{
		NewBlockHashesMsg(hashes),
		NewGetBlockMsg(hashes),
		NewTransactionHashesMsg(hashes),
		NewGetTransactionMsg(hashes),
	} {
		decoded, err := DecodeMessage(m.Encode())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(decoded.Hashes) != len(hashes) {
			t.Fatalf("expected %d hashes, got %d", len(hashes), len(decoded.Hashes))
		}
		for i := range hashes {
			if decoded.Hashes[i] != hashes[i] {
				t.Fatalf("hash %d mismatch", i)
			}
		}
	}
}

func TestMessageBlockRoundTrip(t *testing.T) {
	b := sampleBlock(t)
	m := NewBlockMsg([]*Block{b})

	decoded, err := DecodeMessage(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(decoded.Blocks))
	}
	got := decoded.Blocks[0]
	if got.Header != b.Header {
		t.Fatalf("header mismatch after round trip")
	}
	if len(got.Content.Transactions) != 1 || got.Content.Transactions[0] != b.Content.Transactions[0] {
		t.Fatalf("transaction mismatch after round trip")
	}
}

func TestMessageTransactionRoundTrip(t *testing.T) {
	tx, _ := newSignedTx(t, 5)
	m := NewTransactionMsg([]SignedTransaction{tx})

	decoded, err := DecodeMessage(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Transactions) != 1 || decoded.Transactions[0] != tx {
		t.Fatalf("transaction round trip mismatch")
	}
}

func TestDecodeMessageRejectsTruncatedFrame(t *testing.T) {
	m := NewBlockHashesMsg([]Hash{HashBytes([]byte("a"))})
	raw := m.Encode()
	if _, err := DecodeMessage(raw[:len(raw)-1]); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame for a truncated frame, got %v", err)
	}
}

func TestDecodeMessageRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeMessage([]byte{0xfe}); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame for an unknown tag, got %v", err)
	}
}

func TestDecodeMessageRejectsEmptyFrame(t *testing.T) {
	if _, err := DecodeMessage(nil); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame for an empty frame, got %v", err)
	}
}
