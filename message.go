package main

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedFrame is returned by DecodeMessage when a raw frame cannot be
// parsed into a Message. Per the error-handling policy, the caller drops
// the frame and logs a warning; it never propagates further.
var ErrMalformedFrame = errors.New("message: malformed frame")

// Message tags, one per wire variant.
const (
	tagPing byte = iota
	tagPong
	tagNewBlockHashes
	tagGetBlock
	tagBlock
	tagNewTransactionHashes
	tagGetTransaction
	tagTransaction
)

// Message is the tagged union of peer-protocol frames. Exactly one of the
// payload fields is meaningful, selected by Tag.
type Message struct {
	Tag          byte
	Text         string
	Hashes       []Hash
	Blocks       []*Block
	Transactions []SignedTransaction
}

// NewPing builds a Ping(nonce) message.
func NewPing(nonce string) Message { return Message{Tag: tagPing, Text: nonce} }

// NewPong builds a Pong(nonce) message.
func NewPong(nonce string) Message { return Message{Tag: tagPong, Text: nonce} }

// NewBlockHashesMsg builds a NewBlockHashes(hashes) message.
func NewBlockHashesMsg(hashes []Hash) Message { return Message{Tag: tagNewBlockHashes, Hashes: hashes} }

// NewGetBlockMsg builds a GetBlock(hashes) message.
func NewGetBlockMsg(hashes []Hash) Message { return Message{Tag: tagGetBlock, Hashes: hashes} }

// NewBlockMsg builds a Block(blocks) message.
func NewBlockMsg(blocks []*Block) Message { return Message{Tag: tagBlock, Blocks: blocks} }

// NewTransactionHashesMsg builds a NewTransactionHashes(hashes) message.
func NewTransactionHashesMsg(hashes []Hash) Message {
	return Message{Tag: tagNewTransactionHashes, Hashes: hashes}
}

// NewGetTransactionMsg builds a GetTransaction(hashes) message.
func NewGetTransactionMsg(hashes []Hash) Message {
	return Message{Tag: tagGetTransaction, Hashes: hashes}
}

// NewTransactionMsg builds a Transaction(txs) message.
func NewTransactionMsg(txs []SignedTransaction) Message {
	return Message{Tag: tagTransaction, Transactions: txs}
}

func putUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func encodeString(buf []byte, s string) []byte {
	buf = putUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func encodeHashes(buf []byte, hashes []Hash) []byte {
	buf = putUint32(buf, uint32(len(hashes)))
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return buf
}

func encodeBlock(buf []byte, b *Block) []byte {
	buf = append(buf, b.Header.Encode()...)
	buf = putUint32(buf, uint32(len(b.Content.Transactions)))
	for _, tx := range b.Content.Transactions {
		buf = append(buf, tx.Encode()...)
	}
	return buf
}

func encodeBlocks(buf []byte, blocks []*Block) []byte {
	buf = putUint32(buf, uint32(len(blocks)))
	for _, b := range blocks {
		buf = encodeBlock(buf, b)
	}
	return buf
}

func encodeTransactions(buf []byte, txs []SignedTransaction) []byte {
	buf = putUint32(buf, uint32(len(txs)))
	for _, tx := range txs {
		buf = append(buf, tx.Encode()...)
	}
	return buf
}

// Encode serializes m: a one-byte tag followed by its payload, using
// little-endian scalars and length-prefixed sequences throughout.
func (m Message) Encode() []byte {
	buf := []byte{m.Tag}
	switch m.Tag {
	case tagPing, tagPong:
		buf = encodeString(buf, m.Text)
	case tagNewBlockHashes, tagGetBlock, tagNewTransactionHashes, tagGetTransaction:
		buf = encodeHashes(buf, m.Hashes)
	case tagBlock:
		buf = encodeBlocks(buf, m.Blocks)
	case tagTransaction:
		buf = encodeTransactions(buf, m.Transactions)
	}
	return buf
}

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) take(n int) ([]byte, bool) {
	if r.pos+n > len(r.b) {
		return nil, false
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, true
}

func (r *byteReader) uint32() (uint32, bool) {
	raw, ok := r.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(raw), true
}

func (r *byteReader) readString() (string, bool) {
	n, ok := r.uint32()
	if !ok {
		return "", false
	}
	raw, ok := r.take(int(n))
	if !ok {
		return "", false
	}
	return string(raw), true
}

func (r *byteReader) readHashes() ([]Hash, bool) {
	n, ok := r.uint32()
	if !ok {
		return nil, false
	}
	hashes := make([]Hash, n)
	for i := range hashes {
		raw, ok := r.take(32)
		if !ok {
			return nil, false
		}
		copy(hashes[i][:], raw)
	}
	return hashes, true
}

func (r *byteReader) readBlock() (*Block, bool) {
	raw, ok := r.take(headerSize)
	if !ok {
		return nil, false
	}
	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, false
	}
	n, ok := r.uint32()
	if !ok {
		return nil, false
	}
	txs := make([]SignedTransaction, n)
	for i := range txs {
		raw, ok := r.take(signedTxSize)
		if !ok {
			return nil, false
		}
		tx, err := DecodeSignedTransaction(raw)
		if err != nil {
			return nil, false
		}
		txs[i] = tx
	}
	return &Block{Header: header, Content: Content{Transactions: txs}}, true
}

func (r *byteReader) readBlocks() ([]*Block, bool) {
	n, ok := r.uint32()
	if !ok {
		return nil, false
	}
	blocks := make([]*Block, n)
	for i := range blocks {
		b, ok := r.readBlock()
		if !ok {
			return nil, false
		}
		blocks[i] = b
	}
	return blocks, true
}

func (r *byteReader) readTransactions() ([]SignedTransaction, bool) {
	n, ok := r.uint32()
	if !ok {
		return nil, false
	}
	txs := make([]SignedTransaction, n)
	for i := range txs {
		raw, ok := r.take(signedTxSize)
		if !ok {
			return nil, false
		}
		tx, err := DecodeSignedTransaction(raw)
		if err != nil {
			return nil, false
		}
		txs[i] = tx
	}
	return txs, true
}

// DecodeMessage parses a raw frame into a Message. Returns ErrMalformedFrame
// on any truncation or unknown tag.
func DecodeMessage(raw []byte) (Message, error) {
	if len(raw) < 1 {
		return Message{}, ErrMalformedFrame
	}
	r := &byteReader{b: raw[1:]}
	tag := raw[0]

	var m Message
	m.Tag = tag
	var ok bool
	switch tag {
	case tagPing, tagPong:
		m.Text, ok = r.readString()
	case tagNewBlockHashes, tagGetBlock, tagNewTransactionHashes, tagGetTransaction:
		m.Hashes, ok = r.readHashes()
	case tagBlock:
		m.Blocks, ok = r.readBlocks()
	case tagTransaction:
		m.Transactions, ok = r.readTransactions()
	default:
		return Message{}, ErrMalformedFrame
	}
	if !ok {
		return Message{}, ErrMalformedFrame
	}
	return m, nil
}
