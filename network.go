package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/libp2p/go-libp2p"
	p2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

const (
	protocolID         = "/solechain/gossip/1.0.0"
	discoveryNamespace = "solechain_p2p"
)

// Peer is the per-connection handle a gossip worker writes replies through.
type Peer interface {
	ID() string
	Write(msg Message) error
}

// Server is the thread-safe, clonable broadcast handle the miner and
// gossip worker share.
type Server interface {
	Broadcast(msg Message)
	Peers() []Peer
}

// Frame is one inbound (raw_bytes, peer_handle) pair, the gossip worker's
// input unit.
type Frame struct {
	Raw  []byte
	Peer Peer
}

// streamPeer wraps one libp2p stream as a Peer.
type streamPeer struct {
	id     peer.ID
	stream network.Stream
	mu     sync.Mutex
}

func (p *streamPeer) ID() string { return p.id.String() }

func (p *streamPeer) Write(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeFrame(p.stream, msg.Encode())
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// P2PServer implements Server over a libp2p host: peers are discovered on
// the LAN via mDNS and, optionally, dialed explicitly from bootnode
// multiaddrs. Inbound frames from every peer land on a single channel that
// the gossip workers fan out from.
type P2PServer struct {
	Host    host.Host
	Inbound chan Frame

	mu    sync.Mutex
	peers map[peer.ID]*streamPeer
}

// NewP2PServer starts a libp2p host listening on port, wires the gossip
// protocol's stream handler, and starts mDNS discovery.
func NewP2PServer(ctx context.Context, port int, bootnodes []string) (*P2PServer, error) {
	priv, _, err := p2pcrypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("network: generate host key: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", port)),
	)
	if err != nil {
		return nil, fmt.Errorf("network: create host: %w", err)
	}

	s := &P2PServer{
		Host:    h,
		Inbound: make(chan Frame, 4096),
		peers:   make(map[peer.ID]*streamPeer),
	}

	h.SetStreamHandler(protocolID, s.handleStream)

	svc := mdns.NewMdnsService(h, discoveryNamespace, &discoveryNotifee{server: s, ctx: ctx})
	if err := svc.Start(); err != nil {
		logWarn("network: mdns start failed: %v", err)
	}

	for _, addr := range bootnodes {
		if err := s.dial(ctx, addr); err != nil {
			logWarn("network: dial bootnode %s failed: %v", addr, err)
		}
	}

	return s, nil
}

func (s *P2PServer) dial(ctx context.Context, addrStr string) error {
	maddr, err := ma.NewMultiaddr(addrStr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return err
	}
	if err := s.Host.Connect(ctx, *info); err != nil {
		return err
	}
	stream, err := s.Host.NewStream(ctx, info.ID, protocolID)
	if err != nil {
		return err
	}
	s.registerStream(info.ID, stream)
	return nil
}

type discoveryNotifee struct {
	server *P2PServer
	ctx    context.Context
}

func (n *discoveryNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if err := n.server.Host.Connect(n.ctx, pi); err != nil {
		logWarn("network: connect to discovered peer %s failed: %v", pi.ID, err)
		return
	}
	stream, err := n.server.Host.NewStream(n.ctx, pi.ID, protocolID)
	if err != nil {
		logWarn("network: open stream to %s failed: %v", pi.ID, err)
		return
	}
	n.server.registerStream(pi.ID, stream)
}

func (s *P2PServer) registerStream(id peer.ID, stream network.Stream) *streamPeer {
	p := &streamPeer{id: id, stream: stream}
	s.mu.Lock()
	s.peers[id] = p
	s.mu.Unlock()
	go s.readLoop(p)
	return p
}

func (s *P2PServer) handleStream(stream network.Stream) {
	p := s.registerStream(stream.Conn().RemotePeer(), stream)
	_ = p
}

func (s *P2PServer) readLoop(p *streamPeer) {
	r := bufio.NewReader(p.stream)
	for {
		raw, err := readFrame(r)
		if err != nil {
			s.mu.Lock()
			delete(s.peers, p.id)
			s.mu.Unlock()
			return
		}
		s.Inbound <- Frame{Raw: raw, Peer: p}
	}
}

// Broadcast sends msg to every connected peer, fire-and-forget.
func (s *P2PServer) Broadcast(msg Message) {
	s.mu.Lock()
	peers := make([]*streamPeer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	encoded := msg.Encode()
	for _, p := range peers {
		go func(p *streamPeer) {
			p.mu.Lock()
			defer p.mu.Unlock()
			if err := writeFrame(p.stream, encoded); err != nil {
				logWarn("network: write to %s failed: %v", p.id, err)
			}
		}(p)
	}
}

// Peers returns the currently connected peer handles.
func (s *P2PServer) Peers() []Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Close tears down the libp2p host.
func (s *P2PServer) Close() error {
	return s.Host.Close()
}
