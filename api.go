package main

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// RestServer is the read-only JSON inspection surface plus a single
// write endpoint for transaction submission. It drops everything
// UTXO/balance-specific, since this chain's transactions are not yet
// semantically applied to any ledger.
type RestServer struct {
	Chain   *Blockchain
	Mempool *Mempool
	P2P     Server

	readLimiter  *IPRateLimiter
	writeLimiter *IPRateLimiter
	upgrader     websocket.Upgrader
}

// NewRestServer wires a router with read and write rate limits: generous
// for reads, tighter for the transaction-submission endpoint.
func NewRestServer(chain *Blockchain, mempool *Mempool, p2p Server) *RestServer {
	return &RestServer{
		Chain:        chain,
		Mempool:      mempool,
		P2P:          p2p,
		readLimiter:  NewIPRateLimiter(20, 40),
		writeLimiter: NewIPRateLimiter(2, 5),
		upgrader:     websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

type tipResponse struct {
	Tip         string `json:"tip"`
	ChainLength uint64 `json:"chain_length"`
}

type blockResponse struct {
	Hash        string `json:"hash"`
	Parent      string `json:"parent"`
	Nonce       uint32 `json:"nonce"`
	Difficulty  string `json:"difficulty"`
	TimestampMs uint64 `json:"timestamp_ms"`
	MerkleRoot  string `json:"merkle_root"`
	Depth       uint64 `json:"depth"`
	TxCount     int    `json:"tx_count"`
}

func toBlockResponse(b *Block) blockResponse {
	return blockResponse{
		Hash:        b.Hash().String(),
		Parent:      b.Header.Parent.String(),
		Nonce:       b.Header.Nonce,
		Difficulty:  b.Header.Difficulty.String(),
		TimestampMs: b.Header.TimestampMs,
		MerkleRoot:  b.Header.MerkleRoot.String(),
		Depth:       b.Depth,
		TxCount:     len(b.Content.Transactions),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *RestServer) getTip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tipResponse{Tip: s.Chain.Tip().String(), ChainLength: s.Chain.ChainLength()})
}

func (s *RestServer) getChain(w http.ResponseWriter, r *http.Request) {
	hashes := s.Chain.BlocksInLongestChain()
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *RestServer) getBlock(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["hash"]
	bytes, err := hex.DecodeString(raw)
	if err != nil || len(bytes) != 32 {
		writeError(w, http.StatusBadRequest, "malformed block hash")
		return
	}
	b, ok := s.Chain.Get(HashFromBytes(bytes))
	if !ok {
		writeError(w, http.StatusNotFound, "block not found")
		return
	}
	writeJSON(w, http.StatusOK, toBlockResponse(b))
}

func (s *RestServer) getMempool(w http.ResponseWriter, r *http.Request) {
	txs := s.Mempool.List()
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash().String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *RestServer) getPeers(w http.ResponseWriter, r *http.Request) {
	peers := s.P2P.Peers()
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.ID()
	}
	writeJSON(w, http.StatusOK, out)
}

type sendTxRequest struct {
	TxHex string `json:"tx_hex"`
}

func (s *RestServer) postTx(w http.ResponseWriter, r *http.Request) {
	var req sendTxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	raw, err := hex.DecodeString(req.TxHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tx_hex is not valid hex")
		return
	}
	tx, err := DecodeSignedTransaction(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := tx.Verify(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if s.Mempool.InsertIfNew(tx) {
		s.P2P.Broadcast(NewTransactionHashesMsg([]Hash{tx.Hash()}))
	}
	writeJSON(w, http.StatusAccepted, tipResponse{Tip: tx.Hash().String()})
}

// getWS upgrades the connection and pushes the tip hash whenever it
// changes, for a dashboard-style live view. Polling the tip is a simpler
// fit here than threading a new fan-out channel through the miner and
// every gossip worker for a single observer.
func (s *RestServer) getWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logWarn("api: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := Hash{}
	for range ticker.C {
		tip := s.Chain.Tip()
		if tip.Equal(last) {
			continue
		}
		last = tip
		if err := conn.WriteJSON(tipResponse{Tip: tip.String(), ChainLength: s.Chain.ChainLength()}); err != nil {
			return
		}
	}
}

// Router builds the mux.Router with rate limiting and CORS applied per
// route, split between read and write limiters.
func (s *RestServer) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(CORSMiddleware)

	read := RateLimitMiddleware(s.readLimiter)
	write := RateLimitMiddleware(s.writeLimiter)

	r.Handle("/tip", read(http.HandlerFunc(s.getTip))).Methods(http.MethodGet)
	r.Handle("/chain", read(http.HandlerFunc(s.getChain))).Methods(http.MethodGet)
	r.Handle("/blocks/{hash}", read(http.HandlerFunc(s.getBlock))).Methods(http.MethodGet)
	r.Handle("/mempool", read(http.HandlerFunc(s.getMempool))).Methods(http.MethodGet)
	r.Handle("/peers", read(http.HandlerFunc(s.getPeers))).Methods(http.MethodGet)
	r.Handle("/tx", write(http.HandlerFunc(s.postTx))).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.getWS)

	return r
}

