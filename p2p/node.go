// Package p2p gossips transactions and ledger digests between nodes over a
// small HTTP+JSON protocol. A node verifies every announced transaction
// against its own ledger before appending it; the network is untrusted.
package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scipr-lab/zexe/internal/dpc"
)

// Ledger is what the node needs from its ledger: the read interface the
// scheme verifies against, plus appending accepted transactions.
type Ledger interface {
	dpc.Ledger
	Append(tx *dpc.Transaction) error
}

// Limiter gates inbound messages per peer. A nil limiter admits everything.
type Limiter interface {
	Allow(peerID string) bool
}

// Node is one gossip participant.
type Node struct {
	ID      string
	Address string
	Peers   map[string]string // peer ID to host:port

	scheme  *dpc.Scheme
	params  *dpc.PublicParameters
	ledger  Ledger
	limiter Limiter

	server *http.Server
	wg     *sync.WaitGroup
	log    *zap.Logger
}

// NewNode wires a node around a scheme, parameters and a ledger.
func NewNode(id, address string, peers map[string]string, scheme *dpc.Scheme, params *dpc.PublicParameters, l Ledger, limiter Limiter, wg *sync.WaitGroup, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	if peers == nil {
		peers = make(map[string]string)
	}
	if wg == nil {
		wg = &sync.WaitGroup{}
	}
	return &Node{
		ID:      id,
		Address: address,
		Peers:   peers,
		scheme:  scheme,
		params:  params,
		ledger:  l,
		limiter: limiter,
		wg:      wg,
		log:     log,
	}
}

// StartServer begins listening and serving in a goroutine. The node's
// Address is updated with the bound port, so ":0" works for tests. Signals
// on ready once the listener is up.
func (n *Node) StartServer(ready chan<- struct{}) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/message", n.messageHandler)

	listener, err := net.Listen("tcp", n.Address)
	if err != nil {
		return errors.Wrap(err, "p2p: listen")
	}
	n.Address = listener.Addr().String()
	n.server = &http.Server{Handler: mux}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.log.Info("p2p server listening", zap.String("addr", n.Address))
		if ready != nil {
			ready <- struct{}{}
		}
		if err := n.server.Serve(listener); err != http.ErrServerClosed {
			n.log.Error("p2p server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down, draining in-flight handlers.
func (n *Node) Stop(ctx context.Context) error {
	if n.server == nil {
		return nil
	}
	return errors.Wrap(n.server.Shutdown(ctx), "p2p: shutdown")
}

func (n *Node) messageHandler(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if n.limiter != nil && !n.limiter.Allow(msg.SenderID) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		n.log.Warn("message rate limited", zap.String("peer", msg.SenderID))
		return
	}
	n.log.Debug("message received", zap.String("type", msg.Type), zap.String("peer", msg.SenderID))

	switch msg.Type {
	case TypeTxAnnounce:
		var payload TxAnnouncePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		n.handleTxAnnounce(w, payload)

	case TypeDigestRequest:
		digest, err := n.ledger.Digest()
		if err != nil {
			http.Error(w, "digest unavailable", http.StatusInternalServerError)
			return
		}
		n.respond(w, TypeDigestResponse, DigestResponsePayload{SenderID: n.ID, Digest: digest})

	default:
		n.log.Warn("unknown message type", zap.String("type", msg.Type))
		http.Error(w, "unknown message type", http.StatusBadRequest)
	}
}

// handleTxAnnounce verifies an announced transaction and appends it.
// Rejections are reported to the sender but are not node errors.
func (n *Node) handleTxAnnounce(w http.ResponseWriter, payload TxAnnouncePayload) {
	tx, err := dpc.UnmarshalTransaction(payload.Transaction)
	if err != nil {
		http.Error(w, "malformed transaction", http.StatusBadRequest)
		n.log.Warn("malformed transaction announced", zap.String("peer", payload.SenderID), zap.Error(err))
		return
	}
	ok, err := n.scheme.Verify(n.params, n.ledger, tx)
	if err != nil {
		http.Error(w, "verification error", http.StatusInternalServerError)
		n.log.Error("transaction verification errored", zap.Error(err))
		return
	}
	if !ok {
		http.Error(w, "transaction rejected", http.StatusUnprocessableEntity)
		n.log.Info("transaction rejected", zap.String("peer", payload.SenderID))
		return
	}
	if err := n.ledger.Append(tx); err != nil {
		http.Error(w, "append failed", http.StatusConflict)
		n.log.Warn("transaction append failed", zap.Error(err))
		return
	}
	n.log.Info("transaction accepted", zap.String("peer", payload.SenderID))
	w.WriteHeader(http.StatusOK)
}

func (n *Node) respond(w http.ResponseWriter, messageType string, payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Message{Type: messageType, Payload: payloadBytes, SenderID: n.ID})
}

// SendMessage posts one message to a peer by ID.
func (n *Node) SendMessage(targetID, messageType string, payload interface{}) (*Message, error) {
	targetAddress, ok := n.Peers[targetID]
	if !ok {
		return nil, errors.Errorf("p2p: peer %q not in directory", targetID)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "p2p: marshal payload")
	}
	messageBytes, err := json.Marshal(Message{Type: messageType, Payload: payloadBytes, SenderID: n.ID})
	if err != nil {
		return nil, errors.Wrap(err, "p2p: marshal envelope")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+targetAddress+"/message", "application/json", bytes.NewReader(messageBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "p2p: send to %s", targetID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("p2p: peer %s returned %s", targetID, resp.Status)
	}

	var reply Message
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		// Plain OK with no envelope is a valid ack.
		return nil, nil
	}
	return &reply, nil
}

// AnnounceTransaction broadcasts a transaction to every peer. Per-peer
// failures are logged and collected; the first is returned.
func (n *Node) AnnounceTransaction(tx *dpc.Transaction) error {
	payload := TxAnnouncePayload{SenderID: n.ID, Transaction: tx.Marshal()}
	var firstErr error
	for peerID := range n.Peers {
		if _, err := n.SendMessage(peerID, TypeTxAnnounce, payload); err != nil {
			n.log.Warn("announce failed", zap.String("peer", peerID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RequestDigest asks a peer for its current ledger digest.
func (n *Node) RequestDigest(peerID string) ([]byte, error) {
	reply, err := n.SendMessage(peerID, TypeDigestRequest, DigestRequestPayload{SenderID: n.ID})
	if err != nil {
		return nil, err
	}
	if reply == nil || reply.Type != TypeDigestResponse {
		return nil, errors.Errorf("p2p: unexpected reply from %s", peerID)
	}
	var payload DigestResponsePayload
	if err := json.Unmarshal(reply.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "p2p: decode digest response")
	}
	return payload.Digest, nil
}
