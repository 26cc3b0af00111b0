package p2p

import "encoding/json"

// Message is the generic envelope for anything sent between nodes. The
// payload is decoded after dispatching on the type.
type Message struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"senderId"`
}

// Message types.
const (
	TypeTxAnnounce     = "tx_announce"
	TypeDigestRequest  = "digest_request"
	TypeDigestResponse = "digest_response"
)

// TxAnnouncePayload carries a canonically serialized transaction.
type TxAnnouncePayload struct {
	SenderID    string `json:"senderId"`
	Transaction []byte `json:"transaction"`
}

// DigestRequestPayload asks a peer for its current ledger digest.
type DigestRequestPayload struct {
	SenderID string `json:"senderId"`
}

// DigestResponsePayload returns a peer's current ledger digest.
type DigestResponsePayload struct {
	SenderID string `json:"senderId"`
	Digest   []byte `json:"digest"`
}
