package serve

import (
	"time"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// WireEvent is the JSON envelope sent server->client over the WebSocket.
type WireEvent struct {
	Type string `json:"type"`

	// snapshot
	ClientID string              `json:"client_id,omitempty"`
	Turns    []conversation.Turn `json:"turns,omitempty"`

	// turn
	Turn *conversation.Turn `json:"turn,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// ClientEvent is the JSON envelope sent client->server over the WebSocket.
type ClientEvent struct {
	Type string `json:"type"` // "message" or "cancel"

	// message
	Text string `json:"text,omitempty"`
}

type SubmitRequest struct {
	Text string `json:"text"`
}

type SubmitResponse struct {
	RequestID uint64 `json:"request_id"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type TranscriptResponse struct {
	Turns []conversation.Turn `json:"turns"`
}

// PendingInfo describes the request currently awaiting a response.
type PendingInfo struct {
	RequestID           uint64    `json:"request_id"`
	SubmittedAtSequence uint64    `json:"submitted_at_sequence"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

type StateResponse struct {
	State   string       `json:"state"`
	Backend string       `json:"backend,omitempty"`
	Turns   int          `json:"turns"`
	Pending *PendingInfo `json:"pending,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func snapshotEvent(clientID string, turns []conversation.Turn) WireEvent {
	return WireEvent{Type: "snapshot", ClientID: clientID, Turns: turns}
}

func turnEvent(t conversation.Turn) WireEvent {
	return WireEvent{Type: "turn", Turn: &t}
}
