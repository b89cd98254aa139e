// Package message defines the clipcast wire protocol.
//
// All messages are newline-delimited JSON. Each message is exactly one line:
// <json>\n. Three kinds travel over the peer link:
//
//	{"type":"clipboard","content":"<text>"}
//	{"type":"ping"}
//	{"type":"pong"}
//
// The status kinds are only exchanged over the local IPC socket; the peer
// link never carries them.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	TypeClipboard Type = "clipboard"
	TypePing      Type = "ping"
	TypePong      Type = "pong"

	// IPC only.
	TypeStatus         Type = "status"
	TypeStatusResponse Type = "status_response"
)

// known reports whether t is a message type this build understands.
// Anything else on the wire is dropped by the framing layer.
func (t Type) known() bool {
	switch t {
	case TypeClipboard, TypePing, TypePong, TypeStatus, TypeStatusResponse:
		return true
	}
	return false
}

// StatusInfo describes the initiator's connection state, reported by the
// client daemon over the IPC socket.
type StatusInfo struct {
	State       string    `json:"state"`
	Target      string    `json:"target"`
	StartedAt   time.Time `json:"started_at"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
	Attempts    int       `json:"attempts,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// CLIPBOARD — the full clipboard text. An empty clipboard is an empty
	// string; the field round-trips either way.
	Content string `json:"content,omitempty"`

	// STATUS_RESPONSE
	Status *StatusInfo `json:"status,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises one line into a Message. A line that is not JSON, or
// whose type is not recognised, is an error; callers treat that as a line to
// drop, not a fatal condition.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if !m.Type.known() {
		return nil, fmt.Errorf("message decode: unrecognised type %q", m.Type)
	}
	return &m, nil
}
