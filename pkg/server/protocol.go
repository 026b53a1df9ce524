package server

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message types.
const (
	MsgHello = "hello"
	MsgHash  = "hash"
	MsgClick = "click"
	MsgInput = "input"
	MsgBody  = "body"
)

// ClientMessage is a frame sent by the browser shim.
type ClientMessage struct {
	Type  string `json:"t"`
	Hash  string `json:"hash,omitempty"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
}

// ServerMessage is a frame sent to the browser shim.
type ServerMessage struct {
	Type string `json:"t"`
	HTML string `json:"html,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// DecodeClientMessage parses and checks one client frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("server: decode frame: %w", err)
	}
	switch msg.Type {
	case MsgHello, MsgHash:
	case MsgClick, MsgInput:
		if msg.ID == "" {
			return msg, fmt.Errorf("server: %s frame without id", msg.Type)
		}
	default:
		return msg, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return msg, nil
}

// EncodeServerMessage serialises one server frame. Markup is not
// HTML-escaped.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
