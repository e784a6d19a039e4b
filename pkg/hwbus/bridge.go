// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package hwbus

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
)

// Bridge op codes on the wire. They deliberately match PrimitiveID values.
const (
	bridgeOpOpen     = uint8(PrimOpen)
	bridgeOpClose    = uint8(PrimClose)
	bridgeOpRead     = uint8(PrimRead)
	bridgeOpWrite    = uint8(PrimWrite)
	bridgeOpTransfer = uint8(PrimTransfer)
)

// bridgeRequest is one primitive invocation, CBOR-encoded into a single
// binary WebSocket message. Integer keys keep frames small on slow links.
type bridgeRequest struct {
	Op     uint8  `cbor:"0,keyasint"`
	Handle int32  `cbor:"1,keyasint"`
	Bus    string `cbor:"2,keyasint,omitempty"`
	Addr   uint16 `cbor:"3,keyasint,omitempty"`
	Cmd    uint8  `cbor:"4,keyasint,omitempty"`
	Data   []byte `cbor:"5,keyasint,omitempty"`
	Len    uint32 `cbor:"6,keyasint,omitempty"`
}

// bridgeResponse is the agent's reply to one bridgeRequest.
type bridgeResponse struct {
	Status  int32  `cbor:"0,keyasint"`
	Handle  int32  `cbor:"1,keyasint,omitempty"`
	Payload []byte `cbor:"2,keyasint,omitempty"`
}

// BridgeConfig configures the connection to a remote bus agent.
type BridgeConfig struct {
	URL              string // ws:// or wss://
	Username         string // HTTP Basic auth, optional
	Password         string
	SkipTLSVerify    bool // wss:// only
	HandshakeTimeout time.Duration
}

// Bridge implements Bus by forwarding every primitive to a remote bus agent
// over a WebSocket connection. It lets driver code exercised on a developer
// machine drive real peripherals attached to a lab gateway.
type Bridge struct {
	conn *websocket.Conn
}

var _ Bus = (*Bridge)(nil)

// DialBridge connects to a remote bus agent.
func DialBridge(cfg BridgeConfig) (*Bridge, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	handshake := cfg.HandshakeTimeout
	if handshake == 0 {
		handshake = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: handshake,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshake+5*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge connection failed: %v", err)
	}

	return &Bridge{conn: conn}, nil
}

// Shutdown closes the WebSocket connection. Handles opened through the
// bridge are invalidated by the agent when the connection drops.
func (b *Bridge) Shutdown() error {
	return b.conn.Close()
}

// roundTrip sends one request and waits for the agent's binary reply.
func (b *Bridge) roundTrip(req bridgeRequest) (*bridgeResponse, error) {
	frame, err := cbor.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, err
	}

	for {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.BinaryMessage {
			// Agents may interleave text keepalives; skip them
			continue
		}
		var resp bridgeResponse
		if err := cbor.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &resp, nil
	}
}

// Open asks the agent to open a bus endpoint.
func (b *Bridge) Open(bus string, addr uint16) (Handle, Status) {
	resp, err := b.roundTrip(bridgeRequest{Op: bridgeOpOpen, Bus: bus, Addr: addr})
	if err != nil {
		return InvalidHandle, StatusIO
	}
	if st := Status(resp.Status); !st.Ok() {
		return InvalidHandle, st
	}
	return Handle(resp.Handle), StatusOK
}

// Close releases a remote handle.
func (b *Bridge) Close(h Handle) Status {
	resp, err := b.roundTrip(bridgeRequest{Op: bridgeOpClose, Handle: int32(h)})
	if err != nil {
		return StatusIO
	}
	return Status(resp.Status)
}

// Write forwards a write to the agent.
func (b *Bridge) Write(h Handle, cmd uint8, data []byte) Status {
	resp, err := b.roundTrip(bridgeRequest{Op: bridgeOpWrite, Handle: int32(h), Cmd: cmd, Data: data})
	if err != nil {
		return StatusIO
	}
	return Status(resp.Status)
}

// Read forwards a read; the agent's payload is copied into buf, truncated
// to the requested length.
func (b *Bridge) Read(h Handle, cmd uint8, buf []byte) Status {
	resp, err := b.roundTrip(bridgeRequest{Op: bridgeOpRead, Handle: int32(h), Cmd: cmd, Len: uint32(len(buf))})
	if err != nil {
		return StatusIO
	}
	copy(buf, resp.Payload)
	return Status(resp.Status)
}

// Transfer forwards a combined send/receive.
func (b *Bridge) Transfer(h Handle, tx, rx []byte) Status {
	resp, err := b.roundTrip(bridgeRequest{Op: bridgeOpTransfer, Handle: int32(h), Data: tx, Len: uint32(len(rx))})
	if err != nil {
		return StatusIO
	}
	copy(rx, resp.Payload)
	return Status(resp.Status)
}
