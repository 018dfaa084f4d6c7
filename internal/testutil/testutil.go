package testutil

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWait bounds how long helpers wait for an asynchronous message
const DefaultWait = 2 * time.Second

// ErrConnClosed is returned by writes on a closed FakeConn
var ErrConnClosed = errors.New("fake connection closed")

// FakeConn is an in-memory broadcast.Conn that records outbound frames
type FakeConn struct {
	Messages chan []byte

	mu     sync.Mutex
	closed bool
	fail   bool
}

// NewFakeConn creates a fake connection with a roomy buffer
func NewFakeConn() *FakeConn {
	return &FakeConn{Messages: make(chan []byte, 256)}
}

// WriteMessage records a text frame; control frames are discarded
func (c *FakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.fail {
		return ErrConnClosed
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	c.Messages <- data
	return nil
}

// Close marks the connection closed
func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FailWrites makes every following write return an error
func (c *FakeConn) FailWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

// Message is a decoded outbound frame
type Message map[string]any

// Type returns the message discriminator
func (m Message) Type() string {
	s, _ := m["type"].(string)
	return s
}

// Next waits for the next frame on conn
func Next(t *testing.T, conn *FakeConn) Message {
	t.Helper()
	select {
	case data := <-conn.Messages:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("invalid frame %s: %v", data, err)
		}
		return m
	case <-time.After(DefaultWait):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

// Expect skips frames until one of the given type arrives
func Expect(t *testing.T, conn *FakeConn, msgType string) Message {
	t.Helper()
	deadline := time.After(DefaultWait)
	for {
		select {
		case data := <-conn.Messages:
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("invalid frame %s: %v", data, err)
			}
			if m.Type() == msgType {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", msgType)
			return nil
		}
	}
}

// Decode re-decodes a frame into a typed struct
func Decode(t *testing.T, m Message, v any) {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatal(err)
	}
}

// Quiet asserts no frame arrives within d
func Quiet(t *testing.T, conn *FakeConn, d time.Duration) {
	t.Helper()
	select {
	case data := <-conn.Messages:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(d):
	}
}
