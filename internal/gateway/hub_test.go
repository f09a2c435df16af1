package gateway

import (
	"encoding/json"
	"testing"
	"time"
)

// envelope is the parsed WS message structure.
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	TS      string          `json:"ts"`
	Seq     int64           `json:"seq"`
}

// TestEnvelopeFormat verifies the hand-crafted JSON envelope matches the
// expected structure: {"channel":"...","data":...,"ts":"...","seq":N}
func TestEnvelopeFormat(t *testing.T) {
	channel := "prices:alice"
	data := []byte(`{"prices":{"RELIANCE.NSE":290050},"pnl":{"total":"0.00"}}`)
	now := time.Date(2026, 8, 29, 10, 0, 1, 0, time.UTC)
	var seq int64 = 42

	buf := buildEnvelope(channel, data, now, seq)

	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\nraw: %s", err, buf)
	}

	if env.Channel != channel {
		t.Errorf("channel: got %q, want %q", env.Channel, channel)
	}
	if env.Seq != seq {
		t.Errorf("seq: got %d, want %d", env.Seq, seq)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("data is not valid JSON: %v", err)
	}
	if _, ok := payload["prices"]; !ok {
		t.Error("data missing 'prices' field")
	}

	parsed, err := time.Parse(time.RFC3339Nano, env.TS)
	if err != nil {
		t.Errorf("ts is not valid RFC3339Nano: %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("ts: got %v, want %v", parsed, now)
	}
}

// TestEnvelopeSeqMonotonic verifies sequence numbers are reflected correctly.
func TestEnvelopeSeqMonotonic(t *testing.T) {
	data := []byte(`{}`)
	now := time.Now().UTC()

	for i := int64(1); i <= 100; i++ {
		buf := buildEnvelope("prices:alice", data, now, i)
		var env envelope
		if err := json.Unmarshal(buf, &env); err != nil {
			t.Fatalf("seq=%d: invalid JSON: %v", i, err)
		}
		if env.Seq != i {
			t.Errorf("seq: got %d, want %d", env.Seq, i)
		}
	}
}

// addTestClient inserts a pumpless client for identity into the hub. The
// test reads the send channel directly instead of a real websocket.
func addTestClient(h *Hub, identity string) *Client {
	c := &Client{send: make(chan []byte, 8), hub: h, identity: identity}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

// TestBroadcastIdentityFilter verifies an identity's updates never reach
// another identity's clients.
func TestBroadcastIdentityFilter(t *testing.T) {
	h := NewHub()
	alice := addTestClient(h, "alice")
	bob := addTestClient(h, "bob")

	h.Broadcast("alice", []byte(`{"prices":{"TCS.NSE":381020}}`))

	select {
	case msg := <-alice.send:
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("invalid envelope: %v", err)
		}
		if env.Channel != "prices:alice" {
			t.Errorf("channel: got %q, want %q", env.Channel, "prices:alice")
		}
	default:
		t.Fatal("alice received nothing")
	}

	select {
	case msg := <-bob.send:
		t.Fatalf("bob received alice's update: %s", msg)
	default:
	}
}

// TestBroadcastSlowClientDropped verifies a full send buffer drops the
// update instead of blocking the broadcast.
func TestBroadcastSlowClientDropped(t *testing.T) {
	h := NewHub()
	c := &Client{send: make(chan []byte, 1), hub: h, identity: "alice"}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.Broadcast("alice", []byte(`{}`))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on slow client")
	}
	if got := len(c.send); got != 1 {
		t.Errorf("buffered messages: got %d, want 1", got)
	}
}

// TestRemoveClient verifies removal closes the send channel exactly once.
func TestRemoveClient(t *testing.T) {
	h := NewHub()
	c := addTestClient(h, "alice")

	h.RemoveClient(c)
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("client count after removal: got %d, want 0", got)
	}
	if _, open := <-c.send; open {
		t.Error("send channel still open after removal")
	}

	// Second removal must be a no-op, not a double close.
	h.RemoveClient(c)
}
