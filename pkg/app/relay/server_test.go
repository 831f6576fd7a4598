package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/crypto/schnorr"
	"github.com/nostrcore/relay/pkg/database/memstore"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/encoders/kind"
	"github.com/nostrcore/relay/pkg/encoders/tag"
	"github.com/nostrcore/relay/pkg/encoders/timestamp"
	"github.com/nostrcore/relay/pkg/utils/context"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.C{Limits: config.DefaultLimits()}
	c, cancel := context.Cancel(context.Bg())
	srv := New(c, cancel, cfg, memstore.New())
	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		hs.Close()
		srv.Shutdown()
	})
	return srv, hs
}

func dial(t *testing.T, hs *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newSignedEvent(t *testing.T, k uint16, content string, tags ...*tag.T) *event.E {
	t.Helper()
	var sec [32]byte
	sec[31] = 1
	var s schnorr.Signer
	if err := s.InitSec(sec[:]); err != nil {
		t.Fatalf("init signer: %v", err)
	}
	ev := event.New()
	ev.CreatedAt = timestamp.New(uint64(time.Now().Unix()))
	ev.Kind = kind.New(k)
	ev.Content = content
	ev.Tags = tag.NewTags(tags...)
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err = conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) []any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env []any
	if err = json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal envelope %q: %v", b, err)
	}
	return env
}

// TestPublishAndFetch publishes an event then replays it back via REQ,
// exercising EVENT -> OK and REQ -> EVENT... -> EOSE in one round trip.
func TestPublishAndFetch(t *testing.T) {
	_, hs := newTestServer(t)
	conn := dial(t, hs)

	ev := newSignedEvent(t, 1, "hello")
	writeJSON(t, conn, []any{"EVENT", json.RawMessage(ev.Marshal(nil))})

	okEnv := readEnvelope(t, conn)
	if okEnv[0] != "OK" || okEnv[2] != true {
		t.Fatalf("expected successful OK, got %v", okEnv)
	}

	writeJSON(t, conn, []any{"REQ", "sub1", map[string]any{"kinds": []int{1}}})

	evEnv := readEnvelope(t, conn)
	if evEnv[0] != "EVENT" || evEnv[1] != "sub1" {
		t.Fatalf("expected replayed EVENT, got %v", evEnv)
	}
	eoseEnv := readEnvelope(t, conn)
	if eoseEnv[0] != "EOSE" {
		t.Fatalf("expected EOSE after replay, got %v", eoseEnv)
	}
}

// TestDuplicateEventIsAcknowledgedWithoutRedelivery submits the same
// event twice and expects a duplicate OK the second time.
func TestDuplicateEventIsAcknowledgedWithoutRedelivery(t *testing.T) {
	_, hs := newTestServer(t)
	conn := dial(t, hs)

	ev := newSignedEvent(t, 1, "dup me")
	writeJSON(t, conn, []any{"EVENT", json.RawMessage(ev.Marshal(nil))})
	readEnvelope(t, conn)

	writeJSON(t, conn, []any{"EVENT", json.RawMessage(ev.Marshal(nil))})
	okEnv := readEnvelope(t, conn)
	if okEnv[0] != "OK" || okEnv[2] != true {
		t.Fatalf("expected OK true on duplicate, got %v", okEnv)
	}
	if msg, ok := okEnv[3].(string); !ok || !strings.HasPrefix(msg, "duplicate:") {
		t.Fatalf("expected duplicate: reason, got %v", okEnv[3])
	}
}

// TestLiveDelivery opens a REQ against an empty store, then publishes a
// matching event on a second connection and expects the subscriber to
// receive it live.
func TestLiveDelivery(t *testing.T) {
	_, hs := newTestServer(t)
	sub := dial(t, hs)
	pub := dial(t, hs)

	writeJSON(t, sub, []any{"REQ", "live", map[string]any{"kinds": []int{1}}})
	eose := readEnvelope(t, sub)
	if eose[0] != "EOSE" {
		t.Fatalf("expected immediate EOSE on empty store, got %v", eose)
	}

	ev := newSignedEvent(t, 1, "live one")
	writeJSON(t, pub, []any{"EVENT", json.RawMessage(ev.Marshal(nil))})
	okEnv := readEnvelope(t, pub)
	if okEnv[0] != "OK" || okEnv[2] != true {
		t.Fatalf("expected OK true, got %v", okEnv)
	}

	liveEv := readEnvelope(t, sub)
	if liveEv[0] != "EVENT" || liveEv[1] != "live" {
		t.Fatalf("expected live EVENT delivery, got %v", liveEv)
	}
}

// TestDeletionRemovesEvent publishes an event, deletes it with a kind-5
// e-tag deletion, then confirms a replay REQ no longer returns it.
func TestDeletionRemovesEvent(t *testing.T) {
	_, hs := newTestServer(t)
	conn := dial(t, hs)

	ev := newSignedEvent(t, 1, "delete me")
	writeJSON(t, conn, []any{"EVENT", json.RawMessage(ev.Marshal(nil))})
	readEnvelope(t, conn)

	del := newSignedEvent(t, kind.Deletion, "", tag.New("e", string(hex.Enc(ev.ID))))
	writeJSON(t, conn, []any{"EVENT", json.RawMessage(del.Marshal(nil))})
	okEnv := readEnvelope(t, conn)
	if okEnv[0] != "OK" || okEnv[2] != true {
		t.Fatalf("expected OK true for deletion event, got %v", okEnv)
	}

	writeJSON(t, conn, []any{"REQ", "after-delete", map[string]any{"kinds": []int{1}}})
	eose := readEnvelope(t, conn)
	if eose[0] != "EOSE" {
		t.Fatalf("expected EOSE with no replayed events, got %v", eose)
	}
}
