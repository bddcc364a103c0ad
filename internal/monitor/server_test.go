package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openauto-go/headlink/internal/dispatch"
	"github.com/openauto-go/headlink/internal/link"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Instance:  "test-hu",
		Uptime:    "1s",
		CollectAt: time.Now(),
		Dispatch: dispatch.Stats{
			Audio: dispatch.LaneStats{Depth: 3, Dropped: 7, Enqueued: 100, Consumed: 90},
		},
		Link: link.Stats{Frames: 100, Bytes: 4096},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(Config{StreamInterval: 10 * time.Millisecond}, testSnapshot, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats failed: %v", err)
	}
	defer resp.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}

	if snap.Instance != "test-hu" {
		t.Errorf("Instance = %q, want test-hu", snap.Instance)
	}
	if snap.Dispatch.Audio.Dropped != 7 {
		t.Errorf("Audio.Dropped = %d, want 7", snap.Dispatch.Audio.Dropped)
	}
	if snap.Link.Frames != 100 {
		t.Errorf("Link.Frames = %d, want 100", snap.Link.Frames)
	}
}

func TestStreamPushesSnapshots(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s failed: %v", url, err)
	}
	defer conn.Close()
	if resp != nil {
		resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// Two consecutive pushes prove the ticker loop is running.
	for i := 0; i < 2; i++ {
		var snap Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read snapshot %d: %v", i, err)
		}
		if snap.Instance != "test-hu" {
			t.Errorf("snapshot %d Instance = %q, want test-hu", i, snap.Instance)
		}
	}
}
