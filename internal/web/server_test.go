package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/footctl/internal/logic"
	"github.com/sweeney/footctl/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:       1,
		DebounceMs:   5,
		HeartbeatMs:  900000,
		SwitchSource: "gpio",
		MIDIChannel:  1,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPAddr:     ":8080",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, srv, tr
}

func normalSnapshot() logic.Snapshot {
	var s logic.Snapshot
	s.State = logic.Normal
	for i := range s.Configs {
		s.Configs[i] = logic.DefaultSwitchConfig()
	}
	s.Configs[1] = logic.SwitchConfig{Mode: logic.Toggle, CycleCount: 2}
	s.Values = [logic.NumChannels]uint16{100, 0, 16383}
	s.Enabled = [logic.NumChannels]bool{true, false, true}
	return s
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(normalSnapshot(), [logic.NumLEDs]bool{}, true, [logic.NumSwitches]int{})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.State != "NORMAL" {
		t.Errorf("State: got %q, want NORMAL", sj.Status.State)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Switches[1].Mode != "TOGGLE" {
		t.Errorf("switch 1 mode: got %q", sj.Status.Switches[1].Mode)
	}
	if sj.Status.Config.SwitchSource != "gpio" {
		t.Errorf("Config.SwitchSource: got %q", sj.Status.Config.SwitchSource)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(normalSnapshot(), [logic.NumLEDs]bool{true}, true, [logic.NumSwitches]int{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"NORMAL", "#..........", "TOGGLE / 2 / 0 / 0", "16383", "disabled"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLShowsTargetWhileProgramming(t *testing.T) {
	ts, _, tr := newTestServer(t)
	eng := normalSnapshot()
	eng.State = logic.Program
	eng.Target = 7
	tr.Update(eng, [logic.NumLEDs]bool{}, true, [logic.NumSwitches]int{})

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "switch 7") {
		t.Error("body should show the programming target")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, _, tr := newTestServer(t)

	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.Update(normalSnapshot(), [logic.NumLEDs]bool{}, true, [logic.NumSwitches]int{})

	if sj := getJSON(t, ts.URL+"/index.json"); !sj.Status.Ready || sj.Status.State != "NORMAL" {
		t.Errorf("expected ready NORMAL, got %v %q", sj.Status.Ready, sj.Status.State)
	}
}

func readStatus(t *testing.T, conn *websocket.Conn) status.StatusJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws: %v", err)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("decode ws frame: %v", err)
	}
	return sj
}

func TestWebSocketFeed(t *testing.T) {
	ts, srv, tr := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunFeed(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot on connect.
	if sj := readStatus(t, conn); sj.Status.State != "SELECT_TARGET" {
		t.Errorf("initial state: got %q, want SELECT_TARGET", sj.Status.State)
	}

	tr.Update(normalSnapshot(), [logic.NumLEDs]bool{}, true, [logic.NumSwitches]int{})
	if sj := readStatus(t, conn); sj.Status.State != "NORMAL" {
		t.Errorf("pushed state: got %q, want NORMAL", sj.Status.State)
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if h.Clients() != 0 {
		t.Fatalf("clients: got %d", h.Clients())
	}
	for i := 0; i < 100; i++ {
		h.Broadcast([]byte("x"))
	}
}

func TestHealthz(t *testing.T) {
	ts, _, tr := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("before baseline: got %d, want 503", resp.StatusCode)
	}

	tr.Update(normalSnapshot(), [logic.NumLEDs]bool{}, true, [logic.NumSwitches]int{})
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "NORMAL" {
		t.Errorf("after baseline: got %d %q", resp.StatusCode, body)
	}
}
