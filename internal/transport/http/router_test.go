package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parlor/internal/app/parlor"
	"parlor/internal/config"
	"parlor/internal/room"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *parlor.Service) {
	t.Helper()
	svc := parlor.NewService(6, 32)
	srv := httptest.NewServer(NewRouter(svc, config.ServerConfig{WSWriteTimeoutSeconds: 5}))
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func errCode(t *testing.T, fields map[string]json.RawMessage) string {
	t.Helper()
	var code string
	if raw, ok := fields["error"]; ok {
		_ = json.Unmarshal(raw, &code)
	}
	return code
}

func createTestRoom(t *testing.T, srv *httptest.Server, playerID string) string {
	t.Helper()
	resp, fields := postJSON(t, srv.URL+"/api/rooms", map[string]any{"player_id": playerID, "player_name": playerID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil {
		t.Fatalf("room id: %v", err)
	}
	return id
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")
	if len(roomID) != 6 {
		t.Fatalf("room id = %q, want 6 characters", roomID)
	}

	resp, fields := postJSON(t, srv.URL+"/api/rooms", map[string]any{"player_name": "nameless"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("create without id: status = %d, want 400", resp.StatusCode)
	}
	if errCode(t, fields) != "invalid_request" {
		t.Fatalf("error = %q, want invalid_request", errCode(t, fields))
	}
}

func TestJoinAndGetRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")

	resp, _ := postJSON(t, srv.URL+"/api/rooms/"+roomID+"/join", map[string]any{"player_id": "bob", "player_name": "Bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d, want 200", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/api/rooms/" + roomID)
	if err != nil {
		t.Fatalf("GET room: %v", err)
	}
	defer getResp.Body.Close()
	var snap room.Snapshot
	if err := json.NewDecoder(getResp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != room.PhaseLobby || len(snap.Players) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	resp, fields := postJSON(t, srv.URL+"/api/rooms/ZZZZZZ/join", map[string]any{"player_id": "bob"})
	if resp.StatusCode != http.StatusNotFound || errCode(t, fields) != "room_not_found" {
		t.Fatalf("join missing room: %d %q", resp.StatusCode, errCode(t, fields))
	}
}

func TestStartAndMoveEndpoints(t *testing.T) {
	srv, svc := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")
	postJSON(t, srv.URL+"/api/rooms/"+roomID+"/join", map[string]any{"player_id": "bob"})

	// Both players need a live connection: a game with at most one connected
	// player ends on the spot.
	for _, id := range []string{"alice", "bob"} {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/rooms/"+roomID+"/subscribe?player_id="+id), nil)
		if err != nil {
			t.Fatalf("dial %s: %v", id, err)
		}
		defer conn.Close()
	}

	resp, fields := postJSON(t, srv.URL+"/api/rooms/"+roomID+"/start", map[string]any{
		"player_id": "alice",
		"game":      map[string]any{"variant": "tictactoe"},
	})
	if resp.StatusCode != http.StatusBadRequest || errCode(t, fields) != "unknown_variant" {
		t.Fatalf("unknown variant: %d %q", resp.StatusCode, errCode(t, fields))
	}

	resp, fields = postJSON(t, srv.URL+"/api/rooms/"+roomID+"/start", map[string]any{
		"player_id": "alice",
		"game":      map[string]any{"variant": "boxes", "width": 2, "height": 2},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d (%q)", resp.StatusCode, errCode(t, fields))
	}

	resp, fields = postJSON(t, srv.URL+"/api/rooms/"+roomID+"/start", map[string]any{
		"player_id": "alice",
		"game":      map[string]any{"variant": "boxes", "width": 2, "height": 2},
	})
	if resp.StatusCode != http.StatusConflict || errCode(t, fields) != "game_running" {
		t.Fatalf("double start: %d %q", resp.StatusCode, errCode(t, fields))
	}

	// Find the holder from the service and move; the other player gets 409.
	snap, err := svc.GetSnapshot(roomID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var state struct {
		Turn string `json:"turn"`
	}
	rawState, _ := json.Marshal(snap.Game.State)
	_ = json.Unmarshal(rawState, &state)
	other := "alice"
	if state.Turn == "alice" {
		other = "bob"
	}

	resp, fields = postJSON(t, srv.URL+"/api/rooms/"+roomID+"/move", map[string]any{
		"player_id": other,
		"move":      map[string]any{"type": "move", "edge_id": 1},
	})
	if resp.StatusCode != http.StatusConflict || errCode(t, fields) != "not_your_turn" {
		t.Fatalf("move out of turn: %d %q", resp.StatusCode, errCode(t, fields))
	}

	resp, _ = postJSON(t, srv.URL+"/api/rooms/"+roomID+"/move", map[string]any{
		"player_id": state.Turn,
		"move":      map[string]any{"type": "move", "edge_id": 1},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")

	resp, _ := postJSON(t, srv.URL+"/api/rooms/"+roomID+"/chat", map[string]any{"player_id": "alice", "text": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, want 200", resp.StatusCode)
	}
	resp, fields := postJSON(t, srv.URL+"/api/rooms/"+roomID+"/chat", map[string]any{"player_id": "alice", "text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank chat: %d %q", resp.StatusCode, errCode(t, fields))
	}
	resp, fields = postJSON(t, srv.URL+"/api/rooms/"+roomID+"/chat", map[string]any{"player_id": "ghost", "text": "boo"})
	if resp.StatusCode != http.StatusNotFound || errCode(t, fields) != "player_not_in_room" {
		t.Fatalf("stranger chat: %d %q", resp.StatusCode, errCode(t, fields))
	}
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestSubscribeStreamsEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/rooms/"+roomID+"/subscribe?player_id=alice"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readEvent := func() room.Event {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev room.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		return ev
	}

	// The subscriber's own attach is the first thing on the wire.
	ev := readEvent()
	if ev.Kind != room.EventPlayerConnected {
		t.Fatalf("first event = %q, want player_connected", ev.Kind)
	}
	if ev.ID == "" || ev.ServerTS == 0 {
		t.Fatalf("event missing envelope fields: %+v", ev)
	}

	postJSON(t, srv.URL+"/api/rooms/"+roomID+"/join", map[string]any{"player_id": "bob", "player_name": "Bob"})
	ev = readEvent()
	if ev.Kind != room.EventPlayerJoined {
		t.Fatalf("event = %q, want player_joined", ev.Kind)
	}
	if ev.Player == nil || ev.Player.ID != "bob" {
		t.Fatalf("event player = %+v, want bob", ev.Player)
	}
	if ev.Room == nil || len(ev.Room.Players) != 2 {
		t.Fatalf("event snapshot = %+v", ev.Room)
	}
}

func TestSubscribeUnknownRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/rooms/ZZZZZZ/subscribe?player_id=alice"), nil)
	if err == nil {
		t.Fatal("dial should fail before the upgrade")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("handshake response = %+v, want 404", resp)
	}
}

func TestDisconnectRemovesEmptyRoom(t *testing.T) {
	srv, svc := newTestServer(t)
	roomID := createTestRoom(t, srv, "alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/rooms/"+roomID+"/subscribe?player_id=alice"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// The finalizer runs when the server notices the close.
	deadline := time.Now().Add(2 * time.Second)
	for svc.Registry().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("room not removed after last disconnect, registry len = %d", svc.Registry().Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
