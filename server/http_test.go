package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tagarena/game"
	"tagarena/leaderboard"
)

func newTestRouter(t *testing.T) (*gin.Engine, *RoomManager, leaderboard.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	board := leaderboard.NewMemoryStore()
	m := NewRoomManager(testOptions(board))
	t.Cleanup(m.Shutdown)
	router := NewRouter(RouterConfig{Manager: m, Board: board, BoardSize: 5})
	return router, m, board
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthzAndHeaders(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := serve(router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id")
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("Cache-Control = %q", cc)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	router, _, board := newTestRouter(t)
	err := board.Record(context.Background(), []game.Result{
		{PlayerView: game.PlayerView{Name: "Ana"}, Score: 300, Rank: 1},
		{PlayerView: game.PlayerView{Name: "Bo"}, Score: 120, Rank: 2},
		{PlayerView: game.PlayerView{Name: "Bot", IsBot: true}, Score: 900, Rank: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	w := serve(router, http.MethodGet, "/leaderboard?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var data LeaderboardData
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Entries) != 1 || data.Entries[0].Name != "Ana" || data.Entries[0].Wins != 1 {
		t.Fatalf("entries = %+v", data.Entries)
	}

	if w := serve(router, http.MethodGet, "/leaderboard?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", w.Code)
	}
}

func TestAdminConfigAndMetrics(t *testing.T) {
	router, m, _ := newTestRouter(t)
	r, _ := m.CreateRoom()

	if w := serve(router, http.MethodGet, "/admin/config?room=NOPE1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown room status = %d", w.Code)
	}

	w := serve(router, http.MethodPost, "/admin/config?room="+r.Code, `{"immunityMs":1500,"tagDistance":6}`)
	if w.Code != http.StatusOK {
		t.Fatalf("post status = %d body = %s", w.Code, w.Body.String())
	}
	w = serve(router, http.MethodGet, "/admin/config?room="+strings.ToLower(r.Code), "")
	var cfg RulesPatch
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if *cfg.ImmunityMs != 1500 || *cfg.TagDistance != 6 || *cfg.RoundDurationMs != 150 {
		t.Fatalf("config = %s", w.Body.String())
	}

	if w := serve(router, http.MethodPost, "/admin/config?room="+r.Code, `{bad`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid json status = %d", w.Code)
	}

	w = serve(router, http.MethodGet, "/metrics?room="+r.Code, "")
	var metrics struct {
		Room    string         `json:"room"`
		Metrics map[string]any `json:"metrics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatal(err)
	}
	if metrics.Room != r.Code || metrics.Metrics["tick_count"] == nil {
		t.Fatalf("metrics = %s", w.Body.String())
	}

	w = serve(router, http.MethodGet, "/admin/rooms", "")
	var rooms struct {
		Rooms []RoomInfo `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].Code != r.Code || rooms.Rooms[0].State != game.Waiting || rooms.Rooms[0].Scheduled {
		t.Fatalf("rooms = %s", w.Body.String())
	}
}

func TestEncodeEnvelope(t *testing.T) {
	b, err := Encode(game.EvtTagged, game.TaggedData{NewItID: "b", TaggerID: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"tagged","data":{"newItId":"b","taggerId":"a"}}` {
		t.Fatalf("encoded = %s", b)
	}
	typ, data, err := DecodeEnvelope([]byte(`{"type":"playAgain"}`))
	if err != nil || typ != "playAgain" || data != nil {
		t.Fatalf("decode = %q %s %v", typ, data, err)
	}
	if _, err := Encode("", nil); err == nil {
		t.Fatalf("empty type should fail")
	}
}
