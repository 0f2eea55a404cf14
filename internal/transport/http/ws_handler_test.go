package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"team-quiz-service/internal/domain"
)

func TestLeaderboardStream(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPut, "/api/admin/window", "", map[string]any{"isLive": true})
	resp.Body.Close()
	resp = do(t, server, http.MethodGet, "/api/quiz/start", "team-1", nil)
	resp.Body.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current snapshot first.
	initial := readLeaderboard(t, conn)
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", initial.Entries)
	}

	resp = do(t, server, http.MethodPost, "/api/quiz/attempt", "team-1", map[string]any{"questionId": "q2", "answerText": "4"})
	resp.Body.Close()
	resp = do(t, server, http.MethodPost, "/api/quiz/submit", "team-1", nil)
	resp.Body.Close()

	update := readLeaderboard(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].TeamID != "team-1" || update.Entries[0].Score != 50 {
		t.Fatalf("unexpected update %+v", update.Entries)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
