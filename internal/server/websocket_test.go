package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/landsraad/dune-server-go/internal/auth"
	"github.com/landsraad/dune-server-go/internal/config"
	"github.com/landsraad/dune-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testServer(t *testing.T, adminPassword string) *Server {
	t.Helper()
	cfg := config.WebSocketConfig{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PingInterval: time.Minute,
	}
	authCfg := config.AuthConfig{
		BcryptCost:    4,
		AdminAccount:  "admin",
		AdminPassword: adminPassword,
	}
	logger := zaptest.NewLogger(t)
	engine := game.NewDuneEngine(logger)
	srv, err := NewServer(cfg, authCfg, engine, auth.NewTokenStore(time.Hour), logger)
	require.NoError(t, err)
	return srv
}

// dialTest upgrades a client connection against the server's handler.
func dialTest(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.handleUpgrade))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServerCreateGameAndState(t *testing.T) {
	// Empty admin password disables login.
	srv := testServer(t, "")
	conn := dialTest(t, srv)

	payload, err := json.Marshal(createGamePayload{
		Factions: []string{"ATREIDES", "HARKONNEN"},
		Seed:     11,
	})
	require.NoError(t, err)
	send(t, conn, WSMessage{Type: msgCreateGame, Data: payload})

	created := receive(t, conn)
	require.Equal(t, msgGameCreated, created.Type)
	require.NotEmpty(t, created.GameID)

	send(t, conn, WSMessage{Type: msgState, GameID: created.GameID})
	state := receive(t, conn)
	require.Equal(t, msgGameState, state.Type)

	var view game.StateView
	require.NoError(t, json.Unmarshal(state.Data, &view))
	assert.Equal(t, created.GameID, view.GameID)
}

func TestServerRejectsUnknownMessage(t *testing.T) {
	srv := testServer(t, "")
	conn := dialTest(t, srv)

	send(t, conn, WSMessage{Type: "summon_worm"})
	reply := receive(t, conn)
	assert.Equal(t, msgError, reply.Type)
	assert.Contains(t, reply.Error, "summon_worm")
}

func TestServerStateUnknownGame(t *testing.T) {
	srv := testServer(t, "")
	conn := dialTest(t, srv)

	send(t, conn, WSMessage{Type: msgState, GameID: "no-such-game"})
	reply := receive(t, conn)
	assert.Equal(t, msgError, reply.Type)
}

func TestServerLoginFlow(t *testing.T) {
	srv := testServer(t, "chakobsa")
	conn := dialTest(t, srv)

	// Stepping or creating games before login is refused.
	payload, err := json.Marshal(createGamePayload{Factions: []string{"ATREIDES", "HARKONNEN"}})
	require.NoError(t, err)
	send(t, conn, WSMessage{Type: msgCreateGame, Data: payload})
	reply := receive(t, conn)
	require.Equal(t, msgError, reply.Type)
	assert.Contains(t, reply.Error, "login required")

	// Wrong password.
	bad, err := json.Marshal(loginPayload{Account: "admin", Password: "wrong"})
	require.NoError(t, err)
	send(t, conn, WSMessage{Type: msgLogin, Data: bad})
	reply = receive(t, conn)
	require.Equal(t, msgError, reply.Type)

	// Correct credentials issue a session token.
	good, err := json.Marshal(loginPayload{Account: "admin", Password: "chakobsa"})
	require.NoError(t, err)
	send(t, conn, WSMessage{Type: msgLogin, Data: good})
	reply = receive(t, conn)
	require.Equal(t, msgLoggedIn, reply.Type)

	var session sessionPayload
	require.NoError(t, json.Unmarshal(reply.Data, &session))
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin", session.Account)

	// The same connection can now create games.
	send(t, conn, WSMessage{Type: msgCreateGame, Data: payload})
	reply = receive(t, conn)
	assert.Equal(t, msgGameCreated, reply.Type)
}

func TestServerWatchStreamsEvents(t *testing.T) {
	srv := testServer(t, "")
	conn := dialTest(t, srv)

	payload, err := json.Marshal(createGamePayload{
		Factions: []string{"ATREIDES", "HARKONNEN"},
		Seed:     3,
	})
	require.NoError(t, err)
	send(t, conn, WSMessage{Type: msgCreateGame, Data: payload})
	created := receive(t, conn)
	require.Equal(t, msgGameCreated, created.Type)

	send(t, conn, WSMessage{Type: msgWatch, GameID: created.GameID})
	send(t, conn, WSMessage{Type: msgStep, GameID: created.GameID})

	// The step advances setup, so at least one event frame arrives before or
	// after the step result.
	sawEvent := false
	sawResult := false
	for i := 0; i < 50 && !(sawEvent && sawResult); i++ {
		switch msg := receive(t, conn); msg.Type {
		case msgEvent:
			sawEvent = true
		case msgStepResult:
			sawResult = true
		}
	}
	assert.True(t, sawEvent, "expected at least one event frame")
	assert.True(t, sawResult, "expected a step result frame")
}
