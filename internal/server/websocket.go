package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/landsraad/dune-server-go/internal/auth"
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/config"
	"github.com/landsraad/dune-server-go/internal/game"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the envelope for every websocket frame, both directions.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Inbound message types.
const (
	msgLogin      = "login"
	msgCreateGame = "create_game"
	msgStep       = "step"
	msgState      = "state"
	msgWatch      = "watch"
)

// Outbound message types.
const (
	msgLoggedIn    = "logged_in"
	msgGameCreated = "game_created"
	msgStepResult  = "step_result"
	msgGameState   = "game_state"
	msgEvent       = "event"
	msgError       = "error"
)

// loginPayload is the body of a login request.
type loginPayload struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// sessionPayload returns the issued token.
type sessionPayload struct {
	Token   string `json:"token"`
	Account string `json:"account"`
}

// createGamePayload is the body of a create_game request.
type createGamePayload struct {
	Factions      []string `json:"factions"`
	AdvancedRules bool     `json:"advanced_rules"`
	Seed          int64    `json:"seed,omitempty"`
	MaxTurns      int      `json:"max_turns,omitempty"`
}

// stepPayload carries the decision responses for a step request.
type stepPayload struct {
	Responses []rules.DecisionResponse `json:"responses"`
}

// Client is one websocket connection.
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu       sync.Mutex
	session  *auth.Session
	watching map[string]int // gameID -> event bus handle
}

// Server accepts websocket connections and bridges them onto the engine.
// Spectating is open; creating and stepping games require a session.
type Server struct {
	cfg       config.WebSocketConfig
	engine    *game.DuneEngine
	tokens    *auth.TokenStore
	hasher    *auth.Hasher
	admin     string
	adminHash string
	logger    *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewServer creates a websocket server over an engine. The admin credentials
// come from configuration; an empty password disables login entirely.
func NewServer(cfg config.WebSocketConfig, authCfg config.AuthConfig, engine *game.DuneEngine, tokens *auth.TokenStore, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		tokens:  tokens,
		hasher:  auth.NewHasher(authCfg.BcryptCost),
		admin:   authCfg.AdminAccount,
		logger:  logger,
		clients: make(map[*Client]bool),
	}
	if authCfg.AdminPassword != "" {
		hash, err := s.hasher.Hash(authCfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		s.adminHash = hash
	}
	return s, nil
}

// ListenAndServe blocks serving websocket upgrades on the configured address.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.logger.Info("websocket server listening", zap.String("address", s.cfg.Address))
	httpServer := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return httpServer.ListenAndServe()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		server:   s,
		conn:     conn,
		send:     make(chan []byte, 64),
		watching: make(map[string]int),
	}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (s *Server) dropClient(c *Client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	c.mu.Lock()
	for gameID, handle := range c.watching {
		s.engine.Unsubscribe(gameID, handle)
	}
	c.watching = nil
	c.mu.Unlock()
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.server.dropClient(c)
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("", fmt.Sprintf("malformed message: %v", err))
			continue
		}
		c.server.dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.server.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(c.server.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.server.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(c *Client, msg WSMessage) {
	switch msg.Type {
	case msgLogin:
		s.handleLogin(c, msg)
	case msgCreateGame:
		if !s.authorized(c) {
			c.sendError(msg.GameID, "login required")
			return
		}
		s.handleCreateGame(c, msg)
	case msgStep:
		if !s.authorized(c) {
			c.sendError(msg.GameID, "login required")
			return
		}
		s.handleStep(c, msg)
	case msgState:
		s.handleState(c, msg)
	case msgWatch:
		s.handleWatch(c, msg)
	default:
		c.sendError(msg.GameID, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// authorized reports whether the client holds a live session. With login
// disabled every client is trusted.
func (s *Server) authorized(c *Client) bool {
	if s.adminHash == "" {
		return true
	}
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return false
	}
	_, ok := s.tokens.Validate(session.Token)
	return ok
}

func (s *Server) handleLogin(c *Client, msg WSMessage) {
	var payload loginPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		c.sendError("", fmt.Sprintf("malformed login payload: %v", err))
		return
	}
	if s.adminHash == "" || payload.Account != s.admin || !s.hasher.Verify(s.adminHash, payload.Password) {
		c.sendError("", "invalid credentials")
		return
	}
	session := s.tokens.Issue(payload.Account)
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	data, err := json.Marshal(sessionPayload{Token: session.Token, Account: session.Account})
	if err != nil {
		return
	}
	c.sendMessage(WSMessage{Type: msgLoggedIn, Data: data})
}

func (s *Server) handleCreateGame(c *Client, msg WSMessage) {
	var payload createGamePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		c.sendError("", fmt.Sprintf("malformed create_game payload: %v", err))
		return
	}
	factions := make([]board.Faction, len(payload.Factions))
	for i, name := range payload.Factions {
		factions[i] = board.Faction(name)
	}
	gameID, err := s.engine.CreateGame(game.GameOptions{
		Factions:      factions,
		AdvancedRules: payload.AdvancedRules,
		Seed:          payload.Seed,
		MaxTurns:      payload.MaxTurns,
	})
	if err != nil {
		c.sendError("", err.Error())
		return
	}
	c.sendMessage(WSMessage{Type: msgGameCreated, GameID: gameID})
}

func (s *Server) handleStep(c *Client, msg WSMessage) {
	var payload stepPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.sendError(msg.GameID, fmt.Sprintf("malformed step payload: %v", err))
			return
		}
	}
	result, err := s.engine.Run(msg.GameID, payload.Responses)
	if err != nil {
		c.sendError(msg.GameID, err.Error())
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.sendError(msg.GameID, fmt.Sprintf("failed to encode step result: %v", err))
		return
	}
	c.sendMessage(WSMessage{Type: msgStepResult, GameID: msg.GameID, Data: data})
}

func (s *Server) handleState(c *Client, msg WSMessage) {
	state, err := s.engine.State(msg.GameID)
	if err != nil {
		c.sendError(msg.GameID, err.Error())
		return
	}
	data, err := json.Marshal(game.NewStateView(state))
	if err != nil {
		c.sendError(msg.GameID, fmt.Sprintf("failed to encode state: %v", err))
		return
	}
	c.sendMessage(WSMessage{Type: msgGameState, GameID: msg.GameID, Data: data})
}

// handleWatch subscribes the client to a game's event stream.
func (s *Server) handleWatch(c *Client, msg WSMessage) {
	c.mu.Lock()
	_, already := c.watching[msg.GameID]
	c.mu.Unlock()
	if already {
		return
	}
	gameID := msg.GameID
	handle, err := s.engine.Subscribe(gameID, func(ev rules.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		c.sendMessage(WSMessage{Type: msgEvent, GameID: gameID, Data: data})
	})
	if err != nil {
		c.sendError(gameID, err.Error())
		return
	}
	c.mu.Lock()
	c.watching[gameID] = handle
	c.mu.Unlock()
}

func (c *Client) sendMessage(msg WSMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
		// Slow consumer; drop the frame rather than block the engine.
		c.server.logger.Warn("dropping frame for slow websocket client")
	}
}

func (c *Client) sendError(gameID, message string) {
	c.sendMessage(WSMessage{Type: msgError, GameID: gameID, Error: message})
}
