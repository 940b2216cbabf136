// Command web-demo runs a self-playing demonstration game and streams its
// events to every connected websocket client. Useful for eyeballing the
// engine without a real client.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for demo
	},
}

type WSMessage struct {
	Type   string `json:"type"`
	GameID string `json:"game_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Client connected (%d total)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client disconnected (%d total)", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) publish(msg WSMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast <- raw
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 64)}
	hub.register <- client

	go func() {
		defer conn.Close()
		for raw := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	}()
	go func() {
		defer func() { hub.unregister <- client }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func main() {
	hub := newHub()
	go hub.run()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	engine := game.NewDuneEngine(logger)
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions:      board.AllFactions,
		AdvancedRules: true,
		Seed:          time.Now().UnixNano(),
	})
	if err != nil {
		log.Fatalf("Failed to create demo game: %v", err)
	}
	log.Printf("Demo game created: %s", gameID)

	if _, err := engine.Subscribe(gameID, func(ev rules.Event) {
		hub.publish(WSMessage{Type: "event", GameID: gameID, Data: ev})
	}); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	go autoplay(hub, engine, gameID)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})
	http.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		state, err := engine.State(gameID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(game.NewStateView(state))
	})

	log.Println("Demo server listening on :8090")
	log.Fatal(http.ListenAndServe(":8090", nil))
}

// autoplay steps the game with scripted answers until it ends, pacing each
// step so spectators can follow along.
func autoplay(hub *Hub, engine *game.DuneEngine, gameID string) {
	var responses []rules.DecisionResponse
	for {
		result, err := engine.Run(gameID, responses)
		if err != nil {
			log.Printf("Demo game error: %v", err)
			return
		}
		state, err := engine.State(gameID)
		if err != nil {
			log.Printf("Demo game error: %v", err)
			return
		}
		hub.publish(WSMessage{Type: "game_state", GameID: gameID, Data: game.NewStateView(state)})
		if state.Ended {
			log.Printf("Demo game over; winners: %v", state.Winners)
			return
		}
		responses = answerAll(state, result.Requests)
		time.Sleep(time.Second)
	}
}

// answerAll produces a plausible scripted answer for every pending request.
func answerAll(state *game.GameState, requests []rules.DecisionRequest) []rules.DecisionResponse {
	out := make([]rules.DecisionResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, answer(state, req))
	}
	return out
}

func answer(state *game.GameState, req rules.DecisionRequest) rules.DecisionResponse {
	resp := rules.DecisionResponse{
		RequestID: req.ID,
		Faction:   req.Faction,
		Type:      req.Type,
	}
	switch req.Type {
	case rules.RequestStormDial:
		resp.Data = mustMarshal(game.StormDialResponse{Dial: 2})
	case rules.RequestClaimCharity:
		// claim by not passing
	case rules.RequestCallTraitor:
		// calling is always right when offered
	case rules.RequestSubmitBattlePlan:
		resp.Data = mustMarshal(demoBattlePlan(state, req))
	default:
		resp.Passed = true
	}
	return resp
}

// demoBattlePlan dials everything present behind the strongest available
// leader.
func demoBattlePlan(state *game.GameState, req rules.DecisionRequest) game.BattlePlanResponse {
	var ctx game.BattlePlanContext
	if err := json.Unmarshal(req.Context, &ctx); err != nil {
		return game.BattlePlanResponse{NoLeader: true}
	}
	plan := game.BattlePlanResponse{
		Forces: ctx.ForcesPresent,
		Elite:  ctx.ElitePresent,
	}
	if len(ctx.Leaders) > 0 {
		best := ctx.Leaders[0]
		bestStrength := -1
		for _, id := range ctx.Leaders {
			if def, _, ok := board.Leader(id); ok && def.Strength > bestStrength {
				best, bestStrength = id, def.Strength
			}
		}
		plan.LeaderID = best
	} else {
		plan.NoLeader = true
	}
	return plan
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
