// internal/gateway/gateway.go
//
// WebSocket gateway for competitive mode.
// Responsibilities:
//   - Upgrade GET /ws, assign each connection a UUID and announce it (session).
//   - Decode {"event","data"} envelopes and route them to the room registry.
//   - Remember which room each connection is in; a connection that creates or
//     joins another room leaves its previous one.
//   - Treat a dropped connection as an implicit leave.
//   - Rate limit inbound messages per connection.
//
// Outbound events are produced by internal/duel through the Hub.

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/garyHu951/wordle-game/internal/duel"
)

// Inbound event names.
const (
	EventCreateRoom    = "create_room"
	EventJoinRoom      = "join_room"
	EventSubmitGuess   = "submit_guess_competitive"
	EventLeaveRoom     = "leave_room"
	EventSkipRound     = "skip_round"
	EventRequestAnswer = "request_answer"

	// EventSession tells a new connection its id.
	EventSession = "session"
)

// Rooms is the registry surface the gateway drives.
type Rooms interface {
	Create(connID string, wordLength int) (*duel.Room, error)
	Join(code, connID string) (*duel.Room, error)
	Leave(code, connID string, disconnected bool) bool
	SubmitGuess(code, connID, guess string)
	SkipRound(code, connID string)
	RequestAnswer(code, connID string)
	FindByMember(connID string) (string, bool)
}

// Options configures a Gateway.
type Options struct {
	// AllowedOrigin is matched against the Origin header; "*" allows any.
	// Requests without an Origin header are always accepted.
	AllowedOrigin string
	RateLimit     float64 // messages per second
	RateBurst     int
}

// Gateway serves the competitive-mode WebSocket endpoint.
type Gateway struct {
	hub      *Hub
	rooms    Rooms
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int

	mu     sync.Mutex
	roomOf map[string]string // connID -> room code
}

func New(hub *Hub, rooms Rooms, opts Options) *Gateway {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	origin := opts.AllowedOrigin
	return &Gateway{
		hub:   hub,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return o == "" || origin == "*" || o == origin
			},
		},
		limit:  rate.Limit(opts.RateLimit),
		burst:  opts.RateBurst,
		roomOf: make(map[string]string),
	}
}

// Session is the payload of the session event.
type Session struct {
	ID string `json:"id"`
}

// ServeWS upgrades the request and runs the connection until it drops.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(g.limit, g.burst),
	}
	g.hub.register(c)
	log.Info().Str("conn", c.ID).Str("remote", r.RemoteAddr).Msg("client connected")

	go c.writePump()
	g.hub.Send(c.ID, duel.Event{Name: EventSession, Data: Session{ID: c.ID}})
	go g.readPump(c)
}

// readPump reads envelopes until the connection fails, then cleans up.
func (g *Gateway) readPump(c *Client) {
	defer func() {
		g.hub.unregister(c)
		_ = c.conn.Close()
		g.disconnect(c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.ID).Msg("read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !c.limiter.Allow() {
			log.Debug().Str("conn", c.ID).Msg("rate limited, message dropped")
			continue
		}
		g.handle(c.ID, msg)
	}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wordLength accepts both 5 and "5".
type wordLength int

func (l *wordLength) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("wordLength must be an integer")
	}
	*l = wordLength(n)
	return nil
}

type createRoomReq struct {
	WordLength wordLength `json:"wordLength"`
}

type roomReq struct {
	RoomCode string `json:"roomCode"`
}

type guessReq struct {
	RoomCode string `json:"roomCode"`
	Guess    string `json:"guess"`
}

// handle decodes one envelope and dispatches it. A panic is logged and the
// connection keeps running.
func (g *Gateway) handle(connID string, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("conn", connID).Msg("message handler panicked")
		}
	}()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("conn", connID).Msg("malformed envelope")
		return
	}

	switch env.Event {
	case EventCreateRoom:
		var req createRoomReq
		if !decode(connID, env, &req) {
			g.errorMessage(connID, duel.ErrInvalidLength.Error())
			return
		}
		room, err := g.rooms.Create(connID, int(req.WordLength))
		if err != nil {
			g.errorMessage(connID, userMessage(err))
			return
		}
		g.moveTo(connID, room.Code)

	case EventJoinRoom:
		var req roomReq
		if !decode(connID, env, &req) {
			g.errorMessage(connID, duel.ErrRoomNotFound.Error())
			return
		}
		code := normalizeCode(req.RoomCode)
		if g.currentRoom(connID) == code {
			return
		}
		if _, err := g.rooms.Join(code, connID); err != nil {
			g.errorMessage(connID, userMessage(err))
			return
		}
		g.moveTo(connID, code)

	case EventSubmitGuess:
		var req guessReq
		if decode(connID, env, &req) {
			g.rooms.SubmitGuess(normalizeCode(req.RoomCode), connID, req.Guess)
		}

	case EventLeaveRoom:
		var req roomReq
		if decode(connID, env, &req) {
			code := normalizeCode(req.RoomCode)
			g.rooms.Leave(code, connID, false)
			g.forget(connID, code)
		}

	case EventSkipRound:
		var req roomReq
		if decode(connID, env, &req) {
			g.rooms.SkipRound(normalizeCode(req.RoomCode), connID)
		}

	case EventRequestAnswer:
		var req roomReq
		if decode(connID, env, &req) {
			g.rooms.RequestAnswer(normalizeCode(req.RoomCode), connID)
		}

	default:
		log.Debug().Str("conn", connID).Str("event", env.Event).Msg("unknown event")
	}
}

func decode(connID string, env envelope, v any) bool {
	if len(env.Data) == 0 {
		env.Data = []byte("{}")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		log.Debug().Err(err).Str("conn", connID).Str("event", env.Event).Msg("malformed payload")
		return false
	}
	return true
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// userMessage maps registry errors onto error_message text.
func userMessage(err error) string {
	switch {
	case errors.Is(err, duel.ErrRoomNotFound):
		return duel.ErrRoomNotFound.Error()
	case errors.Is(err, duel.ErrRoomFull):
		return duel.ErrRoomFull.Error()
	case errors.Is(err, duel.ErrInvalidLength):
		return duel.ErrInvalidLength.Error()
	default:
		log.Error().Err(err).Msg("room operation failed")
		return "unable to create room"
	}
}

func (g *Gateway) errorMessage(connID, msg string) {
	g.hub.Send(connID, duel.Event{Name: duel.EventErrorMessage, Data: msg})
}

// ---------------------------------------------------------------------------
// connection -> room map

func (g *Gateway) currentRoom(connID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roomOf[connID]
}

// moveTo records code as connID's room and leaves the previous one.
func (g *Gateway) moveTo(connID, code string) {
	g.mu.Lock()
	prev := g.roomOf[connID]
	g.roomOf[connID] = code
	g.mu.Unlock()

	if prev != "" && prev != code {
		g.rooms.Leave(prev, connID, false)
	}
}

func (g *Gateway) forget(connID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.roomOf[connID] == code {
		delete(g.roomOf, connID)
	}
}

// disconnect runs the implicit leave for a dropped connection.
func (g *Gateway) disconnect(connID string) {
	g.mu.Lock()
	code, ok := g.roomOf[connID]
	delete(g.roomOf, connID)
	g.mu.Unlock()

	if !ok || !g.rooms.Leave(code, connID, true) {
		if code, ok = g.rooms.FindByMember(connID); ok {
			g.rooms.Leave(code, connID, true)
		}
	}
	log.Info().Str("conn", connID).Str("room", code).Msg("client disconnected")
}
