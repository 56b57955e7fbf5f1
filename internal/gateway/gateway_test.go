package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyHu951/wordle-game/internal/duel"
)

// ---- fixtures ----

type testWords struct{}

func (testWords) PickRandom(int) string { return "CRATE" }
func (testWords) IsValid(w string) bool { return w == "CRATE" || w == "CRANE" }

type mockRooms struct {
	mock.Mock
}

func (m *mockRooms) Create(connID string, n int) (*duel.Room, error) {
	args := m.Called(connID, n)
	room, _ := args.Get(0).(*duel.Room)
	return room, args.Error(1)
}

func (m *mockRooms) Join(code, connID string) (*duel.Room, error) {
	args := m.Called(code, connID)
	room, _ := args.Get(0).(*duel.Room)
	return room, args.Error(1)
}

func (m *mockRooms) Leave(code, connID string, disconnected bool) bool {
	return m.Called(code, connID, disconnected).Bool(0)
}

func (m *mockRooms) SubmitGuess(code, connID, guess string) { m.Called(code, connID, guess) }
func (m *mockRooms) SkipRound(code, connID string)          { m.Called(code, connID) }
func (m *mockRooms) RequestAnswer(code, connID string)      { m.Called(code, connID) }

func (m *mockRooms) FindByMember(connID string) (string, bool) {
	args := m.Called(connID)
	return args.String(0), args.Bool(1)
}

type server struct {
	url      string
	registry *duel.Registry
}

func newServer(t *testing.T, opts Options) *server {
	t.Helper()
	hub := NewHub()
	reg := duel.NewRegistry(testWords{}, hub, duel.Options{
		FirstRoundDelay: 10 * time.Millisecond,
		NextRoundDelay:  10 * time.Millisecond,
	})
	gw := New(hub, reg, opts)
	ts := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
		reg.Stop()
	})
	return &server{url: "ws" + strings.TrimPrefix(ts.URL, "http"), registry: reg}
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	var s Session
	c.expect(EventSession, &s)
	require.NotEmpty(t, s.ID)
	c.id = s.ID
	return c
}

func (c *wsClient) send(event string, data any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// expect reads until an event named name arrives and decodes its data into v.
func (c *wsClient) expect(name string, v any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m message
		require.NoError(c.t, c.conn.ReadJSON(&m), "waiting for %s", name)
		if m.Event != name {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(m.Data, v))
		}
		return
	}
}

// ---- tests ----

func TestGateway_EndToEnd(t *testing.T) {
	srv := newServer(t, Options{})
	a := dial(t, srv.url)
	b := dial(t, srv.url)
	assert.NotEqual(t, a.id, b.id)

	a.send(EventCreateRoom, map[string]any{"wordLength": 5})
	var created duel.RoomCreated
	a.expect(duel.EventRoomCreated, &created)
	require.Len(t, created.RoomCode, 6)

	b.send(EventJoinRoom, map[string]any{"roomCode": created.RoomCode})
	var start duel.GameStart
	a.expect(duel.EventGameStart, &start)
	assert.Equal(t, 5, start.WordLength)
	assert.Len(t, start.Players, 2)
	b.expect(duel.EventGameStart, nil)

	var round duel.NewRound
	a.expect(duel.EventNewRound, &round)
	assert.Equal(t, 1, round.MyRound)
	b.expect(duel.EventNewRound, nil)

	a.send(EventSubmitGuess, map[string]any{"roomCode": created.RoomCode, "guess": "crane"})
	var res struct {
		Guess     string   `json:"guess"`
		Result    []string `json:"result"`
		IsCorrect bool     `json:"isCorrect"`
		GameOver  bool     `json:"gameOver"`
	}
	a.expect(duel.EventGuessResult, &res)
	assert.Equal(t, "CRANE", res.Guess)
	assert.Equal(t, []string{"correct", "correct", "correct", "absent", "correct"}, res.Result)
	assert.False(t, res.IsCorrect)

	a.send(EventSubmitGuess, map[string]any{"roomCode": created.RoomCode, "guess": "CRATE"})
	a.expect(duel.EventGuessResult, &res)
	assert.True(t, res.IsCorrect)

	var won duel.OpponentWonRound
	b.expect(duel.EventOpponentWonRound, &won)
	assert.Equal(t, "CRATE", won.Word)

	var rw duel.RoundWinner
	a.expect(duel.EventRoundWinner, &rw)
	assert.Equal(t, a.id, rw.WinnerID)
	assert.Equal(t, 5, rw.UpdatedPlayers[a.id].Score)
	b.expect(duel.EventRoundWinner, nil)

	a.expect(duel.EventNewRound, &round)
	assert.Equal(t, 2, round.MyRound)

	a.send(EventRequestAnswer, map[string]any{"roomCode": created.RoomCode})
	var ans duel.CurrentAnswer
	a.expect(duel.EventCurrentAnswer, &ans)
	assert.Equal(t, duel.CurrentAnswer{Word: "CRATE", Round: 2}, ans)

	require.NoError(t, a.conn.Close())
	var left duel.PlayerLeft
	b.expect(duel.EventPlayerLeft, &left)
	assert.Contains(t, left.Message, "disconnected")

	b.send(EventLeaveRoom, map[string]any{"roomCode": created.RoomCode})
	require.Eventually(t, func() bool {
		_, err := srv.registry.Get(created.RoomCode)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestGateway_JoinErrors(t *testing.T) {
	srv := newServer(t, Options{})
	a := dial(t, srv.url)
	b := dial(t, srv.url)
	c := dial(t, srv.url)

	c.send(EventJoinRoom, map[string]any{"roomCode": "nope00"})
	var msg string
	c.expect(duel.EventErrorMessage, &msg)
	assert.Equal(t, "room not found", msg)

	c.send(EventJoinRoom, map[string]any{"roomCode": 123456})
	c.expect(duel.EventErrorMessage, &msg)
	assert.Equal(t, "room not found", msg, "undecodable join payload")

	a.send(EventCreateRoom, map[string]any{"wordLength": 4})
	var created duel.RoomCreated
	a.expect(duel.EventRoomCreated, &created)
	b.send(EventJoinRoom, map[string]any{"roomCode": strings.ToUpper(created.RoomCode)})
	b.expect(duel.EventGameStart, nil)

	c.send(EventJoinRoom, map[string]any{"roomCode": created.RoomCode})
	c.expect(duel.EventErrorMessage, &msg)
	assert.Equal(t, "room full", msg)
}

func TestGateway_CreateRoomLengths(t *testing.T) {
	srv := newServer(t, Options{})
	a := dial(t, srv.url)

	a.send(EventCreateRoom, map[string]any{"wordLength": "6"})
	var created duel.RoomCreated
	a.expect(duel.EventRoomCreated, &created)
	room, err := srv.registry.Get(created.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, 6, room.WordLength)

	var msg string
	a.send(EventCreateRoom, map[string]any{"wordLength": 9})
	a.expect(duel.EventErrorMessage, &msg)
	assert.Equal(t, "invalid word length", msg)

	a.send(EventCreateRoom, map[string]any{"wordLength": "five"})
	a.expect(duel.EventErrorMessage, &msg)
	assert.Equal(t, "invalid word length", msg)
}

func TestGateway_CreatingAgainLeavesPreviousRoom(t *testing.T) {
	srv := newServer(t, Options{})
	a := dial(t, srv.url)

	var first, second duel.RoomCreated
	a.send(EventCreateRoom, map[string]any{"wordLength": 5})
	a.expect(duel.EventRoomCreated, &first)
	a.send(EventCreateRoom, map[string]any{"wordLength": 5})
	a.expect(duel.EventRoomCreated, &second)

	require.Eventually(t, func() bool {
		_, err := srv.registry.Get(first.RoomCode)
		return err != nil
	}, time.Second, 5*time.Millisecond, "the first room is left and deleted")
	_, err := srv.registry.Get(second.RoomCode)
	assert.NoError(t, err)
}

func TestGateway_RateLimit(t *testing.T) {
	srv := newServer(t, Options{RateLimit: 0.001, RateBurst: 2})
	a := dial(t, srv.url)

	for i := 0; i < 5; i++ {
		a.send(EventJoinRoom, map[string]any{"roomCode": "nope00"})
	}
	a.expect(duel.EventErrorMessage, nil)
	a.expect(duel.EventErrorMessage, nil)

	require.NoError(t, a.conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var m message
	err := a.conn.ReadJSON(&m)
	assert.Error(t, err, "messages beyond the burst are dropped")
}

func TestGateway_DisconnectScansRegistry(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("FindByMember", "x").Return("abc123", true)
	rooms.On("Leave", "abc123", "x", true).Return(true)
	g := New(NewHub(), rooms, Options{})

	g.disconnect("x")

	rooms.AssertExpectations(t)
}

func TestGateway_DisconnectUsesRoomMap(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("Leave", "abc123", "x", true).Return(true)
	g := New(NewHub(), rooms, Options{})
	g.roomOf["x"] = "abc123"

	g.disconnect("x")

	rooms.AssertExpectations(t)
	rooms.AssertNotCalled(t, "FindByMember", "x")
	assert.Empty(t, g.currentRoom("x"))
}

func TestGateway_HandlerPanicIsRecovered(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("SubmitGuess", "abc123", "x", "CRATE").Run(func(mock.Arguments) { panic("boom") })
	g := New(NewHub(), rooms, Options{})

	assert.NotPanics(t, func() {
		g.handle("x", []byte(`{"event":"submit_guess_competitive","data":{"roomCode":"ABC123","guess":"CRATE"}}`))
	})
	rooms.AssertExpectations(t)
}

func TestGateway_IgnoresMalformedInput(t *testing.T) {
	rooms := &mockRooms{}
	g := New(NewHub(), rooms, Options{})

	assert.NotPanics(t, func() {
		g.handle("x", []byte(`not json`))
		g.handle("x", []byte(`{"event":"dance"}`))
		g.handle("x", []byte(`{"event":"skip_round","data":"oops"}`))
	})
	rooms.AssertNotCalled(t, "SkipRound", mock.Anything, mock.Anything)
}
