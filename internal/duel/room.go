// internal/duel/room.go
//
// Competitive room and its per-player round state machine.
//
// Each member plays private rounds:
//
//	idle ──startRound──▶ active ──win / 6th miss / skip──▶ pending ──timer──▶ active
//
// Rounds are not synchronized between players, but the word for round k is
// picked once per room and reused, so both players face the same sequence.
// The match ends at the top of the first startRound that sees a score at or
// above WinThreshold.
//
// All state is guarded by Room.mu. Deferred round starts are time.AfterFunc
// timers keyed by connection; each carries the room sequence number it was
// scheduled with and fires only if the room is still open and that entry is
// still current.

package duel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garyHu951/wordle-game/internal/game"
)

const (
	WinThreshold       = 30
	PointsPerRound     = 5
	MaxGuessesPerRound = 6
	RoomCapacity       = 2

	// Draw is the game_over winner when the top scores tie.
	Draw = "draw"

	notInDictionary = "not in dictionary"
	leftMessage     = "Opponent left the game. Returning to lobby..."
	droppedMessage  = "Opponent disconnected. Returning to lobby..."
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type slotState int

const (
	slotIdle slotState = iota
	slotActive
	slotPending
)

// Player is one member of a room.
type Player struct {
	ConnID string
	Name   string
	Score  int

	round   int
	guesses int
	slot    slotState

	// answerViewed marks a round whose word was revealed by request_answer.
	// Winning it scores nothing.
	answerViewed bool
}

func (p *Player) view() PlayerView {
	return PlayerView{ID: p.ConnID, Score: p.Score, Name: p.Name}
}

type pendingStart struct {
	timer *time.Timer
	seq   uint64
}

// Room is a two-player match.
type Room struct {
	Code       string
	WordLength int

	mu         sync.Mutex
	env        *env
	status     Status
	members    map[string]*Player
	order      []string // join order
	roundWords map[int]string
	timers     map[string]pendingStart
	seq        uint64
	closed     bool

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

func newRoom(code string, wordLength int, e *env) *Room {
	return &Room{
		Code:       code,
		WordLength: wordLength,
		env:        e,
		status:     StatusWaiting,
		members:    make(map[string]*Player, RoomCapacity),
		roundWords: make(map[int]string),
		timers:     make(map[string]pendingStart),
		createdAt:  e.now(),
	}
}

// Status returns the room's lifecycle state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Size returns the number of members.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Has reports whether connID is a member.
func (r *Room) Has(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[connID]
	return ok
}

// Players returns the members in join order.
func (r *Room) Players() []PlayerView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id].view())
	}
	return out
}

// ---------------------------------------------------------------------------
// membership

// addPlayer inserts connID under the next display name. Caller holds r.mu.
func (r *Room) addPlayer(connID string) {
	p := &Player{ConnID: connID, Name: playerName(len(r.order) + 1)}
	r.members[connID] = p
	r.order = append(r.order, connID)
}

func playerName(n int) string {
	if n == 1 {
		return "Player 1"
	}
	return "Player 2"
}

// join admits connID as the second member and starts the match.
func (r *Room) join(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if _, ok := r.members[connID]; ok {
		return nil
	}
	if r.status != StatusWaiting || len(r.members) >= RoomCapacity {
		return ErrRoomFull
	}

	r.addPlayer(connID)
	r.status = StatusPlaying
	r.startedAt = r.env.now()

	r.broadcast(Event{Name: EventGameStart, Data: GameStart{
		WordLength: r.WordLength,
		Players:    r.playersMap(),
	}})
	for _, id := range r.order {
		r.members[id].slot = slotPending
		r.scheduleStart(id, r.env.firstRoundDelay)
	}
	log.Info().Str("room", r.Code).Str("conn", connID).Msg("match started")
	return nil
}

// leave removes connID and returns the remaining member count. A match in
// progress ends for the remaining member, who gets one player_left.
func (r *Room) leave(connID string, disconnected bool) (remaining int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, member := r.members[connID]; !member {
		return len(r.members), false
	}
	r.cancelStart(connID)
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	msg := leftMessage
	if disconnected {
		msg = droppedMessage
	}
	r.broadcast(Event{Name: EventPlayerLeft, Data: PlayerLeft{Message: msg}})

	if r.status == StatusPlaying {
		r.status = StatusFinished
		r.finishedAt = r.env.now()
		r.cancelAll()
	}
	if len(r.members) == 0 {
		r.closeLocked()
	}
	return len(r.members), true
}

// close stops every pending timer and marks the room unusable.
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Room) closeLocked() {
	r.closed = true
	r.cancelAll()
}

// ---------------------------------------------------------------------------
// rounds

// startRound begins the next round for connID, or ends the match if any
// score reached WinThreshold. Caller holds r.mu.
func (r *Room) startRound(connID string) {
	if r.closed || r.status != StatusPlaying {
		return
	}
	p, ok := r.members[connID]
	if !ok {
		return
	}

	if r.maxScore() >= WinThreshold {
		r.finish()
		return
	}

	p.round++
	word := r.wordFor(p.round)
	r.resetSlot(p)

	opponentRound := 1
	if opp := r.opponent(connID); opp != nil && opp.round > 0 {
		opponentRound = opp.round
	}
	r.env.notify.Send(connID, Event{Name: EventNewRound, Data: NewRound{
		MyRound:         p.round,
		OpponentRound:   opponentRound,
		PotentialPoints: PointsPerRound,
	}})
	log.Debug().Str("room", r.Code).Str("conn", connID).Int("round", p.round).Str("word", word).Msg("round started")
}

// resetSlot puts p at the start of a fresh round.
func (r *Room) resetSlot(p *Player) {
	p.guesses = 0
	p.slot = slotActive
	p.answerViewed = false
}

// wordFor returns the word for round n, picking it on first use.
func (r *Room) wordFor(n int) string {
	if w, ok := r.roundWords[n]; ok {
		return w
	}
	w := r.env.words.PickRandom(r.WordLength)
	r.roundWords[n] = w
	return w
}

// submitGuess scores a guess for connID's current round.
func (r *Room) submitGuess(connID, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status != StatusPlaying {
		return
	}
	p, ok := r.members[connID]
	if !ok {
		return
	}
	if p.slot != slotActive {
		log.Debug().Str("room", r.Code).Str("conn", connID).Msg("guess between rounds dropped")
		return
	}

	guess := game.Normalize(raw)
	if len(guess) != r.WordLength {
		return
	}
	if !r.env.words.IsValid(guess) {
		r.env.notify.Send(connID, Event{Name: EventGuessError, Data: notInDictionary})
		return
	}

	target := r.roundWords[p.round]
	feedback := game.Evaluate(guess, target)
	p.guesses++
	isCorrect := guess == target
	exhausted := p.guesses >= MaxGuessesPerRound && !isCorrect

	r.env.notify.Send(connID, Event{Name: EventGuessResult, Data: GuessResult{
		Guess:     guess,
		Result:    feedback,
		IsCorrect: isCorrect,
		GameOver:  exhausted,
	}})

	switch {
	case isCorrect:
		points := PointsPerRound
		if p.answerViewed {
			points = 0
		}
		p.Score += points
		p.slot = slotPending
		if opp := r.opponent(connID); opp != nil {
			r.env.notify.Send(opp.ConnID, Event{Name: EventOpponentWonRound, Data: OpponentWonRound{
				OpponentName: "Opponent",
				Word:         target,
				Points:       points,
			}})
		}
		r.broadcast(Event{Name: EventRoundWinner, Data: RoundWinner{
			WinnerID:       connID,
			Word:           target,
			Points:         points,
			UpdatedPlayers: r.playersMap(),
		}})
		r.scheduleStart(connID, r.env.nextRoundDelay)
	case exhausted:
		p.slot = slotPending
		r.scheduleStart(connID, r.env.nextRoundDelay)
	}
}

// skipRound abandons connID's current round without penalty. Skips during
// the first-round countdown are ignored.
func (r *Room) skipRound(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status != StatusPlaying {
		return
	}
	p, ok := r.members[connID]
	if !ok || p.round == 0 {
		return
	}
	p.slot = slotPending
	r.scheduleStart(connID, r.env.nextRoundDelay)
}

// currentAnswer sends connID the word of its current round and forfeits
// that round's points.
func (r *Room) currentAnswer(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.members[connID]
	if !ok || p.round == 0 {
		return
	}
	if p.slot == slotActive {
		p.answerViewed = true
	}
	r.env.notify.Send(connID, Event{Name: EventCurrentAnswer, Data: CurrentAnswer{
		Word:  r.roundWords[p.round],
		Round: p.round,
	}})
}

// finish ends the match. Caller holds r.mu.
func (r *Room) finish() {
	r.status = StatusFinished
	r.finishedAt = r.env.now()
	r.cancelAll()

	winner := r.winner()
	r.broadcast(Event{Name: EventGameOver, Data: GameOver{Players: r.playersMap(), Winner: winner}})
	log.Info().Str("room", r.Code).Str("winner", winner).Msg("match finished")

	if r.env.recorder == nil {
		return
	}
	rec := MatchRecord{
		RoomCode:   r.Code,
		WordLength: r.WordLength,
		Winner:     winner,
		Rounds:     make(map[string]int, len(r.members)),
		StartedAt:  r.startedAt,
		EndedAt:    r.finishedAt,
	}
	for _, id := range r.order {
		p := r.members[id]
		rec.Players = append(rec.Players, p.view())
		rec.Rounds[id] = p.round
	}
	r.env.records.Add(1)
	go func() {
		defer r.env.records.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.env.recorder.RecordMatch(ctx, rec); err != nil {
			log.Warn().Err(err).Str("room", rec.RoomCode).Msg("record match")
		}
	}()
}

// ---------------------------------------------------------------------------
// timers

// scheduleStart arranges startRound(connID) after d, replacing any pending
// start for that connection. Caller holds r.mu.
func (r *Room) scheduleStart(connID string, d time.Duration) {
	r.cancelStart(connID)
	r.seq++
	seq := r.seq
	t := time.AfterFunc(d, func() { r.fireStart(connID, seq) })
	r.timers[connID] = pendingStart{timer: t, seq: seq}
}

func (r *Room) fireStart(connID string, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	ps, ok := r.timers[connID]
	if !ok || ps.seq != seq {
		return
	}
	delete(r.timers, connID)
	r.startRound(connID)
}

func (r *Room) cancelStart(connID string) {
	if ps, ok := r.timers[connID]; ok {
		ps.timer.Stop()
		delete(r.timers, connID)
	}
}

func (r *Room) cancelAll() {
	for id := range r.timers {
		r.cancelStart(id)
	}
}

// ---------------------------------------------------------------------------
// helpers (caller holds r.mu)

func (r *Room) broadcast(ev Event) {
	for _, id := range r.order {
		r.env.notify.Send(id, ev)
	}
}

func (r *Room) opponent(connID string) *Player {
	for _, id := range r.order {
		if id != connID {
			return r.members[id]
		}
	}
	return nil
}

func (r *Room) playersMap() map[string]PlayerView {
	out := make(map[string]PlayerView, len(r.members))
	for id, p := range r.members {
		out[id] = p.view()
	}
	return out
}

func (r *Room) maxScore() int {
	top := 0
	for _, p := range r.members {
		if p.Score > top {
			top = p.Score
		}
	}
	return top
}

// winner is the connection with the top score, or Draw on a tie.
func (r *Room) winner() string {
	ps := make([]*Player, 0, len(r.members))
	for _, p := range r.members {
		ps = append(ps, p)
	}
	if len(ps) == 0 {
		return Draw
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Score > ps[j].Score })
	if len(ps) > 1 && ps[0].Score == ps[1].Score {
		return Draw
	}
	return ps[0].ConnID
}
