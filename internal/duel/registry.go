// internal/duel/registry.go
//
// Room registry: allocates room codes, locates rooms and retires them.
//
// Lock order is registry before room. Room methods never take the registry
// lock, so a room that empties itself is deleted by the caller afterwards.

package duel

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room full")
	ErrInvalidLength = errors.New("invalid word length")
	ErrCodeSpace     = errors.New("could not allocate a room code")
)

const (
	codeAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeLength      = 6
	maxCodeAttempts = 16
)

// Options configures a Registry. Zero durations fall back to defaults.
type Options struct {
	FirstRoundDelay time.Duration
	NextRoundDelay  time.Duration
	FinishedRoomTTL time.Duration
	IdleRoomTTL     time.Duration
	Recorder        Recorder

	// NewCode overrides room code generation (tests).
	NewCode func() string
}

// env is the context every room of a registry shares.
type env struct {
	words           WordSource
	notify          Notifier
	recorder        Recorder
	firstRoundDelay time.Duration
	nextRoundDelay  time.Duration
	now             func() time.Time

	// records tracks in-flight RecordMatch calls.
	records sync.WaitGroup
}

// Registry owns every live room, keyed by code.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	env         *env
	newCode     func() string
	finishedTTL time.Duration
	idleTTL     time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRegistry builds an empty registry. Call StartCleanup to reap stale rooms.
func NewRegistry(words WordSource, notify Notifier, opts Options) *Registry {
	if opts.FirstRoundDelay <= 0 {
		opts.FirstRoundDelay = 3 * time.Second
	}
	if opts.NextRoundDelay <= 0 {
		opts.NextRoundDelay = time.Second
	}
	if opts.FinishedRoomTTL <= 0 {
		opts.FinishedRoomTTL = 2 * time.Minute
	}
	if opts.IdleRoomTTL <= 0 {
		opts.IdleRoomTTL = 30 * time.Minute
	}
	if opts.NewCode == nil {
		opts.NewCode = randomCode
	}
	return &Registry{
		rooms: make(map[string]*Room),
		env: &env{
			words:           words,
			notify:          notify,
			recorder:        opts.Recorder,
			firstRoundDelay: opts.FirstRoundDelay,
			nextRoundDelay:  opts.NextRoundDelay,
			now:             time.Now,
		},
		newCode:     opts.NewCode,
		finishedTTL: opts.FinishedRoomTTL,
		idleTTL:     opts.IdleRoomTTL,
		stopCh:      make(chan struct{}),
	}
}

// randomCode samples codeLength characters uniformly from codeAlphabet.
func randomCode() string {
	b := make([]byte, codeLength)
	n := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			panic(fmt.Sprintf("duel: crypto/rand: %v", err))
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b)
}

// Create allocates a room with connID as its first member and tells the
// creator the code.
func (reg *Registry) Create(connID string, wordLength int) (*Room, error) {
	if wordLength < 4 || wordLength > 7 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, wordLength)
	}

	reg.mu.Lock()
	var code string
	for attempt := 0; ; attempt++ {
		if attempt == maxCodeAttempts {
			reg.mu.Unlock()
			return nil, ErrCodeSpace
		}
		code = reg.newCode()
		if _, taken := reg.rooms[code]; !taken {
			break
		}
	}
	room := newRoom(code, wordLength, reg.env)
	room.addPlayer(connID)
	reg.rooms[code] = room
	reg.mu.Unlock()

	reg.env.notify.Send(connID, Event{Name: EventRoomCreated, Data: RoomCreated{RoomCode: code}})
	log.Info().Str("room", code).Str("conn", connID).Int("wordLength", wordLength).Msg("room created")
	return room, nil
}

// Get returns the room for code.
func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete retires a room and stops its timers.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	delete(reg.rooms, code)
	reg.mu.Unlock()
	if ok {
		room.close()
		log.Info().Str("room", code).Msg("room deleted")
	}
}

// Join adds connID to the room. A successful second join starts the match.
func (reg *Registry) Join(code, connID string) (*Room, error) {
	room, err := reg.Get(code)
	if err != nil {
		return nil, err
	}
	if err := room.join(connID); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave removes connID from the room and deletes the room once it is empty.
// disconnected selects the player_left wording.
func (reg *Registry) Leave(code, connID string, disconnected bool) bool {
	room, err := reg.Get(code)
	if err != nil {
		return false
	}
	remaining, ok := room.leave(connID, disconnected)
	if !ok {
		return false
	}
	log.Info().Str("room", code).Str("conn", connID).Bool("disconnected", disconnected).Msg("player left")
	if remaining == 0 {
		reg.Delete(code)
	}
	return true
}

// SubmitGuess routes a guess to the room. Unknown rooms are ignored.
func (reg *Registry) SubmitGuess(code, connID, guess string) {
	if room, err := reg.Get(code); err == nil {
		room.submitGuess(connID, guess)
	}
}

// SkipRound routes a skip to the room. Unknown rooms are ignored.
func (reg *Registry) SkipRound(code, connID string) {
	if room, err := reg.Get(code); err == nil {
		room.skipRound(connID)
	}
}

// RequestAnswer sends connID its current round word. Unknown rooms are ignored.
func (reg *Registry) RequestAnswer(code, connID string) {
	if room, err := reg.Get(code); err == nil {
		room.currentAnswer(connID)
	}
}

// FindByMember scans every room for connID and returns its code.
func (reg *Registry) FindByMember(connID string) (string, bool) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		if r.Has(connID) {
			return r.Code, true
		}
	}
	return "", false
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Rooms    int `json:"rooms"`
	Waiting  int `json:"waiting"`
	Playing  int `json:"playing"`
	Finished int `json:"finished"`
	Players  int `json:"players"`
}

// Stats counts rooms by status and members overall.
func (reg *Registry) Stats() Stats {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	var s Stats
	for _, r := range reg.rooms {
		r.mu.Lock()
		switch r.status {
		case StatusWaiting:
			s.Waiting++
		case StatusPlaying:
			s.Playing++
		case StatusFinished:
			s.Finished++
		}
		s.Players += len(r.members)
		r.mu.Unlock()
	}
	s.Rooms = len(reg.rooms)
	return s
}

// Sweep retires finished rooms older than the finished TTL and waiting rooms
// older than the idle TTL. It returns how many rooms were removed.
func (reg *Registry) Sweep() int {
	now := reg.env.now()
	reg.mu.Lock()
	var stale []*Room
	for code, r := range reg.rooms {
		r.mu.Lock()
		expired := (r.status == StatusFinished && now.Sub(r.finishedAt) >= reg.finishedTTL) ||
			(r.status == StatusWaiting && now.Sub(r.createdAt) >= reg.idleTTL)
		r.mu.Unlock()
		if expired {
			delete(reg.rooms, code)
			stale = append(stale, r)
		}
	}
	reg.mu.Unlock()

	for _, r := range stale {
		r.close()
		log.Info().Str("room", r.Code).Msg("stale room reaped")
	}
	return len(stale)
}

// StartCleanup runs Sweep every interval until Stop.
func (reg *Registry) StartCleanup(interval time.Duration) {
	reg.wg.Add(1)
	go func() {
		defer reg.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.Sweep()
			case <-reg.stopCh:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop, closes every room and waits for pending match
// records to be written.
func (reg *Registry) Stop() {
	reg.once.Do(func() { close(reg.stopCh) })
	reg.wg.Wait()

	reg.mu.Lock()
	rooms := reg.rooms
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()
	for _, r := range rooms {
		r.close()
	}
	reg.env.records.Wait()
}
