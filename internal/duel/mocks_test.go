package duel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ---- word source ----

type mockWords struct {
	mock.Mock
}

func (m *mockWords) PickRandom(length int) string {
	args := m.Called(length)
	return args.String(0)
}

func (m *mockWords) IsValid(word string) bool {
	args := m.Called(word)
	if fn, ok := args.Get(0).(func(string) bool); ok {
		return fn(word)
	}
	return args.Bool(0)
}

// fixedWords always picks word and accepts the words in valid.
func fixedWords(word string, valid ...string) *mockWords {
	m := &mockWords{}
	m.On("PickRandom", mock.Anything).Return(word)
	set := map[string]bool{word: true}
	for _, v := range valid {
		set[v] = true
	}
	m.On("IsValid", mock.Anything).Return(func(w string) bool { return set[w] })
	return m
}

// ---- notifier ----

type fakeNotifier struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(map[string][]Event)}
}

func (n *fakeNotifier) Send(connID string, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[connID] = append(n.events[connID], ev)
}

// of returns connID's events named name, in order.
func (n *fakeNotifier) of(connID, name string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, ev := range n.events[connID] {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (n *fakeNotifier) count(connID, name string) int {
	return len(n.of(connID, name))
}

func (n *fakeNotifier) last(t *testing.T, connID, name string) Event {
	t.Helper()
	evs := n.of(connID, name)
	require.NotEmpty(t, evs, "no %s for %s", name, connID)
	return evs[len(evs)-1]
}

// waitFor blocks until connID has received at least want events named name.
func (n *fakeNotifier) waitFor(t *testing.T, connID, name string, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return n.count(connID, name) >= want },
		2*time.Second, 2*time.Millisecond, "%s waiting for %d %s", connID, want, name)
}

// ---- recorder ----

type fakeRecorder struct {
	ch chan MatchRecord
}

func (f *fakeRecorder) RecordMatch(ctx context.Context, m MatchRecord) error {
	f.ch <- m
	return nil
}
