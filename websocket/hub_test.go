package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	events []LiveEvent
	fail   bool
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, v.(LiveEvent))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []LiveEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LiveEvent(nil), f.events...)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func TestHubDeliversOnlyToQuizSubscribers(t *testing.T) {
	h := startHub(t)
	quizA, quizB := uuid.New(), uuid.New()

	watcherA := &fakeConn{}
	watcherB := &fakeConn{}
	h.Register(&Client{QuizID: quizA, UserID: uuid.New(), Conn: watcherA})
	h.Register(&Client{QuizID: quizB, UserID: uuid.New(), Conn: watcherB})

	h.Publish(LiveEvent{Type: EventAttemptCompleted, QuizID: quizA, Score: 80})

	assert.Eventually(t, func() bool { return len(watcherA.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 80.0, watcherA.received()[0].Score)
	assert.Empty(t, watcherB.received())
}

func TestHubUnregister(t *testing.T) {
	h := startHub(t)
	quiz := uuid.New()
	client := &Client{QuizID: quiz, UserID: uuid.New(), Conn: &fakeConn{}}

	h.Register(client)
	assert.Eventually(t, func() bool { return h.Subscribers(quiz) == 1 }, time.Second, 5*time.Millisecond)

	h.Unregister(client)
	assert.Eventually(t, func() bool { return h.Subscribers(quiz) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubDropsBrokenConnections(t *testing.T) {
	h := startHub(t)
	quiz := uuid.New()
	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}

	h.Register(&Client{QuizID: quiz, UserID: uuid.New(), Conn: broken})
	h.Register(&Client{QuizID: quiz, UserID: uuid.New(), Conn: healthy})
	h.Publish(LiveEvent{Type: EventAttemptCompleted, QuizID: quiz})

	assert.Eventually(t, func() bool { return h.Subscribers(quiz) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(healthy.received()) == 1 }, time.Second, 5*time.Millisecond)
	broken.mu.Lock()
	assert.True(t, broken.closed)
	broken.mu.Unlock()
}
