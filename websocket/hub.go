package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const EventAttemptCompleted = "attempt_completed"

// LiveEvent is pushed to everyone watching a quiz's live feed.
type LiveEvent struct {
	Type           string    `json:"type"`
	QuizID         uuid.UUID `json:"quiz_id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name"`
	Score          float64   `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Sender is the part of a websocket connection the hub writes to.
type Sender interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	QuizID uuid.UUID
	UserID uuid.UUID
	Conn   Sender
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan LiveEvent

	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan LiveEvent, 64),
		subscribers: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Default is the process wide hub started from main.
var Default = NewHub()

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Publish queues an event without blocking the caller. Events are dropped
// when the queue is full.
func (h *Hub) Publish(e LiveEvent) {
	select {
	case h.broadcast <- e:
	default:
		log.Printf("⚠️ Live feed queue full, dropping event for quiz %s", e.QuizID)
	}
}

// Subscribers returns how many clients watch quizID.
func (h *Hub) Subscribers(quizID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[quizID])
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			log.Printf("Live client registered: user %s on quiz %s", client.UserID, client.QuizID)
			h.mu.Lock()
			if h.subscribers[client.QuizID] == nil {
				h.subscribers[client.QuizID] = make(map[*Client]struct{})
			}
			h.subscribers[client.QuizID][client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			log.Printf("Live client unregistered: user %s on quiz %s", client.UserID, client.QuizID)
			h.remove(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event LiveEvent) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.subscribers[event.QuizID]))
	for client := range h.subscribers[event.QuizID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.Conn.WriteJSON(event); err != nil {
			log.Printf("Error sending live event to user %s: %v", client.UserID, err)
			client.Conn.Close()
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[client.QuizID]
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscribers, client.QuizID)
	}
}
