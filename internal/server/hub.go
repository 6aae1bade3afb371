package server

import (
	"log"
	"sync"

	"github.com/arjunrb/interviewd/internal/interview"
)

// Client is one live connection's outbound queue. A client belongs to at
// most one interview room at a time.
type Client struct {
	send        chan []byte
	interviewID string
}

func NewClient() *Client {
	return &Client{send: make(chan []byte, 64)}
}

// Hub groups live connections into per-interview rooms and fans events out
// to them. The registry is in-memory and process-local; it is rebuilt from
// scratch on restart.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join subscribes the client to all future broadcasts for the interview.
// Joining a second room moves the client out of its previous one.
func (h *Hub) Join(interviewID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.interviewID != "" && c.interviewID != interviewID {
		h.removeLocked(c)
	}

	room, ok := h.rooms[interviewID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[interviewID] = room
	}
	room[c] = struct{}{}
	c.interviewID = interviewID
}

// Leave removes the client from its room and closes its outbound queue.
// The interview record and any in-flight generation are unaffected.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	close(c.send)
}

// Unsubscribe removes the client from its room without closing its outbound
// queue. Used when a join is rejected after the room subscription was made,
// so the error event can still be delivered.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *Client) {
	if c.interviewID == "" {
		return
	}
	if room, ok := h.rooms[c.interviewID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.interviewID)
		}
	}
	c.interviewID = ""
}

// Broadcast delivers an event to every connection in the room, exactly once
// per connection. Slow consumers are skipped rather than blocking the room.
func (h *Hub) Broadcast(interviewID, event string, payload any) {
	msg, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[interviewID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Send delivers an event to a single connection only. Used for error events,
// which are never broadcast.
func (h *Hub) Send(c *Client, event string, payload any) {
	msg, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) SendError(c *Client, message string) {
	h.Send(c, EventError, ErrorPayload{Message: message})
}

func (h *Hub) BroadcastInterviewStarted(interviewID string, question interview.QuestionRecord) {
	h.Broadcast(interviewID, EventInterviewStarted, InterviewStartedPayload{Question: question})
}

func (h *Hub) BroadcastAnswerReceived(interviewID, questionID, answer string) {
	h.Broadcast(interviewID, EventReceiveAnswer, ReceiveAnswerPayload{QuestionID: questionID, Answer: answer})
}

func (h *Hub) BroadcastLiveFeedback(interviewID, message string) {
	h.Broadcast(interviewID, EventLiveFeedback, LiveFeedbackPayload{Message: message})
}

func (h *Hub) BroadcastNextQuestion(interviewID, question, questionID string) {
	h.Broadcast(interviewID, EventNextQuestion, NextQuestionPayload{Question: question, ID: questionID})
}

func (h *Hub) BroadcastInterviewCompleted(interviewID string, feedback *interview.Feedback, message string) {
	h.Broadcast(interviewID, EventInterviewCompleted, InterviewCompletedPayload{Feedback: feedback, Message: message})
}
