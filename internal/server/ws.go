package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionHandler is the state machine behind the gateway.
type SessionHandler interface {
	HandleJoin(ctx context.Context, interviewID string) error
	HandleAnswer(ctx context.Context, interviewID, questionID, answer string) error
	HandleEnd(ctx context.Context, interviewID string) error
}

func registerWSRoute(mux *http.ServeMux, hub *Hub, sessions SessionHandler) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		client := NewClient()
		go writeLoop(conn, client)
		defer hub.Leave(client)

		readLoop(conn, hub, client, sessions)
	})
}

func writeLoop(conn *websocket.Conn, c *Client) {
	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readLoop processes one connection's inbound events in arrival order.
// Handlers run synchronously so events from a single connection are never
// reordered; events for different interviews stay parallel because each
// connection has its own loop.
func readLoop(conn *websocket.Conn, hub *Hub, c *Client, sessions SessionHandler) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			hub.SendError(c, "malformed event")
			continue
		}

		dispatch(hub, c, sessions, env)
	}
}

// dispatch routes one inbound event. Handler errors are reported only to the
// requesting connection; the interview record keeps its last persisted state.
// Handlers run on a background context: a disconnect mid-evaluation does not
// cancel the pending generation call, and its result is still broadcast to
// whatever connections remain in the room.
func dispatch(hub *Hub, c *Client, sessions SessionHandler, env Envelope) {
	ctx := context.Background()

	switch env.Event {
	case EventJoinInterview:
		var payload JoinInterviewPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.InterviewID == "" {
			hub.SendError(c, "joinInterview requires interviewId")
			return
		}
		// Join before dispatching so the connection receives its own
		// announcement; a rejected join rolls the subscription back.
		hub.Join(payload.InterviewID, c)
		if err := sessions.HandleJoin(ctx, payload.InterviewID); err != nil {
			log.Printf("join interview %s: %v", payload.InterviewID, err)
			hub.Unsubscribe(c)
			hub.SendError(c, err.Error())
		}

	case EventSendAnswer:
		var payload SendAnswerPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.InterviewID == "" || payload.QuestionID == "" {
			hub.SendError(c, "sendAnswer requires interviewId and questionId")
			return
		}
		if err := sessions.HandleAnswer(ctx, payload.InterviewID, payload.QuestionID, payload.Answer); err != nil {
			log.Printf("answer for interview %s: %v", payload.InterviewID, err)
			hub.SendError(c, err.Error())
		}

	case EventEndInterview:
		var payload EndInterviewPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.InterviewID == "" {
			hub.SendError(c, "endInterview requires interviewId")
			return
		}
		if err := sessions.HandleEnd(ctx, payload.InterviewID); err != nil {
			log.Printf("end interview %s: %v", payload.InterviewID, err)
			hub.SendError(c, err.Error())
		}

	default:
		hub.SendError(c, "unknown event "+env.Event)
	}
}
