package server

import (
	"net/http"
)

// Handler assembles the full HTTP surface: the websocket gateway plus the
// JSON API routes.
func Handler(hub *Hub, sessions SessionHandler, store InterviewStore, seeder QuestionSeeder, warnings func() []string) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub, sessions)
	registerAPIRoutes(mux, store, seeder, warnings)

	return mux
}
