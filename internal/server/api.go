package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/arjunrb/interviewd/internal/interview"
	"github.com/arjunrb/interviewd/internal/storage"
)

var interviewIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type InterviewStore interface {
	CreateInterview(iv *interview.Interview) error
	GetInterview(id string) (interview.Interview, error)
	GetResumeText(resumeID string) (string, error)
}

// QuestionSeeder produces the opening question for a newly created session.
type QuestionSeeder interface {
	FirstQuestion(ctx context.Context, jobTitle, resumeText string) string
}

type startRealtimeRequest struct {
	ResumeID string `json:"resumeId"`
	JobTitle string `json:"jobTitle"`
	UserID   string `json:"userId"`
}

func registerAPIRoutes(mux *http.ServeMux, store InterviewStore, seeder QuestionSeeder, warnings func() []string) {
	// The "start real-time interview" endpoint: creates the aggregate with
	// exactly one seeded question. The session orchestrator takes over once
	// the client joins over the websocket.
	mux.HandleFunc("POST /api/interviews/realtime", func(w http.ResponseWriter, r *http.Request) {
		var req startRealtimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.ResumeID) == "" || strings.TrimSpace(req.JobTitle) == "" {
			writeJSONError(w, http.StatusBadRequest, "resumeId and jobTitle are required")
			return
		}

		resumeText, err := store.GetResumeText(req.ResumeID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("load resume: %v", err))
			return
		}

		firstQuestion := seeder.FirstQuestion(r.Context(), req.JobTitle, resumeText)

		iv := interview.Interview{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			ResumeID:    req.ResumeID,
			JobTitle:    req.JobTitle,
			Status:      interview.StatusInProgress,
			SessionType: interview.SessionRealTime,
			Questions: []interview.QuestionRecord{
				{ID: uuid.NewString(), Text: firstQuestion},
			},
		}
		if err := store.CreateInterview(&iv); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("create interview: %v", err))
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"interviewId": iv.ID})
	})

	mux.HandleFunc("GET /api/interviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		interviewID := r.PathValue("id")
		if !validInterviewID(interviewID) {
			writeJSONError(w, http.StatusForbidden, "invalid interview id")
			return
		}

		iv, err := store.GetInterview(interviewID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get interview: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, iv)
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		var warn []string
		if warnings != nil {
			warn = warnings()
		}
		if warn == nil {
			warn = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"warnings": warn})
	})
}

func validInterviewID(id string) bool {
	return interviewIDPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
