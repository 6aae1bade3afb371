package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arjunrb/interviewd/internal/interview"
)

// ErrNotFound is returned when an interview or resume id does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "interviewd.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS resumes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			file_name TEXT NOT NULL DEFAULT '',
			resume_text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create resumes table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS interviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			resume_id TEXT NOT NULL,
			job_title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'in-progress',
			session_type TEXT NOT NULL DEFAULT 'real-time',
			overall_score INTEGER,
			strengths TEXT NOT NULL DEFAULT '[]',
			weaknesses TEXT NOT NULL DEFAULT '[]',
			comments TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(resume_id) REFERENCES resumes(id)
		);
	`); err != nil {
		return fmt.Errorf("create interviews table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			interview_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			user_answer TEXT NOT NULL DEFAULT '',
			ai_feedback TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(interview_id) REFERENCES interviews(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create questions table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_interviews_user_id ON interviews(user_id, created_at)"); err != nil {
		return fmt.Errorf("create interviews index: %w", err)
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_questions_interview_id ON questions(interview_id, position)"); err != nil {
		return fmt.Errorf("create questions index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) InsertResume(id, userID, fileName, resumeText string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("resume id is required")
	}

	_, err := s.db.Exec(
		`INSERT INTO resumes(id, user_id, file_name, resume_text, created_at) VALUES(?, ?, ?, ?, ?)`,
		id,
		userID,
		fileName,
		resumeText,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert resume %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) GetResumeText(resumeID string) (string, error) {
	var text string
	err := s.db.QueryRow(`SELECT resume_text FROM resumes WHERE id = ?`, resumeID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resume %s: %w", resumeID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query resume %s: %w", resumeID, err)
	}
	return text, nil
}

func (s *SQLiteStore) CreateInterview(iv *interview.Interview) error {
	if strings.TrimSpace(iv.ID) == "" {
		return errors.New("interview id is required")
	}

	now := time.Now().UTC()
	iv.CreatedAt = now
	iv.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin create interview: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO interviews(id, user_id, resume_id, job_title, status, session_type, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID,
		iv.UserID,
		iv.ResumeID,
		iv.JobTitle,
		iv.Status,
		iv.SessionType,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create interview %s: %w", iv.ID, err)
	}

	if err := upsertQuestions(tx, iv.ID, iv.Questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create interview %s: %w", iv.ID, err)
	}
	return nil
}

// GetInterview loads the full aggregate: interview row plus its ordered
// question records.
func (s *SQLiteStore) GetInterview(id string) (interview.Interview, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, resume_id, job_title, status, session_type,
		        overall_score, strengths, weaknesses, comments, created_at, updated_at
		 FROM interviews WHERE id = ?`,
		id,
	)

	var iv interview.Interview
	var overallScore sql.NullInt64
	var strengths, weaknesses, comments string
	var createdAt, updatedAt string
	err := row.Scan(&iv.ID, &iv.UserID, &iv.ResumeID, &iv.JobTitle, &iv.Status, &iv.SessionType,
		&overallScore, &strengths, &weaknesses, &comments, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return interview.Interview{}, fmt.Errorf("interview %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return interview.Interview{}, fmt.Errorf("query interview %s: %w", id, err)
	}

	if iv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return interview.Interview{}, fmt.Errorf("parse interview %s created_at: %w", id, err)
	}
	if iv.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return interview.Interview{}, fmt.Errorf("parse interview %s updated_at: %w", id, err)
	}

	// overall_score is NULL until the final feedback is written.
	if overallScore.Valid {
		fb := interview.Feedback{OverallScore: int(overallScore.Int64), Comments: comments}
		if err := json.Unmarshal([]byte(strengths), &fb.Strengths); err != nil {
			return interview.Interview{}, fmt.Errorf("parse interview %s strengths: %w", id, err)
		}
		if err := json.Unmarshal([]byte(weaknesses), &fb.Weaknesses); err != nil {
			return interview.Interview{}, fmt.Errorf("parse interview %s weaknesses: %w", id, err)
		}
		iv.Feedback = &fb
	}

	questions, err := s.getQuestions(id)
	if err != nil {
		return interview.Interview{}, err
	}
	iv.Questions = questions

	return iv, nil
}

// SaveInterview overwrites the interview's mutable fields and upserts its
// question records. The caller is expected to hold the per-interview lock;
// the write itself is last-writer-wins.
func (s *SQLiteStore) SaveInterview(iv *interview.Interview) error {
	iv.UpdatedAt = time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save interview: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var overallScore any
	strengths, weaknesses, comments := "[]", "[]", ""
	if iv.Feedback != nil {
		overallScore = iv.Feedback.OverallScore
		comments = iv.Feedback.Comments
		if b, err := json.Marshal(iv.Feedback.Strengths); err == nil {
			strengths = string(b)
		}
		if b, err := json.Marshal(iv.Feedback.Weaknesses); err == nil {
			weaknesses = string(b)
		}
	}

	res, err := tx.Exec(
		`UPDATE interviews
		 SET status = ?, overall_score = ?, strengths = ?, weaknesses = ?, comments = ?, updated_at = ?
		 WHERE id = ?`,
		iv.Status,
		overallScore,
		strengths,
		weaknesses,
		comments,
		iv.UpdatedAt.Format(time.RFC3339Nano),
		iv.ID,
	)
	if err != nil {
		return fmt.Errorf("save interview %s: %w", iv.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save interview rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("interview %s: %w", iv.ID, ErrNotFound)
	}

	if err := upsertQuestions(tx, iv.ID, iv.Questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save interview %s: %w", iv.ID, err)
	}
	return nil
}

func (s *SQLiteStore) getQuestions(interviewID string) ([]interview.QuestionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, question, user_answer, ai_feedback, score
		 FROM questions
		 WHERE interview_id = ?
		 ORDER BY position ASC`,
		interviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions for interview %s: %w", interviewID, err)
	}
	defer func() { _ = rows.Close() }()

	questions := make([]interview.QuestionRecord, 0, 8)
	for rows.Next() {
		var q interview.QuestionRecord
		if err := rows.Scan(&q.ID, &q.Text, &q.UserAnswer, &q.AIFeedback, &q.Score); err != nil {
			return nil, fmt.Errorf("scan question for interview %s: %w", interviewID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows for interview %s: %w", interviewID, err)
	}

	return questions, nil
}

func upsertQuestions(tx *sql.Tx, interviewID string, questions []interview.QuestionRecord) error {
	for i, q := range questions {
		_, err := tx.Exec(
			`INSERT INTO questions(id, interview_id, position, question, user_answer, ai_feedback, score)
			 VALUES(?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET user_answer = excluded.user_answer,
			                               ai_feedback = excluded.ai_feedback,
			                               score = excluded.score`,
			q.ID,
			interviewID,
			i,
			q.Text,
			q.UserAnswer,
			q.AIFeedback,
			q.Score,
		)
		if err != nil {
			return fmt.Errorf("upsert question %s for interview %s: %w", q.ID, interviewID, err)
		}
	}
	return nil
}
