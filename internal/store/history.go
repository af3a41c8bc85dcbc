package store

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// TranscriptStore keeps the session transcript: tasks, model responses and
// user verdicts. Messages are tagged with the task they belong to, but the
// transcript is read back session-wide so a follow-up task can refer to
// what earlier tasks did. Each open store is one session; the default DSN
// is ":memory:", so the transcript dies with the process. Pointing the
// config at a file keeps one run's transcript around for debugging without
// leaking it into the next run's prompts.
type TranscriptStore struct {
	DB        *sql.DB
	sessionID string
}

func NewTranscriptStore(dbPath string) (*TranscriptStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	query := `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		task_id TEXT,
		role TEXT,
		content TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(query); err != nil {
		return nil, err
	}

	return &TranscriptStore{DB: db, sessionID: uuid.NewString()}, nil
}

func (s *TranscriptStore) AddMessage(taskID string, role string, content string) error {
	query := `INSERT INTO messages (session_id, task_id, role, content) VALUES (?, ?, ?, ?)`
	_, err := s.DB.Exec(query, s.sessionID, taskID, role, content)
	return err
}

// GetTranscript returns up to limit of the session's newest messages in
// chronological order, across all of the session's tasks, shaped as chat
// messages for the planner prompt.
func (s *TranscriptStore) GetTranscript(limit int) ([]llms.MessageContent, error) {
	query := `SELECT role, content FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.DB.Query(query, s.sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transcript []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "human":
			msgRole = llms.ChatMessageTypeHuman
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		transcript = append(transcript, llms.MessageContent{
			Role: msgRole,
			Parts: []llms.ContentPart{
				llms.TextPart(content),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(transcript)-1; i < j; i, j = i+1, j-1 {
		transcript[i], transcript[j] = transcript[j], transcript[i]
	}

	return transcript, nil
}

func (s *TranscriptStore) Close() error {
	return s.DB.Close()
}
