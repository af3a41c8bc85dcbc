package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan         EventType = "plan"
	EventTypeApproval     EventType = "approval"
	EventTypeStep         EventType = "step"
	EventTypeVerification EventType = "verification"
	EventTypeOutcome      EventType = "outcome"
	EventTypeBackend      EventType = "backend"
	EventTypeHeartbeat    EventType = "heartbeat"
	EventTypeLLM          EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging. Events go to stderr so stdout stays
// free for the interactive console.
type Logger struct {
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		out:        os.Stderr,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event. LLM exchanges are also appended to
// the llm log file for later inspection.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Fprintf(l.out, "{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(taskID string, attempt, steps int) {
	l.Log(Event{
		Type:   EventTypePlan,
		TaskID: taskID,
		Data: map[string]any{
			"attempt": attempt,
			"steps":   steps,
		},
	})
}

func (l *Logger) LogApproval(taskID, decision string) {
	l.Log(Event{
		Type:   EventTypeApproval,
		TaskID: taskID,
		Data:   map[string]string{"decision": decision},
	})
}

func (l *Logger) LogStep(taskID, step, status string) {
	l.Log(Event{
		Type:   EventTypeStep,
		TaskID: taskID,
		Data: map[string]string{
			"step":   step,
			"status": status,
		},
	})
}

func (l *Logger) LogVerification(taskID string, confirmed bool) {
	l.Log(Event{
		Type:   EventTypeVerification,
		TaskID: taskID,
		Data:   map[string]bool{"confirmed": confirmed},
	})
}

func (l *Logger) LogOutcome(taskID, state, reason string, attempts int) {
	l.Log(Event{
		Type:   EventTypeOutcome,
		TaskID: taskID,
		Data: map[string]any{
			"state":    state,
			"reason":   reason,
			"attempts": attempts,
		},
	})
}

func (l *Logger) LogBackend(taskID, detail string) {
	l.Log(Event{
		Type:   EventTypeBackend,
		TaskID: taskID,
		Data:   map[string]string{"error": detail},
	})
}

func (l *Logger) LogHeartbeat(phase, task string, uptime time.Duration) {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]any{
			"phase":          phase,
			"task":           task,
			"uptime_seconds": int64(uptime.Seconds()),
		},
	})
}

func (l *Logger) LogLLM(taskID string, prompt any, response string) {
	l.Log(Event{
		Type:   EventTypeLLM,
		TaskID: taskID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
