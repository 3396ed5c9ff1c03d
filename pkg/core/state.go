package core

import "time"

// Store defines the interface for state management operations.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Run operations
	CreateRun(env string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Snapshot operations
	SaveSnapshot(runID string, takenAt time.Time, payload []byte) error
	GetLatestSnapshot(env string) (*SnapshotRecord, error)

	// Insight operations
	SaveInsight(rec *InsightRecord) error
	GetInsight(kind, inputHash string) (*InsightRecord, error)
	ListInsights(limit int) ([]*InsightRecord, error)

	// Chat operations
	AppendChatMessage(msg *ChatMessage) error
	GetChatMessages(sessionID string) ([]*ChatMessage, error)
	ClearChatSession(sessionID string) error
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one pipeline refresh: extraction, metric computation,
// and snapshot persistence.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// SnapshotRecord is a persisted metrics snapshot. Payload is the JSON
// encoding of metrics.Snapshot; the state layer treats it opaquely.
type SnapshotRecord struct {
	ID      int64
	RunID   string
	TakenAt time.Time
	Payload []byte
}

// Insight kinds produced by the advisory generators.
const (
	InsightBudget = "budget"
	InsightLoan   = "loan"
	InsightHealth = "health"
)

// InsightRecord is a cached LLM advisory result. InputHash identifies
// the metric inputs the insight was generated from, so an unchanged
// snapshot reuses the stored text instead of calling the model again.
type InsightRecord struct {
	ID        int64
	Kind      string
	InputHash string
	Content   string
	Model     string
	CreatedAt time.Time
}

// ChatMessage is one turn in a copilot conversation.
type ChatMessage struct {
	ID        int64
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}
