package models

import "time"

// LogLevel is the severity of an audit entry.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// LedgerLog is an immutable audit entry appended alongside every lifecycle
// mutation. Scope correlates entries of one workflow
// ("workflow:<lowercased external id>"); UserID is the attributed fiduciary
// when one exists for the acting role.
type LedgerLog struct {
	ID        int64     `db:"id" json:"id"`
	Scope     string    `db:"scope" json:"scope"`
	Level     LogLevel  `db:"level" json:"level"`
	Message   string    `db:"message" json:"message"`
	Metadata  JSONMap   `db:"metadata" json:"metadata"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserID    *int64    `db:"user_id" json:"user_id"`
}
