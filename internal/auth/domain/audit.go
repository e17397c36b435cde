package domain

import "time"

// AuditEvent is an append-only security event record. The core never mutates
// or deletes rows; retention is an external policy.
type AuditEvent struct {
	ID            string
	UserID        string // empty when no authenticated actor was involved
	EventType     string
	EventCategory string
	Description   string
	Result        string
	ErrorMessage  string
	IPAddress     string
	UserAgent     string
	RequestID     string
	TargetType    string
	TargetID      string
	CreatedAt     time.Time
}
