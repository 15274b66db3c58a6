package models

import "time"

type AuditKind string

const (
	AuditKindLogin AuditKind = "login"
)

type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

type AuditEntry struct {
	ID        int64
	Kind      AuditKind
	Outcome   AuditOutcome
	LoginID   string
	UserID    *int64
	IPAddress string
	UserAgent string
	Message   string
	CreatedAt time.Time
}
