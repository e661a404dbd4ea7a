package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action tags recorded by the session engine. Every state transition
// and outcome emits exactly one event.
const (
	AuditStudentLogin         = "STUDENT_LOGIN"
	AuditStudentLoginFailed   = "STUDENT_LOGIN_FAILED"
	AuditExamStarted          = "EXAM_STARTED"
	AuditExamResumed          = "EXAM_RESUMED"
	AuditExamAccessDenied     = "EXAM_ACCESS_DENIED"
	AuditProgressSaved        = "EXAM_PROGRESS_SAVED"
	AuditProgressSaveFailed   = "EXAM_PROGRESS_SAVE_FAILED"
	AuditExamSubmitted        = "EXAM_SUBMITTED"
	AuditExamSubmissionFailed = "EXAM_SUBMISSION_FAILED"
	AuditAdminLogin           = "ADMIN_LOGIN"
	AuditAdminLoginFailed     = "ADMIN_LOGIN_FAILED"
)

// Actor types for audit events.
const (
	ActorStudent = "student"
	ActorAdmin   = "admin"
	ActorSystem  = "system"
)

// Outcome statuses for audit events.
const (
	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailure = "FAILURE"
)

// AuditEvent is a structured trace record. Failures to persist an event must
// never abort the operation that emitted it.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	ActorType string         `json:"actor_type"`
	ActorID   string         `json:"actor_id"`
	Details   string         `json:"details"`
	IPAddress string         `json:"ip_address"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
