package service

import (
	"context"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
)

// The session engine consumes its collaborators through minimal contracts.
// The pgx-backed repositories satisfy them in production; tests substitute
// in-memory fakes. Lookups signal absence with pgx.ErrNoRows.

// StudentStore looks up examinees.
type StudentStore interface {
	GetByExamCode(ctx context.Context, examCode string) (*model.Student, error)
}

// ExamStore reads exam configuration.
type ExamStore interface {
	GetBySubjectAndClass(ctx context.Context, subject, class string) (*model.Exam, error)
	ListActiveByClass(ctx context.Context, class string) ([]model.Exam, error)
}

// QuestionStore reads questions in two shapes: the full set for delivery
// and the answer-key projection for grading.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID int) ([]model.Question, error)
	AnswerKeyBySubjectClass(ctx context.Context, subject, class string) (map[int]model.Letter, error)
}

// SubmissionStore reads and writes the one mutable row per attempt.
// CreateIfAbsent must be an atomic insert-or-fetch; Finalize must be a
// compare-and-set reporting whether this call won the terminal write.
type SubmissionStore interface {
	GetByStudentAndSubject(ctx context.Context, studentID int, subject string) (*model.Submission, error)
	CreateIfAbsent(ctx context.Context, studentID int, subject string, durationMinutes int) (*model.Submission, error)
	SaveAnswers(ctx context.Context, studentID int, subject string, answers model.AnswerSet) error
	Finalize(ctx context.Context, studentID int, subject string, answers model.AnswerSet, score, total int, submittedAt time.Time) (bool, error)
}

// SettingsSource resolves the engine's settings snapshot once per request.
type SettingsSource interface {
	ExamSettings(ctx context.Context) model.ExamSettings
}

// AuditSink records state transitions and outcomes. Implementations must
// never fail the triggering operation (log-and-continue).
type AuditSink interface {
	Emit(ctx context.Context, event model.AuditEvent)
}

// PaperCache caches the student-facing question projection per exam.
// A miss is never an error; callers fall through to the QuestionStore.
type PaperCache interface {
	GetPaper(ctx context.Context, examID int) ([]model.QuestionForStudent, bool)
	SetPaper(ctx context.Context, examID int, questions []model.QuestionForStudent)
	InvalidatePaper(ctx context.Context, examID int)
}
