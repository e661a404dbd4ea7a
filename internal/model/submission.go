package model

import (
	"fmt"
	"time"
)

// Letter is a constrained answer option.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
)

// Valid reports whether the letter is one of A–D.
func (l Letter) Valid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD:
		return true
	}
	return false
}

// AnswerSet maps question IDs to chosen option letters. It is stored as a
// JSONB object and overwritten wholesale on every autosave (last write wins).
type AnswerSet map[int]Letter

// Validate rejects any option outside A–D and non-positive question IDs.
// Client payloads are never trusted to be well-formed.
func (a AnswerSet) Validate() error {
	for qid, letter := range a {
		if qid <= 0 {
			return fmt.Errorf("invalid question id %d", qid)
		}
		if !letter.Valid() {
			return fmt.Errorf("invalid option %q for question %d", string(letter), qid)
		}
	}
	return nil
}

// Submission is one student's attempt at one subject — the engine's single
// mutable row. exam_started_at is set exactly once; duration_minutes is a
// snapshot of the exam duration at session start; score, total_questions and
// submitted_at are set exactly once on final submit, after which the row is
// immutable.
type Submission struct {
	ID              int        `json:"id"`
	StudentID       int        `json:"student_id"`
	Subject         string     `json:"subject"`
	ExamStartedAt   time.Time  `json:"exam_started_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Answers         AnswerSet  `json:"answers,omitempty"`
	Score           *int       `json:"score,omitempty"`
	TotalQuestions  *int       `json:"total_questions,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AllottedDuration returns the snapshotted time budget.
func (s *Submission) AllottedDuration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// SubmissionResult is the admin results projection joined with student data.
type SubmissionResult struct {
	StudentID      int        `json:"student_id"`
	ExamCode       string     `json:"exam_code"`
	FullName       string     `json:"full_name"`
	Class          string     `json:"class"`
	Subject        string     `json:"subject"`
	Score          *int       `json:"score"`
	TotalQuestions *int       `json:"total_questions"`
	ExamStartedAt  time.Time  `json:"exam_started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}
