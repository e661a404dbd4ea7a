package model

import "time"

// Exam is a (subject, class) pair with a time budget. At most one exam row
// exists per pair; the session engine treats exams as read-only config.
type Exam struct {
	ID              int       `json:"id"`
	Subject         string    `json:"subject"`
	Class           string    `json:"class"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Duration returns the exam's allotted time.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// AssignableExam is an exam entry as listed to a student at login.
type AssignableExam struct {
	Subject         string `json:"subject"`
	Class           string `json:"class"`
	DurationMinutes int    `json:"duration_minutes"`
}

// CreateExamRequest is the admin payload for creating an exam.
type CreateExamRequest struct {
	Subject         string `json:"subject" binding:"required,min=1,max=100"`
	Class           string `json:"class" binding:"required,min=1,max=32"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	IsActive        *bool  `json:"is_active" binding:"omitempty"`
}

// UpdateExamRequest is the admin payload for updating an exam. Duration
// changes never affect sessions already started (they hold a snapshot).
type UpdateExamRequest struct {
	DurationMinutes int   `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	IsActive        *bool `json:"is_active" binding:"omitempty"`
}
