package service

import (
	"time"

	"github.com/classmark/cbt-backend/internal/model"
)

// SessionPhase enumerates the states of a (student, subject) attempt.
// Transitions only ever move forward: NOT_STARTED → RUNNING → SUBMITTED,
// with EXPIRED as the lazy overlay once the clock runs out.
type SessionPhase string

const (
	PhaseNotStarted SessionPhase = "NOT_STARTED"
	PhaseRunning    SessionPhase = "RUNNING"
	PhaseExpired    SessionPhase = "EXPIRED"
	PhaseSubmitted  SessionPhase = "SUBMITTED"
)

// SessionState is the explicit state derived from a submission row at a
// given instant. All transition logic is written against this value rather
// than ad hoc null checks on the row, so boundary cases live in one place.
type SessionState struct {
	Phase     SessionPhase
	StartedAt time.Time
	Allotted  time.Duration
	Elapsed   time.Duration
	Remaining time.Duration
}

// ResolveSessionState classifies a submission row. A nil row means the
// student has never fetched this subject's questions. Elapsed time is
// computed from the stored start timestamp only; nothing client-reported
// ever enters the calculation. The expiry boundary is inclusive: a session
// whose elapsed time equals its allotment is expired.
func ResolveSessionState(sub *model.Submission, now time.Time) SessionState {
	if sub == nil {
		return SessionState{Phase: PhaseNotStarted}
	}

	if sub.SubmittedAt != nil {
		return SessionState{
			Phase:     PhaseSubmitted,
			StartedAt: sub.ExamStartedAt,
			Allotted:  sub.AllottedDuration(),
		}
	}

	allotted := sub.AllottedDuration()
	elapsed := now.Sub(sub.ExamStartedAt)
	state := SessionState{
		StartedAt: sub.ExamStartedAt,
		Allotted:  allotted,
		Elapsed:   elapsed,
		Remaining: allotted - elapsed,
	}

	if state.Remaining <= 0 {
		state.Phase = PhaseExpired
		state.Remaining = 0
		return state
	}

	state.Phase = PhaseRunning
	return state
}

// RemainingSeconds rounds the remaining budget down to whole seconds for
// the wire.
func (s SessionState) RemainingSeconds() int {
	return int(s.Remaining / time.Second)
}
