package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// submitGracePeriod is the post-expiry window in which a submission is
// still accepted. It absorbs network latency on the final flush and
// applies only to submit, never to progress saves.
const submitGracePeriod = 60 * time.Second

// ExamDelivery is the question-fetch payload for one subject: the paper,
// previously saved answers, and the authoritative remaining time.
type ExamDelivery struct {
	Subject          string                     `json:"subject"`
	DurationMinutes  int                        `json:"duration_minutes"`
	RemainingSeconds int                        `json:"remaining_seconds"`
	Questions        []model.QuestionForStudent `json:"questions"`
	SavedAnswers     model.AnswerSet            `json:"saved_answers"`
}

// SubmitResult reports a finalized attempt. Score and Total are withheld
// when result visibility is disabled.
type SubmitResult struct {
	Subject     string    `json:"subject"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       *int      `json:"score,omitempty"`
	Total       *int      `json:"total_questions,omitempty"`
	ShowResults bool      `json:"show_results"`
}

// SessionService drives the per-(student, subject) exam lifecycle. Every
// operation re-derives the session state from storage and the injected
// clock before acting, so concurrent requests from duplicate tabs or
// retries converge on the same answer.
type SessionService struct {
	submissions SubmissionStore
	exams       ExamStore
	questions   QuestionStore
	settings    SettingsSource
	paperCache  PaperCache
	audit       AuditSink
	log         zerolog.Logger
	now         func() time.Time
}

// NewSessionService creates a SessionService on the real clock.
func NewSessionService(
	submissions SubmissionStore,
	exams ExamStore,
	questions QuestionStore,
	settings SettingsSource,
	paperCache PaperCache,
	audit AuditSink,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		submissions: submissions,
		exams:       exams,
		questions:   questions,
		settings:    settings,
		paperCache:  paperCache,
		audit:       audit,
		log:         log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

// RequestQuestions starts or resumes the student's session for a subject
// and returns the paper. The first successful call pins the start time and
// duration; later calls reuse the pinned values regardless of any admin
// edits to the exam in between.
func (s *SessionService) RequestQuestions(ctx context.Context, student *model.Student, subject, sourceIP string) (*ExamDelivery, error) {
	exam, err := s.exams.GetBySubjectAndClass(ctx, subject, student.Class)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.auditDenied(ctx, student, subject, sourceIP, "no active exam for subject")
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if !exam.IsActive {
		s.auditDenied(ctx, student, subject, sourceIP, "exam is not active")
		return nil, ErrExamNotFound
	}

	sub, err := s.loadSubmission(ctx, student.ID, subject)
	if err != nil {
		return nil, err
	}

	state := ResolveSessionState(sub, s.now())
	switch state.Phase {
	case PhaseSubmitted:
		s.auditDenied(ctx, student, subject, sourceIP, "exam already submitted")
		return nil, ErrAlreadySubmitted
	case PhaseExpired:
		s.auditDenied(ctx, student, subject, sourceIP, "exam time expired")
		return nil, ErrTimeExpired
	}

	paper, err := s.loadPaper(ctx, exam)
	if err != nil {
		return nil, err
	}
	if len(paper) == 0 {
		s.auditDenied(ctx, student, subject, sourceIP, "exam has no questions")
		return nil, ErrNoQuestions
	}

	resumed := state.Phase == PhaseRunning
	if state.Phase == PhaseNotStarted {
		// Insert-or-fetch: under concurrent first requests exactly one
		// row is created and everyone reads the winner's start time.
		sub, err = s.submissions.CreateIfAbsent(ctx, student.ID, subject, exam.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

		state = ResolveSessionState(sub, s.now())
		switch state.Phase {
		case PhaseSubmitted:
			s.auditDenied(ctx, student, subject, sourceIP, "exam already submitted")
			return nil, ErrAlreadySubmitted
		case PhaseExpired:
			s.auditDenied(ctx, student, subject, sourceIP, "exam time expired")
			return nil, ErrTimeExpired
		}
	}

	settings := s.settings.ExamSettings(ctx)
	if settings.ShuffleQuestions {
		paper = shuffled(paper)
	}

	action := model.AuditExamStarted
	if resumed {
		action = model.AuditExamResumed
	}
	s.audit.Emit(ctx, model.AuditEvent{
		Action:    action,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s", subject),
		IPAddress: sourceIP,
		Status:    model.AuditStatusSuccess,
		Metadata: map[string]any{
			"subject":           subject,
			"remaining_seconds": state.RemainingSeconds(),
		},
	})

	return &ExamDelivery{
		Subject:          subject,
		DurationMinutes:  sub.DurationMinutes,
		RemainingSeconds: state.RemainingSeconds(),
		Questions:        paper,
		SavedAnswers:     sub.Answers,
	}, nil
}

// SaveProgress overwrites the session's saved answers. There is no grace
// period here: an expired session rejects saves immediately, because a
// save is a checkpoint, not a hand-in.
func (s *SessionService) SaveProgress(ctx context.Context, student *model.Student, subject string, answers model.AnswerSet, sourceIP string) error {
	if err := answers.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAnswers, err)
	}

	sub, err := s.loadSubmission(ctx, student.ID, subject)
	if err != nil {
		return err
	}

	switch state := ResolveSessionState(sub, s.now()); state.Phase {
	case PhaseNotStarted:
		return ErrNoSession
	case PhaseSubmitted:
		return ErrAlreadySubmitted
	case PhaseExpired:
		s.auditSaveFailed(ctx, student, subject, sourceIP, "exam time expired")
		return ErrTimeExpired
	}

	if err := s.submissions.SaveAnswers(ctx, student.ID, subject, answers); err != nil {
		s.auditSaveFailed(ctx, student, subject, sourceIP, "storage error")
		return fmt.Errorf("save answers: %w", err)
	}

	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditProgressSaved,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s, %d answers", subject, len(answers)),
		IPAddress: sourceIP,
		Status:    model.AuditStatusSuccess,
		Metadata:  map[string]any{"subject": subject, "answer_count": len(answers)},
	})
	return nil
}

// SubmitExam grades the supplied answers and finalizes the session. The
// answers in the request body are authoritative; saved progress is only a
// recovery artifact. Submissions are accepted up to submitGracePeriod past
// expiry, and the finalize write is compare-and-set so exactly one of any
// set of concurrent submits lands.
func (s *SessionService) SubmitExam(ctx context.Context, student *model.Student, subject string, answers model.AnswerSet, sourceIP string) (*SubmitResult, error) {
	if err := answers.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAnswers, err)
	}

	sub, err := s.loadSubmission(ctx, student.ID, subject)
	if err != nil {
		return nil, err
	}

	now := s.now()
	state := ResolveSessionState(sub, now)
	switch state.Phase {
	case PhaseNotStarted:
		return nil, ErrNoSession
	case PhaseSubmitted:
		s.auditSubmitFailed(ctx, student, subject, sourceIP, "exam already submitted")
		return nil, ErrAlreadySubmitted
	}

	if state.Elapsed >= state.Allotted+submitGracePeriod {
		s.auditSubmitFailed(ctx, student, subject, sourceIP, "past submission grace period")
		return nil, ErrTimeExpired
	}

	key, err := s.questions.AnswerKeyBySubjectClass(ctx, subject, student.Class)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	score, total, err := Grade(answers, key)
	if err != nil {
		s.auditSubmitFailed(ctx, student, subject, sourceIP, "exam has no answer key")
		return nil, err
	}

	won, err := s.submissions.Finalize(ctx, student.ID, subject, answers, score, total, now)
	if err != nil {
		s.auditSubmitFailed(ctx, student, subject, sourceIP, "storage error")
		return nil, fmt.Errorf("finalize submission: %w", err)
	}
	if !won {
		s.auditSubmitFailed(ctx, student, subject, sourceIP, "lost finalize race")
		return nil, ErrAlreadySubmitted
	}

	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditExamSubmitted,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s scored %d/%d", subject, score, total),
		IPAddress: sourceIP,
		Status:    model.AuditStatusSuccess,
		Metadata: map[string]any{
			"subject": subject,
			"score":   strconv.Itoa(score),
			"total":   strconv.Itoa(total),
		},
	})

	result := &SubmitResult{
		Subject:     subject,
		SubmittedAt: now,
		ShowResults: s.settings.ExamSettings(ctx).ShowResults,
	}
	if result.ShowResults {
		result.Score = &score
		result.Total = &total
	}
	return result, nil
}

func (s *SessionService) loadSubmission(ctx context.Context, studentID int, subject string) (*model.Submission, error) {
	sub, err := s.submissions.GetByStudentAndSubject(ctx, studentID, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}
	return sub, nil
}

// loadPaper serves the student projection from cache when warm, otherwise
// from storage. Cache failures degrade to a storage read.
func (s *SessionService) loadPaper(ctx context.Context, exam *model.Exam) ([]model.QuestionForStudent, error) {
	if paper, ok := s.paperCache.GetPaper(ctx, exam.ID); ok {
		return paper, nil
	}

	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	paper := make([]model.QuestionForStudent, 0, len(questions))
	for _, q := range questions {
		paper = append(paper, q.ForStudent())
	}
	if len(paper) > 0 {
		s.paperCache.SetPaper(ctx, exam.ID, paper)
	}
	return paper, nil
}

// shuffled returns a per-request permutation of the paper. Ordering is
// presentation only; ids and grading are unaffected.
func shuffled(paper []model.QuestionForStudent) []model.QuestionForStudent {
	out := make([]model.QuestionForStudent, len(paper))
	copy(out, paper)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func (s *SessionService) auditDenied(ctx context.Context, student *model.Student, subject, sourceIP, reason string) {
	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditExamAccessDenied,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s: %s", subject, reason),
		IPAddress: sourceIP,
		Status:    model.AuditStatusFailure,
		Metadata:  map[string]any{"subject": subject, "reason": reason},
	})
}

func (s *SessionService) auditSaveFailed(ctx context.Context, student *model.Student, subject, sourceIP, reason string) {
	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditProgressSaveFailed,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s: %s", subject, reason),
		IPAddress: sourceIP,
		Status:    model.AuditStatusFailure,
		Metadata:  map[string]any{"subject": subject, "reason": reason},
	})
}

func (s *SessionService) auditSubmitFailed(ctx context.Context, student *model.Student, subject, sourceIP, reason string) {
	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditExamSubmissionFailed,
		ActorType: model.ActorStudent,
		ActorID:   student.ExamCode,
		Details:   fmt.Sprintf("subject %s: %s", subject, reason),
		IPAddress: sourceIP,
		Status:    model.AuditStatusFailure,
		Metadata:  map[string]any{"subject": subject, "reason": reason},
	})
}
