package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/rs/zerolog"
)

type sessionFixture struct {
	svc     *SessionService
	backend *memBackend
	clock   *fakeClock
	audit   *fakeAudit
	student *model.Student
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	backend := newMemBackend(clock)
	audit := &fakeAudit{}
	settings := &fakeSettings{settings: model.DefaultExamSettings()}

	student := &model.Student{
		ID: 1, ExamCode: "TEST-001A", FirstName: "Ada", LastName: "Obi", Class: "JSS1",
		PasswordHash: "x",
	}
	backend.students[student.ExamCode] = student

	exam := &model.Exam{ID: 10, Subject: "Math", Class: "JSS1", DurationMinutes: 60, IsActive: true}
	backend.exams = append(backend.exams, exam)
	backend.questions[exam.ID] = []model.Question{
		{ID: 101, ExamID: 10, QuestionText: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: model.LetterB, OrderNum: 1},
		{ID: 102, ExamID: 10, QuestionText: "3*3?", OptionA: "9", OptionB: "6", OptionC: "27", OptionD: "12", CorrectOption: model.LetterA, OrderNum: 2},
		{ID: 103, ExamID: 10, QuestionText: "10/2?", OptionA: "2", OptionB: "8", OptionC: "5", OptionD: "4", CorrectOption: model.LetterC, OrderNum: 3},
	}

	svc := NewSessionService(backend, backend, backend, settings, nopPaperCache{}, audit, zerolog.Nop())
	svc.now = clock.Now

	return &sessionFixture{svc: svc, backend: backend, clock: clock, audit: audit, student: student}
}

func (f *sessionFixture) settings(s model.ExamSettings) {
	f.svc.settings = &fakeSettings{settings: s}
}

func TestRequestQuestionsStartsSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	delivery, err := f.svc.RequestQuestions(ctx, f.student, "Math", "10.0.0.1")
	if err != nil {
		t.Fatalf("RequestQuestions: %v", err)
	}

	if delivery.RemainingSeconds != 3600 {
		t.Errorf("remaining = %d, want 3600", delivery.RemainingSeconds)
	}
	if delivery.DurationMinutes != 60 {
		t.Errorf("duration = %d, want 60", delivery.DurationMinutes)
	}
	if len(delivery.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(delivery.Questions))
	}
	if len(delivery.SavedAnswers) != 0 {
		t.Errorf("saved answers = %v, want empty", delivery.SavedAnswers)
	}

	sub, err := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math")
	if err != nil {
		t.Fatalf("session row not created: %v", err)
	}
	if !sub.ExamStartedAt.Equal(f.clock.Now()) {
		t.Errorf("start = %s, want %s", sub.ExamStartedAt, f.clock.Now())
	}
	if sub.DurationMinutes != 60 {
		t.Errorf("duration snapshot = %d, want 60", sub.DurationMinutes)
	}
}

func TestRequestQuestionsResumeKeepsClockRunning(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := model.AnswerSet{101: "B", 102: "A"}
	if err := f.svc.SaveProgress(ctx, f.student, "Math", answers, ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	f.clock.Advance(10 * time.Minute)
	delivery, err := f.svc.RequestQuestions(ctx, f.student, "Math", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}

	if delivery.RemainingSeconds != 50*60 {
		t.Errorf("remaining = %d, want %d", delivery.RemainingSeconds, 50*60)
	}
	if len(delivery.SavedAnswers) != 2 || delivery.SavedAnswers[101] != "B" {
		t.Errorf("saved answers = %v, want restored autosave", delivery.SavedAnswers)
	}
}

func TestRequestQuestionsDurationSnapshot(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Admin doubles the exam duration mid-session.
	f.backend.exams[0].DurationMinutes = 120

	f.clock.Advance(30 * time.Minute)
	delivery, err := f.svc.RequestQuestions(ctx, f.student, "Math", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if delivery.RemainingSeconds != 30*60 {
		t.Errorf("remaining = %d, want %d (snapshot must ignore exam edits)", delivery.RemainingSeconds, 30*60)
	}
}

func TestRequestQuestionsUnknownOrInactiveExam(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "History", ""); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown subject: err = %v, want ErrExamNotFound", err)
	}

	f.backend.exams[0].IsActive = false
	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("inactive exam: err = %v, want ErrExamNotFound", err)
	}
}

func TestRequestQuestionsNoQuestions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.backend.questions[10] = nil

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}

	// An empty paper must not burn the student's clock.
	if _, err := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math"); err == nil {
		t.Error("session row created for exam with no questions")
	}
}

func TestRequestQuestionsTerminalPhases(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Advance(60 * time.Minute)
	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); !errors.Is(err, ErrTimeExpired) {
		t.Errorf("expired: err = %v, want ErrTimeExpired", err)
	}

	// Submit within grace, then re-request.
	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); err != nil {
		t.Fatalf("submit in grace: %v", err)
	}
	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("submitted: err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestRequestQuestionsShufflePreservesQuestionSet(t *testing.T) {
	f := newSessionFixture(t)
	f.settings(model.ExamSettings{ShuffleQuestions: true, ShowResults: true})

	delivery, err := f.svc.RequestQuestions(context.Background(), f.student, "Math", "")
	if err != nil {
		t.Fatalf("RequestQuestions: %v", err)
	}

	seen := make(map[int]bool, len(delivery.Questions))
	for _, q := range delivery.Questions {
		seen[q.ID] = true
	}
	for _, want := range []int{101, 102, 103} {
		if !seen[want] {
			t.Errorf("shuffled paper lost question %d", want)
		}
	}
}

func TestSaveProgressLifecycle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrNoSession) {
		t.Errorf("before start: err = %v, want ErrNoSession", err)
	}

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "B", 103: "C"}, ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Last write wins: a save with fewer answers replaces wholesale.
	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{102: "A"}, ""); err != nil {
		t.Fatalf("second save: %v", err)
	}
	sub, _ := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math")
	if len(sub.Answers) != 1 || sub.Answers[102] != "A" {
		t.Errorf("answers = %v, want wholesale overwrite", sub.Answers)
	}
}

func TestSaveProgressHasNoGrace(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Advance(60*time.Minute - time.Second)
	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); err != nil {
		t.Fatalf("save just before expiry: %v", err)
	}

	f.clock.Advance(time.Second)
	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrTimeExpired) {
		t.Errorf("save at expiry: err = %v, want ErrTimeExpired", err)
	}
}

func TestSaveProgressRejectsMalformedAnswers(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "E"}, ""); !errors.Is(err, ErrInvalidAnswers) {
		t.Errorf("bad letter: err = %v, want ErrInvalidAnswers", err)
	}
	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{-4: "A"}, ""); !errors.Is(err, ErrInvalidAnswers) {
		t.Errorf("bad id: err = %v, want ErrInvalidAnswers", err)
	}
}

func TestSubmitExamGrades(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 2 correct, 1 wrong, 1 extraneous id; total stays 3.
	answers := model.AnswerSet{101: "B", 102: "D", 103: "C", 999: "A"}
	result, err := f.svc.SubmitExam(ctx, f.student, "Math", answers, "10.0.0.1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !result.ShowResults || result.Score == nil || result.Total == nil {
		t.Fatalf("result = %+v, want visible score", result)
	}
	if *result.Score != 2 || *result.Total != 3 {
		t.Errorf("score = %d/%d, want 2/3", *result.Score, *result.Total)
	}

	sub, _ := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math")
	if sub.SubmittedAt == nil || *sub.Score != 2 || *sub.TotalQuestions != 3 {
		t.Errorf("persisted submission = %+v, want finalized 2/3", sub)
	}
}

func TestSubmitExamGraceBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("inside grace", func(t *testing.T) {
		f := newSessionFixture(t)
		if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
			t.Fatalf("start: %v", err)
		}
		f.clock.Advance(60*time.Minute + 59*time.Second)
		if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); err != nil {
			t.Fatalf("submit at +59s: %v", err)
		}
	})

	t.Run("at grace boundary", func(t *testing.T) {
		f := newSessionFixture(t)
		if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
			t.Fatalf("start: %v", err)
		}
		f.clock.Advance(60*time.Minute + 60*time.Second)
		if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrTimeExpired) {
			t.Fatalf("submit at +60s: err = %v, want ErrTimeExpired", err)
		}
	})
}

func TestSubmitExamExactlyOnce(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B", 102: "A", 103: "C"}, ""); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit: err = %v, want ErrAlreadySubmitted", err)
	}

	// The losing submit must not have touched the stored score.
	sub, _ := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math")
	if *sub.Score != 1 {
		t.Errorf("score = %d, want 1 from the winning submit", *sub.Score)
	}
}

func TestSubmitExamLosesFinalizeRace(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Swap in a store whose CAS always reports a lost race, simulating a
	// concurrent submit landing between the state read and the write.
	f.svc.submissions = &lostRaceStore{SubmissionStore: f.backend}

	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitExamNoAnswerKey(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Questions withdrawn after the session started.
	f.backend.questions[10] = nil

	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrNoAnswerKey) {
		t.Fatalf("err = %v, want ErrNoAnswerKey", err)
	}
}

func TestSubmitExamHiddenResults(t *testing.T) {
	f := newSessionFixture(t)
	f.settings(model.ExamSettings{ShuffleQuestions: false, ShowResults: false})
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if result.ShowResults || result.Score != nil || result.Total != nil {
		t.Errorf("result = %+v, want score withheld", result)
	}

	// The score is still graded and stored for the admin view.
	sub, _ := f.backend.GetByStudentAndSubject(ctx, f.student.ID, "Math")
	if sub.Score == nil || *sub.Score != 1 {
		t.Errorf("stored score = %v, want 1", sub.Score)
	}
}

func TestSubmitExamNoSession(t *testing.T) {
	f := newSessionFixture(t)
	if _, err := f.svc.SubmitExam(context.Background(), f.student, "Math", model.AnswerSet{101: "B"}, ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionAuditTrail(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestQuestions(ctx, f.student, "Math", "10.0.0.9"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.SaveProgress(ctx, f.student, "Math", model.AnswerSet{101: "B"}, "10.0.0.9"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.svc.SubmitExam(ctx, f.student, "Math", model.AnswerSet{101: "B"}, "10.0.0.9"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []string{model.AuditExamStarted, model.AuditProgressSaved, model.AuditExamSubmitted}
	got := f.audit.actions()
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("audit[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	for _, e := range f.audit.events {
		if e.IPAddress != "10.0.0.9" {
			t.Errorf("event %s ip = %q, want 10.0.0.9", e.Action, e.IPAddress)
		}
		if e.ActorID != "TEST-001A" {
			t.Errorf("event %s actor = %q, want TEST-001A", e.Action, e.ActorID)
		}
	}
}

// lostRaceStore forces Finalize to report that another submit won.
type lostRaceStore struct {
	SubmissionStore
}

func (s *lostRaceStore) Finalize(context.Context, int, string, model.AnswerSet, int, int, time.Time) (bool, error) {
	return false, nil
}
