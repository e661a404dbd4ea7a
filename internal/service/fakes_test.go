package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// fakeClock is a hand-settable clock injected in place of time.Now.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memBackend is an in-memory stand-in for the pgx repositories. Absence is
// reported as pgx.ErrNoRows, matching the real stores.
type memBackend struct {
	mu        sync.Mutex
	clock     *fakeClock
	students  map[string]*model.Student
	exams     []*model.Exam
	questions map[int][]model.Question
	subs      map[string]*model.Submission
	nextSubID int
}

func newMemBackend(clock *fakeClock) *memBackend {
	return &memBackend{
		clock:     clock,
		students:  make(map[string]*model.Student),
		questions: make(map[int][]model.Question),
		subs:      make(map[string]*model.Submission),
		nextSubID: 1,
	}
}

func subKey(studentID int, subject string) string {
	return fmt.Sprintf("%d|%s", studentID, subject)
}

func (b *memBackend) GetByExamCode(_ context.Context, examCode string) (*model.Student, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.students[examCode]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (b *memBackend) GetBySubjectAndClass(_ context.Context, subject, class string) (*model.Exam, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.exams {
		if e.Subject == subject && e.Class == class {
			cp := *e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (b *memBackend) ListActiveByClass(_ context.Context, class string) ([]model.Exam, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Exam
	for _, e := range b.exams {
		if e.Class == class && e.IsActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (b *memBackend) ListByExam(_ context.Context, examID int) ([]model.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Question(nil), b.questions[examID]...), nil
}

func (b *memBackend) AnswerKeyBySubjectClass(_ context.Context, subject, class string) (map[int]model.Letter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := make(map[int]model.Letter)
	for _, e := range b.exams {
		if e.Subject == subject && e.Class == class && e.IsActive {
			for _, q := range b.questions[e.ID] {
				key[q.ID] = q.CorrectOption
			}
		}
	}
	return key, nil
}

func (b *memBackend) GetByStudentAndSubject(_ context.Context, studentID int, subject string) (*model.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[subKey(studentID, subject)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *sub
	return &cp, nil
}

func (b *memBackend) CreateIfAbsent(_ context.Context, studentID int, subject string, durationMinutes int) (*model.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subKey(studentID, subject)
	if existing, ok := b.subs[key]; ok {
		cp := *existing
		return &cp, nil
	}

	now := b.clock.Now()
	sub := &model.Submission{
		ID:              b.nextSubID,
		StudentID:       studentID,
		Subject:         subject,
		ExamStartedAt:   now,
		DurationMinutes: durationMinutes,
		Answers:         model.AnswerSet{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.nextSubID++
	b.subs[key] = sub
	cp := *sub
	return &cp, nil
}

func (b *memBackend) SaveAnswers(_ context.Context, studentID int, subject string, answers model.AnswerSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[subKey(studentID, subject)]
	if !ok || sub.SubmittedAt != nil {
		return nil
	}
	cp := make(model.AnswerSet, len(answers))
	for k, v := range answers {
		cp[k] = v
	}
	sub.Answers = cp
	sub.UpdatedAt = b.clock.Now()
	return nil
}

func (b *memBackend) Finalize(_ context.Context, studentID int, subject string, answers model.AnswerSet, score, total int, submittedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[subKey(studentID, subject)]
	if !ok || sub.SubmittedAt != nil {
		return false, nil
	}
	cp := make(model.AnswerSet, len(answers))
	for k, v := range answers {
		cp[k] = v
	}
	sub.Answers = cp
	sub.Score = &score
	sub.TotalQuestions = &total
	at := submittedAt
	sub.SubmittedAt = &at
	sub.UpdatedAt = submittedAt
	return true, nil
}

// fakeSettings serves a fixed settings snapshot.
type fakeSettings struct {
	settings model.ExamSettings
}

func (f *fakeSettings) ExamSettings(context.Context) model.ExamSettings {
	return f.settings
}

// fakeAudit records emitted events for assertions.
type fakeAudit struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (f *fakeAudit) Emit(_ context.Context, event model.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

// nopPaperCache always misses.
type nopPaperCache struct{}

func (nopPaperCache) GetPaper(context.Context, int) ([]model.QuestionForStudent, bool) {
	return nil, false
}
func (nopPaperCache) SetPaper(context.Context, int, []model.QuestionForStudent) {}
func (nopPaperCache) InvalidatePaper(context.Context, int)                      {}
