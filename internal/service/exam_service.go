package service

import (
	"context"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ExamService covers admin-side exam and question management plus the
// results view. Any question mutation invalidates the exam's cached paper
// so students never see a stale question set.
type ExamService struct {
	exams       *repository.ExamRepository
	questions   *repository.QuestionRepository
	submissions *repository.SubmissionRepository
	paperCache  PaperCache
	log         zerolog.Logger
}

// NewExamService creates an ExamService.
func NewExamService(
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	submissions *repository.SubmissionRepository,
	paperCache PaperCache,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:       exams,
		questions:   questions,
		submissions: submissions,
		paperCache:  paperCache,
		log:         log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns every exam.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.exams.ListAll(ctx)
}

// Get retrieves one exam.
func (s *ExamService) Get(ctx context.Context, id int) (*model.Exam, error) {
	return s.exams.GetByID(ctx, id)
}

// Create adds an exam for a (subject, class) pair. New exams default to
// inactive so questions can be loaded before students see them.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Subject:         req.Subject,
		Class:           req.Class,
		DurationMinutes: req.DurationMinutes,
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}

	s.log.Info().Str("subject", exam.Subject).Str("class", exam.Class).Msg("exam created")
	return exam, nil
}

// Update changes an exam's duration or active flag. Sessions already
// started keep their duration snapshot.
func (s *ExamService) Update(ctx context.Context, id int, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Delete removes an exam, its questions (FK cascade) and its cached paper.
func (s *ExamService) Delete(ctx context.Context, id int) error {
	if _, err := s.exams.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		return err
	}
	s.paperCache.InvalidatePaper(ctx, id)
	return nil
}

// ListQuestions returns an exam's full question set, answer keys included.
// Admin surface only.
func (s *ExamService) ListQuestions(ctx context.Context, examID int) ([]model.Question, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	return s.questions.ListByExam(ctx, examID)
}

// AddQuestion appends a question to an exam.
func (s *ExamService) AddQuestion(ctx context.Context, examID int, req *model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	q := questionFromRequest(examID, req)
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}

	s.paperCache.InvalidatePaper(ctx, examID)
	return q, nil
}

// ReplaceQuestions swaps an exam's entire question set in one transaction.
func (s *ExamService) ReplaceQuestions(ctx context.Context, examID int, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		q := questionFromRequest(examID, &req.Questions[i])
		if q.OrderNum == 0 {
			q.OrderNum = i + 1
		}
		questions = append(questions, *q)
	}

	if err := s.questions.ReplaceForExam(ctx, examID, questions); err != nil {
		return nil, err
	}

	s.paperCache.InvalidatePaper(ctx, examID)
	s.log.Info().Int("exam_id", examID).Int("count", len(questions)).Msg("question set replaced")
	return questions, nil
}

// ListResults returns the admin results view with optional subject and
// class filters.
func (s *ExamService) ListResults(ctx context.Context, subject, class string, limit, offset int) ([]model.SubmissionResult, int, error) {
	return s.submissions.ListResults(ctx, subject, class, limit, offset)
}

func questionFromRequest(examID int, req *model.AddQuestionRequest) *model.Question {
	return &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		OrderNum:      req.OrderNum,
	}
}
