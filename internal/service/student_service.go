package service

import (
	"context"
	"fmt"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// StudentService covers the admin-side student roster.
type StudentService struct {
	repo       *repository.StudentRepository
	bcryptCost int
	log        zerolog.Logger
}

// NewStudentService creates a StudentService.
func NewStudentService(repo *repository.StudentRepository, bcryptCost int, log zerolog.Logger) *StudentService {
	return &StudentService{
		repo:       repo,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "student_service").Logger(),
	}
}

// Get retrieves one student.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of students, optionally filtered by class.
func (s *StudentService) List(ctx context.Context, class string, limit, offset int) ([]model.Student, int, error) {
	return s.repo.ListPaginated(ctx, class, limit, offset)
}

// Create registers a student, hashing the supplied password.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		ExamCode:     req.ExamCode,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Class:        req.Class,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_code", student.ExamCode).Str("class", student.Class).Msg("student created")
	return student, nil
}

// Update modifies a student's details and, when a new password is supplied,
// rotates the hash.
func (s *StudentService) Update(ctx context.Context, id int, req *model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	student.ExamCode = req.ExamCode
	student.FirstName = req.FirstName
	student.MiddleName = req.MiddleName
	student.LastName = req.LastName
	student.Class = req.Class

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
			return nil, err
		}
	}
	return student, nil
}

// Delete removes a student and their submissions (FK cascade).
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
