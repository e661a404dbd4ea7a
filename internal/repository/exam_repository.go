package repository

import (
	"context"
	"errors"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateExam = errors.New("an exam already exists for this subject and class")

// ExamRepository handles exam data access. The session engine treats exams
// as read-only configuration; writes come from the admin surface only.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, subject, class, duration_minutes, is_active, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Subject, &e.Class, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id int) (*model.Exam, error) {
	e := &model.Exam{}
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetBySubjectAndClass retrieves the single exam for a (subject, class) pair.
func (r *ExamRepository) GetBySubjectAndClass(ctx context.Context, subject, class string) (*model.Exam, error) {
	e := &model.Exam{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE subject = $1 AND class = $2`,
		subject, class)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListActiveByClass retrieves all active exams assignable to a class.
func (r *ExamRepository) ListActiveByClass(ctx context.Context, class string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE class = $1 AND is_active = TRUE
		 ORDER BY subject`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListAll retrieves every exam, for the admin surface.
func (r *ExamRepository) ListAll(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY class, subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam. The (subject, class) pair is unique.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (subject, class, duration_minutes, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		e.Subject, e.Class, e.DurationMinutes, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateExam
		}
		return err
	}
	return nil
}

// Update modifies an exam's duration and active flag. In-progress sessions
// keep the duration snapshot they started with.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET duration_minutes = $1, is_active = $2, updated_at = NOW() WHERE id = $3`,
		e.DurationMinutes, e.IsActive, e.ID)
	return err
}

// Delete removes an exam and (via FK cascade) its questions.
func (r *ExamRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
