package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateExamCode = errors.New("student with this exam code already exists")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, exam_code, first_name, middle_name, last_name, class, password_hash, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }, s *model.Student) error {
	return row.Scan(&s.ID, &s.ExamCode, &s.FirstName, &s.MiddleName, &s.LastName,
		&s.Class, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err := scanStudent(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByExamCode retrieves a student by their unique exam code.
func (r *StudentRepository) GetByExamCode(ctx context.Context, examCode string) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE exam_code = $1`, examCode)
	if err := scanStudent(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListPaginated retrieves students with pagination and optional class filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, class string, limit, offset int) ([]model.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var countArgs []any
	if class != "" {
		countQuery += ` WHERE class = $1`
		countArgs = append(countArgs, class)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	var args []any
	argIdx := 1

	if class != "" {
		query += ` WHERE class = $1`
		args = append(args, class)
		argIdx++
	}

	query += ` ORDER BY class, last_name, first_name LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (exam_code, first_name, middle_name, last_name, class, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		s.ExamCode, s.FirstName, s.MiddleName, s.LastName, s.Class, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateExamCode
		}
		return err
	}
	return nil
}

// Update modifies a student's basic info (excluding password).
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students
		 SET exam_code = $1, first_name = $2, middle_name = $3, last_name = $4, class = $5, updated_at = NOW()
		 WHERE id = $6`,
		s.ExamCode, s.FirstName, s.MiddleName, s.LastName, s.Class, s.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateExamCode
		}
		return err
	}
	return nil
}

// UpdatePassword updates a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
