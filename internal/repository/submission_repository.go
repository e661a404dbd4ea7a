package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles the single mutable row per (student, subject)
// attempt. Concurrency guarantees live here: session creation is an atomic
// insert-or-fetch, final submission is a compare-and-set on submitted_at.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `id, student_id, subject, exam_started_at, duration_minutes, answers, score, total_questions, submitted_at, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }, s *model.Submission) error {
	return row.Scan(&s.ID, &s.StudentID, &s.Subject, &s.ExamStartedAt, &s.DurationMinutes,
		&s.Answers, &s.Score, &s.TotalQuestions, &s.SubmittedAt, &s.CreatedAt, &s.UpdatedAt)
}

// GetByStudentAndSubject retrieves a submission, or pgx.ErrNoRows if the
// student has never started this subject.
func (r *SubmissionRepository) GetByStudentAndSubject(ctx context.Context, studentID int, subject string) (*model.Submission, error) {
	s := &model.Submission{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE student_id = $1 AND subject = $2`, studentID, subject)
	if err := scanSubmission(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateIfAbsent starts a session atomically. Two racing first requests
// cannot create two rows: the unique (student_id, subject) constraint plus
// ON CONFLICT DO NOTHING make the loser fold into a read of the winner's
// row, so both callers observe the same exam_started_at.
func (r *SubmissionRepository) CreateIfAbsent(ctx context.Context, studentID int, subject string, durationMinutes int) (*model.Submission, error) {
	s := &model.Submission{}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO submissions (student_id, subject, exam_started_at, duration_minutes, answers)
		 VALUES ($1, $2, NOW(), $3, '{}'::jsonb)
		 ON CONFLICT (student_id, subject) DO NOTHING
		 RETURNING `+submissionColumns,
		studentID, subject, durationMinutes)

	err := scanSubmission(row, s)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; the winner's row is the session.
		return r.GetByStudentAndSubject(ctx, studentID, subject)
	}
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return s, nil
}

// SaveAnswers overwrites the answer set wholesale (last write wins). The
// submitted_at guard makes a save racing a submit a harmless no-op.
func (r *SubmissionRepository) SaveAnswers(ctx context.Context, studentID int, subject string, answers model.AnswerSet) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $3, updated_at = NOW()
		 WHERE student_id = $1 AND subject = $2 AND submitted_at IS NULL`,
		studentID, subject, answers)
	return err
}

// Finalize writes the terminal state exactly once. The submitted_at IS NULL
// predicate is the compare-and-set: of two concurrent submits only one
// affects a row; the other returns false and must report AlreadySubmitted.
func (r *SubmissionRepository) Finalize(ctx context.Context, studentID int, subject string, answers model.AnswerSet, score, total int, submittedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $3, score = $4, total_questions = $5, submitted_at = $6, updated_at = NOW()
		 WHERE student_id = $1 AND subject = $2 AND submitted_at IS NULL`,
		studentID, subject, answers, score, total, submittedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListResults retrieves submissions joined with student data for the admin
// results view, with optional subject/class filters and pagination.
func (r *SubmissionRepository) ListResults(ctx context.Context, subject, class string, limit, offset int) ([]model.SubmissionResult, int, error) {
	baseQuery := `
		FROM submissions sub
		JOIN students st ON sub.student_id = st.id
		WHERE 1=1
	`
	var args []any

	if subject != "" {
		args = append(args, subject)
		baseQuery += fmt.Sprintf(" AND sub.subject = $%d", len(args))
	}
	if class != "" {
		args = append(args, class)
		baseQuery += fmt.Sprintf(" AND st.class = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT st.id, st.exam_code,
		       TRIM(CONCAT(st.first_name, ' ', st.middle_name, ' ', st.last_name)),
		       st.class, sub.subject, sub.score, sub.total_questions,
		       sub.exam_started_at, sub.submitted_at
	` + baseQuery + fmt.Sprintf(`
		ORDER BY st.class, st.last_name, st.first_name
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.SubmissionResult
	for rows.Next() {
		var res model.SubmissionResult
		if err := rows.Scan(&res.StudentID, &res.ExamCode, &res.FullName, &res.Class,
			&res.Subject, &res.Score, &res.TotalQuestions, &res.ExamStartedAt, &res.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
