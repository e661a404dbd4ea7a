package repository

import (
	"context"
	"fmt"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. It exposes two distinct
// reads: the full set for delivery and the id → correct-answer projection
// for grading, so the answer key never travels with student-facing data.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for a given exam, in storage order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, option_a, option_b, option_c, option_d, correct_option, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.OptionA, &q.OptionB,
			&q.OptionC, &q.OptionD, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKeyBySubjectClass returns the id → correct-answer projection for the
// active exam on a (subject, class) pair. Inactive exams yield an empty key.
func (r *QuestionRepository) AnswerKeyBySubjectClass(ctx context.Context, subject, class string) (map[int]model.Letter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.correct_option
		 FROM questions q
		 JOIN exams e ON q.exam_id = e.id
		 WHERE e.subject = $1 AND e.class = $2 AND e.is_active = TRUE`,
		subject, class,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[int]model.Letter)
	for rows.Next() {
		var id int
		var correct model.Letter
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		key[id] = correct
	}
	return key, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, question_text, option_a, option_b, option_c, option_d, correct_option, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.ExamID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceForExam swaps an exam's entire question set in one transaction.
func (r *QuestionRepository) ReplaceForExam(ctx context.Context, examID int, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		q.ExamID = examID
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, question_text, option_a, option_b, option_c, option_d, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			q.ExamID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.OrderNum,
		).Scan(&q.ID); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}
