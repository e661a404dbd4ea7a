package model

// Portal requests carry the student's credentials in every body; the
// portal is deliberately tokenless so a crashed browser can rejoin with
// nothing but the printed exam slip.

// StudentLoginRequest authenticates a student and lists their exams.
type StudentLoginRequest struct {
	ExamCode string `json:"exam_code" binding:"required,min=4,max=32"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// ExamQuestionsRequest starts or resumes a subject session.
type ExamQuestionsRequest struct {
	ExamCode string `json:"exam_code" binding:"required,min=4,max=32"`
	Password string `json:"password" binding:"required,min=4,max=128"`
	Subject  string `json:"subject" binding:"required,min=1,max=100"`
}

// SaveProgressRequest checkpoints the student's current answers. The map
// replaces the stored set wholesale.
type SaveProgressRequest struct {
	ExamCode string    `json:"exam_code" binding:"required,min=4,max=32"`
	Password string    `json:"password" binding:"required,min=4,max=128"`
	Subject  string    `json:"subject" binding:"required,min=1,max=100"`
	Answers  AnswerSet `json:"answers" binding:"required"`
}

// SubmitExamRequest finalizes a subject session. The answers here are
// authoritative; saved progress is ignored at grading time.
type SubmitExamRequest struct {
	ExamCode string    `json:"exam_code" binding:"required,min=4,max=32"`
	Password string    `json:"password" binding:"required,min=4,max=128"`
	Subject  string    `json:"subject" binding:"required,min=1,max=100"`
	Answers  AnswerSet `json:"answers" binding:"required"`
}
