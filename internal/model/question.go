package model

// Question belongs to exactly one exam and has four options with one
// correct letter. Only the repository and grading engine ever see
// CorrectOption; student-facing code works with QuestionForStudent.
type Question struct {
	ID            int    `json:"id"`
	ExamID        int    `json:"exam_id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption Letter `json:"correct_option"`
	OrderNum      int    `json:"order_num"`
}

// QuestionForStudent is the delivery projection. The correct option is
// stripped before anything leaves the service layer.
type QuestionForStudent struct {
	ID           int    `json:"id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}

// ForStudent strips the answer key from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
	}
}

// AddQuestionRequest is the admin payload for adding a question.
type AddQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectOption Letter `json:"correct_option" binding:"required,oneof=A B C D"`
	OrderNum      int    `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the admin payload for bulk replacing an exam's
// question set.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
