package model

import "time"

// Student represents an examinee account. Students authenticate with their
// unique exam code plus password on every request; no session tokens exist
// on the student side.
type Student struct {
	ID           int       `json:"id"`
	ExamCode     string    `json:"exam_code"`
	FirstName    string    `json:"first_name"`
	MiddleName   string    `json:"middle_name,omitempty"`
	LastName     string    `json:"last_name"`
	Class        string    `json:"class"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins the student's name parts, skipping an empty middle name.
func (s *Student) FullName() string {
	if s.MiddleName == "" {
		return s.FirstName + " " + s.LastName
	}
	return s.FirstName + " " + s.MiddleName + " " + s.LastName
}

// StudentSummary is the student projection returned by the portal; it never
// carries the password hash.
type StudentSummary struct {
	ID       int    `json:"id"`
	ExamCode string `json:"exam_code"`
	FullName string `json:"full_name"`
	Class    string `json:"class"`
}

// Summary builds the portal-facing projection.
func (s *Student) Summary() StudentSummary {
	return StudentSummary{
		ID:       s.ID,
		ExamCode: s.ExamCode,
		FullName: s.FullName(),
		Class:    s.Class,
	}
}

// CreateStudentRequest is the admin payload for registering a student.
type CreateStudentRequest struct {
	ExamCode   string `json:"exam_code" binding:"required,min=4,max=32"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=100"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=100"`
	LastName   string `json:"last_name" binding:"required,min=1,max=100"`
	Class      string `json:"class" binding:"required,min=1,max=32"`
	Password   string `json:"password" binding:"required,min=4,max=128"`
}

// UpdateStudentRequest is the admin payload for updating a student.
// Password is optional; when empty the existing hash is kept.
type UpdateStudentRequest struct {
	ExamCode   string `json:"exam_code" binding:"required,min=4,max=32"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=100"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=100"`
	LastName   string `json:"last_name" binding:"required,min=1,max=100"`
	Class      string `json:"class" binding:"required,min=1,max=32"`
	Password   string `json:"password" binding:"omitempty,min=4,max=128"`
}
