package service

import "errors"

// Domain errors. Business-rule violations are terminal for the request and
// never retried internally; anything else that bubbles out of a store is an
// infrastructure failure the caller may retry wholesale.
var (
	ErrInvalidCredentials = errors.New("invalid exam code or password")
	ErrNoActiveExams      = errors.New("no active exams for this class")
	ErrExamNotFound       = errors.New("exam not found or not active")
	ErrNoQuestions        = errors.New("exam has no questions")
	ErrNoSession          = errors.New("no exam session exists for this subject")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrTimeExpired        = errors.New("exam time expired")
	ErrNoAnswerKey        = errors.New("exam has no answer key")
	ErrInvalidAnswers     = errors.New("invalid answer payload")
	ErrInvalidSetting     = errors.New("invalid setting")
)
