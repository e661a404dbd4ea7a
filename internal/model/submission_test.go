package model

import (
	"testing"
	"time"
)

func TestAnswerSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		answers AnswerSet
		wantErr bool
	}{
		{name: "nil set is valid", answers: nil},
		{name: "empty set is valid", answers: AnswerSet{}},
		{name: "well formed", answers: AnswerSet{1: LetterA, 42: LetterD}},
		{name: "zero question id", answers: AnswerSet{0: LetterA}, wantErr: true},
		{name: "negative question id", answers: AnswerSet{-1: LetterB}, wantErr: true},
		{name: "letter out of range", answers: AnswerSet{1: "E"}, wantErr: true},
		{name: "lowercase letter", answers: AnswerSet{1: "a"}, wantErr: true},
		{name: "empty letter", answers: AnswerSet{1: ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.answers.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmissionAllottedDuration(t *testing.T) {
	sub := &Submission{DurationMinutes: 90}
	if got := sub.AllottedDuration(); got != 90*time.Minute {
		t.Errorf("AllottedDuration() = %s, want 90m", got)
	}
}

func TestStudentFullName(t *testing.T) {
	with := &Student{FirstName: "Ada", MiddleName: "N.", LastName: "Obi"}
	if got := with.FullName(); got != "Ada N. Obi" {
		t.Errorf("FullName() = %q", got)
	}
	without := &Student{FirstName: "Ada", LastName: "Obi"}
	if got := without.FullName(); got != "Ada Obi" {
		t.Errorf("FullName() = %q", got)
	}
}
