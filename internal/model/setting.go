package model

import "time"

// Setting keys understood by the exam engine.
const (
	SettingShuffleQuestions = "shuffle_questions"
	SettingShowResults      = "show_results"
)

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExamSettings is the per-request snapshot of the settings the session
// engine consumes. Resolved once per request so a mid-request settings
// change cannot produce inconsistent behavior.
type ExamSettings struct {
	ShuffleQuestions bool `json:"shuffle_questions"`
	ShowResults      bool `json:"show_results"`
}

// DefaultExamSettings are used when a key is unset or unparseable:
// no shuffling, results shown after submit.
func DefaultExamSettings() ExamSettings {
	return ExamSettings{ShuffleQuestions: false, ShowResults: true}
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}
