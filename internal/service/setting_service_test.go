package service

import (
	"context"
	"errors"
	"testing"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/rs/zerolog"
)

type fakeSettingStore struct {
	rows   map[string]string
	getErr error
}

func (f *fakeSettingStore) GetAll(context.Context) ([]model.AppSetting, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]model.AppSetting, 0, len(f.rows))
	for k, v := range f.rows {
		out = append(out, model.AppSetting{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeSettingStore) Upsert(_ context.Context, key, value string) error {
	f.rows[key] = value
	return nil
}

func TestExamSettingsResolution(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeSettingStore
		want  model.ExamSettings
	}{
		{
			name:  "empty store uses defaults",
			store: &fakeSettingStore{rows: map[string]string{}},
			want:  model.ExamSettings{ShuffleQuestions: false, ShowResults: true},
		},
		{
			name: "stored values win",
			store: &fakeSettingStore{rows: map[string]string{
				"shuffle_questions": "true",
				"show_results":      "false",
			}},
			want: model.ExamSettings{ShuffleQuestions: true, ShowResults: false},
		},
		{
			name: "unparseable value falls back",
			store: &fakeSettingStore{rows: map[string]string{
				"shuffle_questions": "yes please",
			}},
			want: model.ExamSettings{ShuffleQuestions: false, ShowResults: true},
		},
		{
			name:  "storage failure yields defaults",
			store: &fakeSettingStore{getErr: errors.New("db down")},
			want:  model.ExamSettings{ShuffleQuestions: false, ShowResults: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSettingService(tt.store, zerolog.Nop())
			if got := svc.ExamSettings(context.Background()); got != tt.want {
				t.Errorf("ExamSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUpdateSettings(t *testing.T) {
	store := &fakeSettingStore{rows: map[string]string{}}
	svc := NewSettingService(store, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Update(ctx, map[string]string{"shuffle_questions": "true", "show_results": "false"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if store.rows["shuffle_questions"] != "true" || store.rows["show_results"] != "false" {
		t.Errorf("rows = %v", store.rows)
	}

	if err := svc.Update(ctx, map[string]string{"grading_curve": "true"}); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("unknown key: err = %v, want ErrInvalidSetting", err)
	}
	if err := svc.Update(ctx, map[string]string{"show_results": "maybe"}); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("non-boolean: err = %v, want ErrInvalidSetting", err)
	}
}
