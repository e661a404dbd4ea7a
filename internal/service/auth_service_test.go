package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminStore struct {
	mu     sync.Mutex
	admins map[string]*model.Admin
}

func (f *fakeAdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memBackend, *fakeClock, *fakeAudit) {
	t.Helper()

	clock := newFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	backend := newMemBackend(clock)
	audit := &fakeAudit{}

	studentHash, err := bcrypt.GenerateFromPassword([]byte("xK9mQ2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	backend.students["TEST-001A"] = &model.Student{
		ID: 1, ExamCode: "TEST-001A", FirstName: "Ada", LastName: "Obi",
		Class: "JSS1", PasswordHash: string(studentHash),
	}
	backend.exams = append(backend.exams, &model.Exam{
		ID: 10, Subject: "Math", Class: "JSS1", DurationMinutes: 60, IsActive: true,
	})

	adminHash, err := bcrypt.GenerateFromPassword([]byte("sup3rsecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admins := &fakeAdminStore{admins: map[string]*model.Admin{
		"root@school.test": {ID: 1, Name: "Root", Email: "root@school.test", PasswordHash: string(adminHash)},
	}}

	svc := NewAuthService(backend, backend, admins, audit, "test-secret", time.Hour, bcrypt.MinCost, zerolog.Nop())
	svc.now = clock.Now
	return svc, backend, clock, audit
}

func TestLoginStudent(t *testing.T) {
	svc, _, _, audit := newAuthFixture(t)

	result, err := svc.LoginStudent(context.Background(), "TEST-001A", "xK9mQ2", "10.0.0.1")
	if err != nil {
		t.Fatalf("LoginStudent: %v", err)
	}

	if result.Student.ExamCode != "TEST-001A" || result.Student.FullName != "Ada Obi" {
		t.Errorf("student = %+v", result.Student)
	}
	if len(result.Exams) != 1 || result.Exams[0].Subject != "Math" {
		t.Errorf("exams = %+v, want single Math entry", result.Exams)
	}

	actions := audit.actions()
	if len(actions) != 1 || actions[0] != model.AuditStudentLogin {
		t.Errorf("audit = %v, want single STUDENT_LOGIN", actions)
	}
}

func TestLoginStudentBadCredentials(t *testing.T) {
	svc, _, _, audit := newAuthFixture(t)
	ctx := context.Background()

	// Unknown code and wrong password collapse into the same error.
	if _, err := svc.LoginStudent(ctx, "NOPE-999Z", "xK9mQ2", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown code: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginStudent(ctx, "TEST-001A", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}

	for _, a := range audit.actions() {
		if a != model.AuditStudentLoginFailed {
			t.Errorf("audit action = %s, want STUDENT_LOGIN_FAILED", a)
		}
	}
}

func TestLoginStudentNoActiveExams(t *testing.T) {
	svc, backend, _, _ := newAuthFixture(t)
	backend.exams[0].IsActive = false

	if _, err := svc.LoginStudent(context.Background(), "TEST-001A", "xK9mQ2", ""); !errors.Is(err, ErrNoActiveExams) {
		t.Fatalf("err = %v, want ErrNoActiveExams", err)
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	svc, _, clock, _ := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.LoginAdmin(ctx, "root@school.test", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("LoginAdmin: %v", err)
	}

	claims, err := svc.ValidateAdminToken(session.Token)
	if err != nil {
		t.Fatalf("ValidateAdminToken: %v", err)
	}
	if claims.AdminID != 1 || claims.Email != "root@school.test" {
		t.Errorf("claims = %+v", claims)
	}

	// Token must die with its expiry.
	clock.Advance(2 * time.Hour)
	if _, err := svc.ValidateAdminToken(session.Token); err == nil {
		t.Error("expired token validated")
	}
}

func TestLoginAdminBadCredentials(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.LoginAdmin(ctx, "ghost@school.test", "sup3rsecret", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginAdmin(ctx, "root@school.test", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateAdminTokenRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	for _, token := range []string{"", "not.a.jwt", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := svc.ValidateAdminToken(token); err == nil {
			t.Errorf("token %q validated", token)
		}
	}
}
