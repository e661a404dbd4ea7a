package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AdminStore looks up back-office accounts.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// AdminClaims is the JWT payload for admin sessions.
type AdminClaims struct {
	AdminID int    `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult is the student login payload: identity confirmation plus the
// exams the student may sit.
type LoginResult struct {
	Student model.StudentSummary   `json:"student"`
	Exams   []model.AssignableExam `json:"exams"`
}

// AdminSession is a freshly issued admin token and its subject.
type AdminSession struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Admin     model.Admin `json:"admin"`
}

// AuthService verifies student and admin credentials. Students are
// tokenless and re-verified on every portal request; admins receive a
// short-lived JWT.
type AuthService struct {
	students   StudentStore
	exams      ExamStore
	admins     AdminStore
	audit      AuditSink
	jwtSecret  []byte
	jwtExpiry  time.Duration
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates an AuthService on the real clock.
func NewAuthService(
	students StudentStore,
	exams ExamStore,
	admins AdminStore,
	audit AuditSink,
	jwtSecret string,
	jwtExpiry time.Duration,
	bcryptCost int,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		students:   students,
		exams:      exams,
		admins:     admins,
		audit:      audit,
		jwtSecret:  []byte(jwtSecret),
		jwtExpiry:  jwtExpiry,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

// VerifyStudent resolves and checks a student's credentials. Unknown exam
// codes and wrong passwords collapse into the same error so the portal
// cannot be used to probe which codes exist.
func (s *AuthService) VerifyStudent(ctx context.Context, examCode, password string) (*model.Student, error) {
	student, err := s.students.GetByExamCode(ctx, examCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return student, nil
}

// LoginStudent authenticates a student and lists the active exams for
// their class. A class with no active exams rejects the login outright:
// there is nothing the portal could show.
func (s *AuthService) LoginStudent(ctx context.Context, examCode, password, sourceIP string) (*LoginResult, error) {
	student, err := s.VerifyStudent(ctx, examCode, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.audit.Emit(ctx, model.AuditEvent{
				Action:    model.AuditStudentLoginFailed,
				ActorType: model.ActorStudent,
				ActorID:   examCode,
				Details:   "invalid credentials",
				IPAddress: sourceIP,
				Status:    model.AuditStatusFailure,
			})
		}
		return nil, err
	}

	exams, err := s.exams.ListActiveByClass(ctx, student.Class)
	if err != nil {
		return nil, fmt.Errorf("list active exams: %w", err)
	}
	if len(exams) == 0 {
		s.audit.Emit(ctx, model.AuditEvent{
			Action:    model.AuditStudentLoginFailed,
			ActorType: model.ActorStudent,
			ActorID:   examCode,
			Details:   fmt.Sprintf("no active exams for class %s", student.Class),
			IPAddress: sourceIP,
			Status:    model.AuditStatusFailure,
		})
		return nil, ErrNoActiveExams
	}

	assignable := make([]model.AssignableExam, 0, len(exams))
	for _, e := range exams {
		assignable = append(assignable, model.AssignableExam{
			Subject:         e.Subject,
			Class:           e.Class,
			DurationMinutes: e.DurationMinutes,
		})
	}

	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditStudentLogin,
		ActorType: model.ActorStudent,
		ActorID:   examCode,
		Details:   fmt.Sprintf("class %s, %d exams available", student.Class, len(assignable)),
		IPAddress: sourceIP,
		Status:    model.AuditStatusSuccess,
	})

	return &LoginResult{
		Student: student.Summary(),
		Exams:   assignable,
	}, nil
}

// LoginAdmin authenticates an admin and issues a signed JWT.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password, sourceIP string) (*AdminSession, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.auditAdminLoginFailed(ctx, email, sourceIP)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		s.auditAdminLoginFailed(ctx, email, sourceIP)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.jwtExpiry)
	claims := AdminClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditAdminLogin,
		ActorType: model.ActorAdmin,
		ActorID:   email,
		Details:   "admin login",
		IPAddress: sourceIP,
		Status:    model.AuditStatusSuccess,
	})

	return &AdminSession{Token: token, ExpiresAt: expiresAt, Admin: *admin}, nil
}

// ValidateAdminToken parses and verifies an admin JWT.
func (s *AuthService) ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash at the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) auditAdminLoginFailed(ctx context.Context, email, sourceIP string) {
	s.audit.Emit(ctx, model.AuditEvent{
		Action:    model.AuditAdminLoginFailed,
		ActorType: model.ActorAdmin,
		ActorID:   email,
		Details:   "invalid credentials",
		IPAddress: sourceIP,
		Status:    model.AuditStatusFailure,
	})
}
