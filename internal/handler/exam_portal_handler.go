package handler

import (
	"errors"
	"net/http"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/classmark/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExamPortalHandler is the student-facing surface. Every endpoint takes
// the student's credentials in the body and re-verifies them; there is no
// session cookie or token to lose mid-exam.
type ExamPortalHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewExamPortalHandler creates a new ExamPortalHandler.
func NewExamPortalHandler(authService *service.AuthService, sessionService *service.SessionService, log zerolog.Logger) *ExamPortalHandler {
	return &ExamPortalHandler{
		authService:    authService,
		sessionService: sessionService,
		log:            log.With().Str("component", "exam_portal_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/exam/login
// Verifies credentials and lists the active exams for the student's class.
func (h *ExamPortalHandler) Login(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.authService.LoginStudent(c.Request.Context(), req.ExamCode, req.Password, c.ClientIP())
	if err != nil {
		h.failPortal(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetQuestions godoc
// POST /api/v1/exam/questions
// Starts or resumes the subject session and returns the paper.
func (h *ExamPortalHandler) GetQuestions(c *gin.Context) {
	var req model.ExamQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.authService.VerifyStudent(c.Request.Context(), req.ExamCode, req.Password)
	if err != nil {
		h.failPortal(c, err)
		return
	}

	delivery, err := h.sessionService.RequestQuestions(c.Request.Context(), student, req.Subject, c.ClientIP())
	if err != nil {
		h.failPortal(c, err)
		return
	}

	response.Success(c, http.StatusOK, delivery)
}

// SaveProgress godoc
// POST /api/v1/exam/save
// Overwrites the session's saved answers (autosave checkpoint).
func (h *ExamPortalHandler) SaveProgress(c *gin.Context) {
	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.authService.VerifyStudent(c.Request.Context(), req.ExamCode, req.Password)
	if err != nil {
		h.failPortal(c, err)
		return
	}

	if err := h.sessionService.SaveProgress(c.Request.Context(), student, req.Subject, req.Answers, c.ClientIP()); err != nil {
		h.failPortal(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true, "answer_count": len(req.Answers)})
}

// SubmitExam godoc
// POST /api/v1/exam/submit
// Grades the submitted answers and finalizes the session.
func (h *ExamPortalHandler) SubmitExam(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.authService.VerifyStudent(c.Request.Context(), req.ExamCode, req.Password)
	if err != nil {
		h.failPortal(c, err)
		return
	}

	result, err := h.sessionService.SubmitExam(c.Request.Context(), student, req.Subject, req.Answers, c.ClientIP())
	if err != nil {
		h.failPortal(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// failPortal maps domain errors to HTTP statuses and response codes.
func (h *ExamPortalHandler) failPortal(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrNoActiveExams):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveExams)
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoSession)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrTimeExpired):
		response.Fail(c, http.StatusForbidden, response.ErrTimeExpired)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, service.ErrNoAnswerKey):
		response.Fail(c, http.StatusInternalServerError, response.ErrNoAnswerKey)
	case errors.Is(err, service.ErrInvalidAnswers):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("portal request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
