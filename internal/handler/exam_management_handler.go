package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/classmark/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// ExamManagementHandler handles admin-facing exam and question CRUD plus
// the results view.
type ExamManagementHandler struct {
	examService *service.ExamService
}

// NewExamManagementHandler creates a new ExamManagementHandler.
func NewExamManagementHandler(examService *service.ExamService) *ExamManagementHandler {
	return &ExamManagementHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *ExamManagementHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
func (h *ExamManagementHandler) GetExam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), id)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamManagementHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateExam) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
func (h *ExamManagementHandler) UpdateExam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id
func (h *ExamManagementHandler) DeleteExam(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:id/questions
// Full question set, answer keys included. Admin eyes only.
func (h *ExamManagementHandler) ListQuestions(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.examService.ListQuestions(c.Request.Context(), id)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/admin/exams/:id/questions
func (h *ExamManagementHandler) AddQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.examService.AddQuestion(c.Request.Context(), id, &req)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/exams/:id/questions
// Replaces the exam's entire question set atomically.
func (h *ExamManagementHandler) ReplaceQuestions(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.examService.ReplaceQuestions(c.Request.Context(), id, &req)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListResults godoc
// GET /api/v1/admin/results
// Graded submissions joined with student data, filterable by subject and
// class.
func (h *ExamManagementHandler) ListResults(c *gin.Context) {
	page, perPage := paginationParams(c)

	results, total, err := h.examService.ListResults(
		c.Request.Context(), c.Query("subject"), c.Query("class"), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, buildPagination(page, perPage, total))
}

func (h *ExamManagementHandler) failExam(c *gin.Context, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
