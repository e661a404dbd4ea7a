package router

import (
	"net/http"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/handler"
	"github.com/classmark/cbt-backend/internal/middleware"
	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	ExamPortal  *handler.ExamPortalHandler
	StudentMgmt *handler.StudentManagementHandler
	ExamMgmt    *handler.ExamManagementHandler
	Setting     *handler.SettingHandler
	Audit       *handler.AuditHandler
	Monitor     *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID middleware runs globally so every response carries metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Every portal request carries credentials, so the whole group is a
	// password-guessing surface. 60 requests per minute per IP leaves
	// headroom for a 30-second autosave cadence plus retries.
	portalLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Student portal (tokenless, rate limited).
	exam := router.Group("/api/v1/exam")
	exam.Use(portalLimiter.Middleware())
	{
		exam.POST("/login", handlers.ExamPortal.Login)
		exam.POST("/questions", handlers.ExamPortal.GetQuestions)
		exam.POST("/save", handlers.ExamPortal.SaveProgress)
		exam.POST("/submit", handlers.ExamPortal.SubmitExam)
	}

	// Admin auth (public).
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// Admin management (JWT).
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Student roster
		adminAPI.GET("/students", handlers.StudentMgmt.ListStudents)
		adminAPI.POST("/students", handlers.StudentMgmt.CreateStudent)
		adminAPI.PUT("/students/:id", handlers.StudentMgmt.UpdateStudent)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.DeleteStudent)

		// Exam management
		adminAPI.GET("/exams", handlers.ExamMgmt.ListExams)
		adminAPI.POST("/exams", handlers.ExamMgmt.CreateExam)
		adminAPI.GET("/exams/:id", handlers.ExamMgmt.GetExam)
		adminAPI.PUT("/exams/:id", handlers.ExamMgmt.UpdateExam)
		adminAPI.DELETE("/exams/:id", handlers.ExamMgmt.DeleteExam)

		// Question management
		adminAPI.GET("/exams/:id/questions", handlers.ExamMgmt.ListQuestions)
		adminAPI.POST("/exams/:id/questions", handlers.ExamMgmt.AddQuestion)
		adminAPI.PUT("/exams/:id/questions", handlers.ExamMgmt.ReplaceQuestions)

		// Results
		adminAPI.GET("/results", handlers.ExamMgmt.ListResults)

		// App settings
		adminAPI.GET("/settings", handlers.Setting.GetAllSettings)
		adminAPI.PUT("/settings", handlers.Setting.UpdateSettings)

		// Audit trail
		adminAPI.GET("/audit-logs", handlers.Audit.ListAuditLogs)
	}

	// Live monitor (admin JWT via ?token= on the upgrade request).
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminJWT(authService))
	{
		ws.GET("/admin/monitor", handlers.Monitor.MonitorStream)
	}

	return router
}
