package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"go.uber.org/zap"
)

// RouterConfig は REST API のルーティングに必要な依存です。
type RouterConfig struct {
	Employees      *EmployeeHandler
	Audit          *AuditHandler
	Probation      *ProbationHandler
	Verifier       identity.Verifier
	CronSecret     string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter は REST API の gin.Engine を構築します。
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		}),
		RequestID(),
		AccessLog(logger),
		cors.New(corsConfig(cfg.AllowedOrigins)),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Message: "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "HRM API is running")
	})

	api := r.Group("/api")

	api.GET("/cron/probation-check", CronSecret(cfg.CronSecret), cfg.Probation.Check)

	authed := api.Group("", Authenticate(cfg.Verifier))
	editors := Authorize(identity.RoleAdmin, identity.RoleHR)

	employees := authed.Group("/employees")
	employees.GET("", cfg.Employees.List)
	employees.GET("/:id", cfg.Employees.Get)
	employees.POST("", editors, cfg.Employees.Create)
	employees.PUT("/:id", editors, cfg.Employees.Update)
	employees.DELETE("/:id", Authorize(identity.RoleAdmin), cfg.Employees.Delete)
	employees.POST("/:id/attachments", cfg.Employees.UploadAttachment)

	authed.GET("/audit-logs", cfg.Audit.List)

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AddAllowHeaders("Authorization", requestIDHeader)
	c.AddExposeHeaders(requestIDHeader, nextPageTokenHeader)
	return c
}
