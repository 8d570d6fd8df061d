package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"content_harvester/internal/domain"
	"content_harvester/internal/service"
)

// Runner harvests the given platforms.
type Runner interface {
	Run(ctx context.Context, platforms []string) ([]service.Result, error)
	Platforms() []string
}

type Server struct {
	runner Runner
	logger *slog.Logger
}

func NewServer(runner Runner, logger *slog.Logger) *Server {
	return &Server{
		runner: runner,
		logger: logger.With("component", "api"),
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.Use(cors())

	r.GET("/health", s.health)
	r.POST("/collect", s.collect)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"platforms": s.runner.Platforms(),
	})
}

type collectRequest struct {
	Platforms []string `json:"platforms" binding:"required,min=1"`
}

type platformResult struct {
	Platform string               `json:"platform"`
	Status   string               `json:"status"`
	Stats    *domain.HarvestStats `json:"stats,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func (s *Server) collect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "platforms must be a non-empty list",
		})
		return
	}

	// The harvest outlives a dropped client connection.
	ctx := context.WithoutCancel(c.Request.Context())

	results, err := s.runner.Run(ctx, req.Platforms)
	if errors.Is(err, service.ErrUnknownPlatform) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":      "unknown_platform",
			"message":   err.Error(),
			"platforms": s.runner.Platforms(),
		})
		return
	}
	if err != nil {
		s.logger.Error("collect failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	out := make([]platformResult, len(results))
	for i, r := range results {
		out[i] = toPlatformResult(r)
	}

	if service.Failed(results) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "harvest_failed",
			"message": "one or more platforms failed",
			"results": out,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"results": out,
	})
}

func toPlatformResult(r service.Result) platformResult {
	pr := platformResult{Platform: r.Platform, Stats: r.Stats, Status: "ok"}
	if r.Err != nil {
		pr.Status = "failed"
		pr.Error = r.Err.Error()
	} else if r.Stats != nil && r.Stats.Failed() {
		pr.Status = "failed"
	}
	return pr
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
