package api

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/models"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditReader reads the audit trail
type AuditReader interface {
	ListAudit(ctx context.Context, recordID uint, limit int) ([]models.AuditEntry, error)
}

// Handler serves the HTTP API over the attendance engine
type Handler struct {
	Engine *attendance.Engine
	Health Pinger      // optional
	Audit  AuditReader // optional
	Logger *log.Logger
}

// NewRouter wires every route
func NewRouter(h *Handler) *gin.Engine {
	if h.Logger == nil {
		h.Logger = log.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api/v1")
	{
		api.POST("/schedules", h.CreateSchedule)
		api.GET("/schedules", h.ListSchedules)
		api.POST("/schedules/:id/assignments", h.AssignUsers)
		api.POST("/schedules/:id/sessions", h.ActivateSession)

		api.GET("/sessions", h.ListSessions)
		api.POST("/sessions/:id/lock", h.LockSession)
		api.POST("/sessions/:id/absences", h.MarkAbsences)
		api.POST("/sessions/:id/checkin", h.CheckIn)

		api.GET("/records/:id", h.GetRecord)
		api.GET("/records/:id/audit", h.RecordAudit)
		api.POST("/records/:id/breaks/start", h.StartBreak)
		api.POST("/records/:id/breaks/end", h.EndBreak)
		api.POST("/records/:id/checkout", h.CheckOut)
		api.POST("/records/:id/excuse", h.Excuse)

		api.GET("/users/:user/records", h.UserRecords)
		api.GET("/reports", h.Report)

		api.GET("/events", h.Events)
	}

	return r
}
