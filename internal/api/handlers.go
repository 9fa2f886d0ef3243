package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/parser"
)

type createScheduleRequest struct {
	Name                 string `json:"name" binding:"required"`
	TimeIn               string `json:"time_in" binding:"required"`
	TimeOut              string `json:"time_out" binding:"required"`
	BreakStart           string `json:"break_start" binding:"required"`
	BreakEnd             string `json:"break_end" binding:"required"`
	BreakMaxMinutes      int    `json:"break_max_minutes"`
	MaxBreaks            int    `json:"max_breaks"`
	GracePeriodMinutes   int    `json:"grace_period_minutes"`
	LateThresholdMinutes int    `json:"late_threshold_minutes"`
	LeaveEarlyMinutes    *int   `json:"leave_early_minutes"`
	Timezone             string `json:"timezone"`
}

type assignRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}

type activateRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, "today" when empty
}

type checkInRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type breakRequest struct {
	Type string `json:"type"`
}

type excuseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Healthz reports liveness and, when configured, store reachability
func (h *Handler) Healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body", err)
		return
	}

	schedule, err := h.Engine.CreateSchedule(c.Request.Context(), attendance.ScheduleInput{
		Name:                 req.Name,
		TimeIn:               req.TimeIn,
		TimeOut:              req.TimeOut,
		BreakStart:           req.BreakStart,
		BreakEnd:             req.BreakEnd,
		BreakMaxMinutes:      req.BreakMaxMinutes,
		MaxBreaks:            req.MaxBreaks,
		GracePeriodMinutes:   req.GracePeriodMinutes,
		LateThresholdMinutes: req.LateThresholdMinutes,
		LeaveEarlyMinutes:    req.LeaveEarlyMinutes,
		Timezone:             req.Timezone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, schedule)
}

func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.Engine.ListSchedules(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, schedules)
}

func (h *Handler) AssignUsers(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body", err)
		return
	}
	if err := h.Engine.AssignUsers(c.Request.Context(), id, req.UserIDs...); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"schedule_id": id, "user_ids": req.UserIDs})
}

func (h *Handler) ActivateSession(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req activateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body", err)
			return
		}
	}
	date, err := parser.ParseDate(req.Date, h.Engine.Now())
	if err != nil {
		badRequest(c, "invalid date", err)
		return
	}

	session, err := h.Engine.ActivateSessionForDate(c.Request.Context(), id, date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, session)
}

func (h *Handler) ListSessions(c *gin.Context) {
	date, err := parser.ParseDate(c.Query("date"), h.Engine.Now())
	if err != nil {
		badRequest(c, "invalid date", err)
		return
	}
	sessions, err := h.Engine.SessionsForDate(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, sessions)
}

func (h *Handler) LockSession(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	session, err := h.Engine.LockSession(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, session)
}

func (h *Handler) MarkAbsences(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	res, err := h.Engine.MarkAbsences(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handler) CheckIn(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body", err)
		return
	}
	record, err := h.Engine.CheckIn(c.Request.Context(), strings.TrimSpace(req.UserID), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	record, err := h.Engine.Record(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) RecordAudit(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if h.Audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit trail not available"})
		return
	}
	entries, err := h.Audit.ListAudit(c.Request.Context(), id, 200)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

func (h *Handler) StartBreak(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req breakRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body", err)
			return
		}
	}
	record, err := h.Engine.StartBreak(c.Request.Context(), id, req.Type)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) EndBreak(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	record, err := h.Engine.EndBreak(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) CheckOut(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	record, err := h.Engine.CheckOut(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) Excuse(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req excuseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body", err)
		return
	}
	record, err := h.Engine.Excuse(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

func (h *Handler) UserRecords(c *gin.Context) {
	user := strings.TrimSpace(c.Param("user"))
	date, err := parser.ParseDate(c.Query("date"), h.Engine.Now())
	if err != nil {
		badRequest(c, "invalid date", err)
		return
	}
	records, err := h.Engine.Status(c.Request.Context(), user, date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, records)
}

// Report returns records in [from, to]; both default to today
func (h *Handler) Report(c *gin.Context) {
	now := h.Engine.Now()
	from, err := parser.ParseDate(c.Query("from"), now)
	if err != nil {
		badRequest(c, "invalid from", err)
		return
	}
	to, err := parser.ParseDate(c.Query("to"), now)
	if err != nil {
		badRequest(c, "invalid to", err)
		return
	}
	records, err := h.Engine.Report(c.Request.Context(), strings.TrimSpace(c.Query("user")), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, records)
}
