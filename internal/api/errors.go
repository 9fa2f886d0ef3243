package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/shiftr/internal/attendance"
)

// respondError maps the engine's error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		ve  *attendance.ValidationError
		pv  *attendance.PolicyViolation
		dup *attendance.DuplicateSessionError
		nf  *attendance.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error(), "code": "duplicate_session"})
	case errors.As(err, &pv):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pv.Message, "code": pv.Code})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case attendance.IsConcurrency(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "concurrent_modification"})
	default:
		h.Logger.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// idParam parses the :id path parameter
func idParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "ok", "data": data})
}
