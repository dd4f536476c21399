package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/attendance"
	"attendance-portal/internal/model"
	"attendance-portal/internal/roster"
	"attendance-portal/internal/users"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Users      *users.Service
	Roster     *roster.Service
	Attendance *attendance.Service
	Checks     map[string]Pinger

	JWTSigningKey string
	JWTIssuer     string
	AccessTTL     time.Duration
}

// ---------- Helpers ----------

func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal server error"
	case http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "detail": msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, apperr.Wrap(apperr.KindValidation, err))
}

// filterFrom reads the optional date, branch and year query parameters.
func filterFrom(c *gin.Context) (model.Filter, error) {
	var f model.Filter
	if v := strings.TrimSpace(c.Query("date")); v != "" {
		d, err := attendance.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}
	f.Branch = strings.TrimSpace(c.Query("branch"))
	if v := strings.TrimSpace(c.Query("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.Validation("invalid year %q", v)
		}
		f.Year = y
	}
	return f, nil
}

// pageFrom reads limit and cursor. The cursor is an opaque encoding of the
// row offset.
func pageFrom(c *gin.Context) (model.Page, error) {
	var p model.Page
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, apperr.Validation("invalid limit %q", v)
		}
		p.Limit = n
	}
	if v := c.Query("cursor"); v != "" {
		off, err := decodeCursor(v)
		if err != nil {
			return p, apperr.Validation("invalid cursor")
		}
		p.Offset = off
	}
	return p, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(s string) (int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return 0, errors.New("bad cursor")
	}
	return n, nil
}

// setNextCursor advertises the following page when this one came back full
// and the cap has not been reached.
func setNextCursor(c *gin.Context, p model.Page, max, got int) {
	p, ok := p.Within(max)
	if ok && got > 0 && got == p.Limit && p.Offset+got < max {
		c.Header("X-Next-Cursor", encodeCursor(p.Offset+got))
	}
}

// ---------- Health ----------

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Attendance Management Portal API is running"})
}

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, p := range h.Checks {
		healthy := p.Ping(c.Request.Context()) == nil
		body[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
