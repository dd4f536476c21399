package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/attendance"
	"attendance-portal/internal/auth"
)

// MarkAttendance upserts one submission for the caller.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var sub attendance.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, err)
		return
	}
	who, _ := auth.Current(c)
	res, err := h.Attendance.Mark(c.Request.Context(), sub, who)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListAttendance returns stored records for the date/branch/year filter.
func (h *Handler) ListAttendance(c *gin.Context) {
	f, err := filterFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	p, err := pageFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	records, err := h.Attendance.List(c.Request.Context(), f, p)
	if err != nil {
		fail(c, err)
		return
	}
	setNextCursor(c, p, attendance.MaxRecords, len(records))
	c.JSON(http.StatusOK, records)
}

// ExportAttendance sends the filtered records as an xlsx attachment.
func (h *Handler) ExportAttendance(c *gin.Context) {
	f, err := filterFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := h.Attendance.Export(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+attendance.ExportFilename+`"`)
	c.Data(http.StatusOK, attendance.ExportContentType, data)
}

// Analytics returns roster size and present/absent counts.
func (h *Handler) Analytics(c *gin.Context) {
	f, err := filterFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	a, err := h.Attendance.Analyze(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
