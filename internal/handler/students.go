package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/roster"
)

// MaxUploadBytes bounds a roster upload.
const MaxUploadBytes = 10 << 20

// UploadStudents imports a roster spreadsheet sent as multipart field "file".
func (h *Handler) UploadStudents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("File too large. The limit is %d MB.", MaxUploadBytes>>20)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": msg, "detail": msg})
			return
		}
		fail(c, apperr.Validation("file field required"))
		return
	}
	if !roster.AcceptsFilename(header.Filename) {
		fail(c, apperr.Validation("Invalid file format. Please upload an Excel file."))
		return
	}
	file, err := header.Open()
	if err != nil {
		fail(c, apperr.Validation("read file failed"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		fail(c, apperr.Validation("read file failed"))
		return
	}

	added, err := h.Roster.Import(c.Request.Context(), header.Filename, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Successfully processed. %d new students added.", added),
		"added":   added,
	})
}

// ListStudents returns students filtered by branch and year.
func (h *Handler) ListStudents(c *gin.Context) {
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
	students, err := h.Roster.List(c.Request.Context(), f, p)
	if err != nil {
		fail(c, err)
		return
	}
	setNextCursor(c, p, roster.MaxListed, len(students))
	c.JSON(http.StatusOK, students)
}
