package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"attendance-portal/internal/model"
)

func nextCursor(p model.Page, max, got int) string {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setNextCursor(c, p, max, got)
	return w.Header().Get("X-Next-Cursor")
}

func TestSetNextCursor(t *testing.T) {
	assert.Equal(t, encodeCursor(10), nextCursor(model.Page{Limit: 10}, 100, 10))
	assert.Empty(t, nextCursor(model.Page{Limit: 10}, 100, 7), "short page")
	assert.Empty(t, nextCursor(model.Page{}, 100, 100), "full default page reaches the cap")
	assert.Empty(t, nextCursor(model.Page{Limit: 30, Offset: 80}, 100, 20), "last page before the cap")
	assert.Empty(t, nextCursor(model.Page{Offset: 100}, 100, 0), "past the cap")
	assert.Equal(t, encodeCursor(60), nextCursor(model.Page{Limit: 30, Offset: 30}, 100, 30))
}
