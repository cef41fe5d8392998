package bookings

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := currentUserID(c)
	assert.False(t, ok, "missing claim")

	// A token can carry a numeric user_id claim, it must not panic
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", float64(12345))
	_, ok = currentUserID(c)
	assert.False(t, ok, "non-string claim")

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", "not-a-uuid")
	_, ok = currentUserID(c)
	assert.False(t, ok, "malformed uuid")

	want := uuid.New()
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", want.String())
	got, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
