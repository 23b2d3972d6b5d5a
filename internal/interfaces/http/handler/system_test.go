package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/muhasebe/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler(nil, "1.0.0")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
		health         string
		database       string
	}{
		{"database reachable", stubPinger{}, http.StatusOK, "healthy", "ok"},
		{"database down", stubPinger{err: errors.New("dial tcp: connection refused")}, http.StatusServiceUnavailable, "unhealthy", "error"},
		{"no database", nil, http.StatusOK, "healthy", "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(tt.db, "1.0.0")

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			h.Health(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp struct {
				dto.Response
				Data HealthResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.health, resp.Data.Status)
			assert.Equal(t, tt.database, resp.Data.Database)
			assert.Equal(t, "muhasebe", resp.Data.Name)
			assert.Equal(t, "1.0.0", resp.Data.Version)
			assert.NotEmpty(t, resp.Data.GoVersion)
		})
	}
}
