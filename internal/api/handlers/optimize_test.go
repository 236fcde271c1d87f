package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"offgrid-planner/internal/api/models"
	"offgrid-planner/internal/network"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/solver/cbc"
	"offgrid-planner/internal/solver/simplex"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortRunError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid system", fmt.Errorf("build network: %w: battery: efficiency must be in (0, 1]", network.ErrInvalidSystem), http.StatusBadRequest, "INVALID_SCENARIO"},
		{"invalid series", fmt.Errorf("build network: %w", network.ErrInvalidSeries), http.StatusBadRequest, "INVALID_SCENARIO"},
		{"invalid grid", optimize.ErrInvalidGrid, http.StatusBadRequest, "INVALID_SCENARIO"},
		{"cbc missing", cbc.ErrNotInstalled, http.StatusServiceUnavailable, "SOLVER_UNAVAILABLE"},
		{"too large", fmt.Errorf("solve: %w", simplex.ErrTooLarge), http.StatusUnprocessableEntity, "MODEL_TOO_LARGE"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "SOLVER_TIMEOUT"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "OPTIMIZATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			abortRunError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.err.Error(), resp.Error.Message)
		})
	}
}
