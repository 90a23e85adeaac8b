package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/service"
)

func newTestTripHandler(t *testing.T) *TripHandler {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Load()
	profiles := service.NewProfileService(
		repository.NewProfileRepository(db),
		repository.NewPoolRepository(db),
		cfg.Scoring,
	)
	trips := service.NewTripService(db,
		repository.NewTripRepository(db),
		repository.NewTelemetryRepository(db),
		profiles, nil, nil, cfg.Scoring,
	)
	return NewTripHandler(trips)
}

func listTrips(t *testing.T, h *TripHandler, query string) (int, map[string]json.RawMessage) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/trips"+query, nil)
	c.Set("driverID", "driver-1")

	h.List(c)

	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data
}

func TestListPaginationMetadataMatchesRepositoryBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestTripHandler(t)

	// The repository caps page sizes at 500; the reported metadata must use
	// the effective size, not the requested one.
	code, data := listTrips(t, h, "?pageSize=1000")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "500", string(data["pageSize"]))
	assert.JSONEq(t, "1", string(data["page"]))

	code, data = listTrips(t, h, "?page=0&pageSize=0")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "50", string(data["pageSize"]))
	assert.JSONEq(t, "1", string(data["page"]))
}
