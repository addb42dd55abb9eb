package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bin-status-backend/config"
	"bin-status-backend/internal/bins"
	"bin-status-backend/internal/clock"
	"bin-status-backend/internal/db"
	"bin-status-backend/internal/liveness"
	"bin-status-backend/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	clk, err := clock.New("UTC")
	require.NoError(t, err)

	appStore := store.NewGormStore(gormDB)
	tracker := liveness.NewTracker(config.LivenessConfig{
		OfflineThreshold: 20 * time.Second,
		SweepInterval:    10 * time.Second,
		CleanupInterval:  time.Hour,
	}, clk, nil)
	binSvc := bins.NewService(appStore, clk, tracker)

	serverCfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	}
	return NewRouter(serverCfg, binSvc, appStore, &webpush.Options{VAPIDPublicKey: "test-public-key"})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterBin(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{
		"location": "Gym",
		"id":       1,
		"binType":  "general",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Gym", resp["location"])
	assert.Equal(t, float64(1), resp["id"])
	assert.Equal(t, "general", resp["binType"])
	assert.Equal(t, "inactive", resp["binStatus"])
	assert.Equal(t, "OFF", resp["microProcessorStatus"])
	assert.Equal(t, float64(0), resp["distance"])
}

func TestRegisterBinRejectsMissingFields(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{"location": "Gym"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTelemetryForUnknownBinIs404(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins/Gym/9/telemetry", gin.H{"distance": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeatForUnknownBinIs404(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins/Gym/9/heartbeat", gin.H{"microProcessorStatus": "ON"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeatRejectsInvalidStatus(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{"location": "Gym", "id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/bins/Gym/1/heartbeat", gin.H{"microProcessorStatus": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTelemetryMergeAndGet(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bins", gin.H{"location": "Gym", "id": 1, "binType": "general"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/bins/Gym/1/telemetry", gin.H{
		"distance":             42,
		"filledBinPercentage":  60,
		"microProcessorStatus": "ON",
		"sensorStatus":         "ON",
		"binLidStatus":         "CLOSE",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/bins/Gym/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(42), resp["distance"])
	assert.Equal(t, float64(60), resp["filledBinPercentage"])
	assert.Equal(t, "general", resp["binType"])
	assert.Equal(t, true, resp["isOnline"])
	assert.Equal(t, true, resp["tracked"])
}

func TestGetBinInvalidID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/bins/Gym/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}

func TestSubscriptionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push",
		"p256dh":   "key",
		"auth":     "auth",
		"location": "Gym",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gym")

	w = doJSON(t, router, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://example.com/push"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
