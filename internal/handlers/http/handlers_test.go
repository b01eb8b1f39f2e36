package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/services"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/monitoring"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/repositories/memory"
)

const testAdminToken = "test-admin-token"

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastNewMessage(*domain.Message) {}
func (noopBroadcaster) BroadcastBan(string, string)         {}

type healthyStorage struct{ err error }

func (s healthyStorage) HealthCheck(context.Context) error { return s.err }

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop().Sugar()
	chat := services.NewChatService(
		memory.NewMemoryUserRepository(),
		memory.NewMemoryMessageRepository(),
		noopBroadcaster{},
		services.Options{PageSize: 20, DanmakuLimit: 1000, MuteUnit: time.Minute},
		logger,
	)

	router := gin.New()
	NewDanmakuHandler(chat, "http://example.com/live/stream.flv", logger).SetupRoutes(router)
	NewAdminHandler(chat, testAdminToken, logger).SetupRoutes(router)
	NewHealthHandler(monitoring.NewHealthChecker(healthyStorage{})).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "7.7.7.7:12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListDanmakuEmpty(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/v3/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code int               `json:"code"`
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Empty(t, resp.Data)
}

func TestSubmitThenListDanmaku(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v3", map[string]any{
		"author": "guest42",
		"time":   "12.5",
		"text":   "nice shot",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sendResp struct {
		Code int `json:"code"`
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sendResp))
	assert.Equal(t, 0, sendResp.Code)
	assert.Equal(t, "Danmaku sent successfully", sendResp.Data.Message)

	rec = doJSON(router, http.MethodGet, "/api/v3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Code int `json:"code"`
		Data []struct {
			Text  string `json:"text"`
			Color string `json:"color"`
			Type  string `json:"type"`
			Time  string `json:"time"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	assert.Equal(t, "nice shot", listResp.Data[0].Text)
	assert.Equal(t, "12.5", listResp.Data[0].Time)
	assert.Equal(t, domain.DefaultDanmakuColor, listResp.Data[0].Color)
	assert.Equal(t, domain.DefaultDanmakuType, listResp.Data[0].Type)
}

func TestSubmitDanmakuRejectsEmptyText(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v3", map[string]any{
		"author": "guest42",
		"text":   "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitDanmakuMalformedBody(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v3", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamConfig(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/stream-config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://example.com/live/stream.flv", resp.URL)
}

func TestAddAdminRejectsBadToken(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/addAdmin", map[string]any{
		"token":    "wrong",
		"username": "bob",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid token", resp.Error)
}

func TestAddAdminGrantsFlag(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/addAdmin", map[string]any{
		"token":    testAdminToken,
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Admin   struct {
			Username string `json:"username"`
			IsAdmin  bool   `json:"isAdmin"`
		} `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Admin added successfully", resp.Message)
	assert.Equal(t, "bob", resp.Admin.Username)
	assert.True(t, resp.Admin.IsAdmin)
}

func TestUnbanUnknownUser(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/unbanUser", map[string]any{
		"token":    testAdminToken,
		"username": "ghost",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "User not found", resp.Error)
}

func TestUnbanExistingUser(t *testing.T) {
	router := setupRouter(t)

	// Create the user first via the admin grant endpoint.
	rec := doJSON(router, http.MethodPost, "/api/addAdmin", map[string]any{
		"token":    testAdminToken,
		"username": "alice",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/unbanUser", map[string]any{
		"token":    testAdminToken,
		"username": "alice",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "User unbanned successfully", resp.Message)
}

func TestHealthReportsDegradedStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler(monitoring.NewHealthChecker(healthyStorage{err: errors.New("redis down")})).SetupRoutes(router)

	rec := doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status monitoring.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "redis down", status.Storage)
}
