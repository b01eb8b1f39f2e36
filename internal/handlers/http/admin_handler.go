package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	apperrors "github.com/Xiaomckedou233/XiaoLive/pkg/errors"
)

// AdminHandler serves the token-gated admin operations. The token is a
// fixed shared secret compared in constant time; these endpoints never
// broadcast.
type AdminHandler struct {
	chat   ports.ChatService
	token  string
	logger *zap.SugaredLogger
}

func NewAdminHandler(chat ports.ChatService, token string, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{
		chat:   chat,
		token:  token,
		logger: logger,
	}
}

func (h *AdminHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/api/addAdmin", h.AddAdmin)
	router.POST("/api/unbanUser", h.UnbanUser)
}

func (h *AdminHandler) tokenValid(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

func (h *AdminHandler) AddAdmin(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !h.tokenValid(req.Token) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		return
	}

	admin, err := h.chat.AddAdmin(c.Request.Context(), req.Username, c.ClientIP())
	if err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
			return
		}
		h.logger.Errorw("failed to add admin", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add admin"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin added successfully",
		"admin":   admin,
	})
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !h.tokenValid(req.Token) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		return
	}

	if err := h.chat.UnbanUser(c.Request.Context(), req.Username); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Errorw("failed to unban user", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unban user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User unbanned successfully",
	})
}
