// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"timesoffice-service/internal/pkg/auth"
	"timesoffice-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler authenticates the single configured operator account.
type AuthHandler struct {
	manager      *auth.Manager
	operator     string
	passwordHash []byte
	logger       *zap.Logger
}

func NewAuthHandler(manager *auth.Manager, operator string, passwordHash []byte, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		manager:      manager,
		operator:     operator,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the operator credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if req.Username != h.operator ||
		bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) != nil {
		h.logger.Warn("login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := h.manager.Generate(req.Username)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", gin.H{
		"token":    token,
		"operator": req.Username,
	})
}
