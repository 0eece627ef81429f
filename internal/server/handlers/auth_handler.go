package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/service/users"
)

// AuthService registers and logs in users.
type AuthService interface {
	Register(ctx context.Context, in users.RegisterInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (users.Session, error)
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	svc          AuthService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler builds the auth handler. secureCookie marks the session
// cookie Secure, as in production.
func NewAuthHandler(svc AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, secureCookie: secureCookie, logger: logger}
}

// Register creates an account.
func (h *AuthHandler) Register(c *gin.Context) {
	var in users.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session.Token, int(time.Until(session.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Protected echoes the authenticated identity.
func (h *AuthHandler) Protected(c *gin.Context) {
	identity, _ := IdentityFrom(c)
	c.JSON(http.StatusOK, gin.H{"message": "You are authenticated", "user": identity})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, value, maxAge, "/", "", h.secureCookie, true)
}
