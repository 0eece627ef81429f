package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// UserService reads and edits accounts.
type UserService interface {
	Me(ctx context.Context, userID string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error)
}

// UserHandler serves the user routes.
type UserHandler struct {
	svc    UserService
	logger *zap.Logger
}

// NewUserHandler builds the user handler.
func NewUserHandler(svc UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *gin.Context) {
	identity, _ := IdentityFrom(c)
	user, err := h.svc.Me(c.Request.Context(), identity.UserID)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// List returns every user.
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// Get returns one user.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Update edits a user.
func (h *UserHandler) Update(c *gin.Context) {
	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
