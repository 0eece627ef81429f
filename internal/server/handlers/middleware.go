package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// TokenCookie is the name of the session cookie.
const TokenCookie = "token"

const identityKey = "identity"

// TokenParser verifies a session token.
type TokenParser interface {
	Parse(raw string) (models.Identity, error)
}

// Authenticate resolves the caller from the Authorization bearer token or
// the session cookie and aborts with 401 when neither is valid.
func Authenticate(tokens TokenParser, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(TokenCookie)
		}
		if raw == "" {
			abortWithError(c, logger, apperr.Unauthorized("no token provided"))
			return
		}

		identity, err := tokens.Parse(raw)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			abortWithError(c, logger, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireManager lets through team leaders and admins.
func RequireManager(logger *zap.Logger) gin.HandlerFunc {
	return requireCapability(logger, models.Identity.CanManage, "forbidden: admins only")
}

// RequireSummaryAdmin lets through identities allowed to generate AI summaries.
func RequireSummaryAdmin(logger *zap.Logger) gin.HandlerFunc {
	return requireCapability(logger, models.Identity.CanGenerateSummaries, "forbidden: summary generation requires the Admin role")
}

func requireCapability(logger *zap.Logger, allowed func(models.Identity) bool, message string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, logger, apperr.Unauthorized("not authenticated"))
			return
		}
		if !allowed(identity) {
			abortWithError(c, logger, apperr.Forbidden(message))
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by Authenticate.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CORS allows credentialed requests from origin. An empty origin or "*"
// reflects the request origin.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := origin
		if allowed == "" || allowed == "*" {
			allowed = c.GetHeader("Origin")
		}
		if allowed != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
