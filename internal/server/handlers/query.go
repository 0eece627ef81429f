package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// queryInt reads an integer query parameter; missing or malformed values read as 0.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func caller(c *gin.Context) models.Identity {
	identity, _ := IdentityFrom(c)
	return identity
}

func callerID(c *gin.Context) string {
	return caller(c).UserID
}
