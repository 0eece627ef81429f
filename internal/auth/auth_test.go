package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	encoded, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))
	assert.True(t, VerifyPassword("s3cret!", encoded))
	assert.False(t, VerifyPassword("wrong", encoded))
	assert.False(t, VerifyPassword("s3cret!", "$2b$10$bcrypt-style"))

	other, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, other)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	user := models.User{ID: "u1", Email: "a@b.c", Role: models.RoleTeamLeader, SuperRole: models.SuperRoleAdmin}

	raw, err := tokens.Issue(user)
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "u1", Email: "a@b.c", Role: models.RoleTeamLeader, SuperRole: models.SuperRoleAdmin}, id)
}

func TestTokensRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue(models.User{ID: "u1", Role: models.RoleTeamMember})
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewTokens("other", time.Hour).Parse(raw)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokens("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(raw)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
		assert.Equal(t, "token expired", apperr.MessageOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}
