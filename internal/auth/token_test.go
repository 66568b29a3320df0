package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-service/internal/models"
)

func TestIssueAndValidate(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	token, err := j.Issue(Identity{UserID: 7, Role: models.RoleManager})
	require.NoError(t, err)

	id, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, id.UserID)
	assert.Equal(t, models.RoleManager, id.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("one", time.Hour).Issue(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewJWT("two", time.Hour).ValidateToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateRejectsExpired(t *testing.T) {
	token, err := NewJWT("secret", -time.Minute).Issue(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewJWT("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateDefaultsRole(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	token, err := j.Issue(Identity{UserID: 3})
	require.NoError(t, err)

	id, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, id.Role)
}
