package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/toir/internal/db"
	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

func TestBootstrapAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	password, err := bootstrapAdmin(ctx, database, "chief")
	require.NoError(t, err)
	assert.Len(t, password, 16)

	u, err := store.GetUserByUsername(ctx, database, "chief")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)))

	password, err = bootstrapAdmin(ctx, database, "other")
	require.NoError(t, err)
	assert.Empty(t, password, "users exist")
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	require.NoError(t, err)
	b, err := generatePassword(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
