package bootstrap

import (
	"context"
	"testing"

	"twitt/internal/config"
	"twitt/internal/models"
	"twitt/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func rootConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootEmail:     "Root@Example.com",
		DevRootPassword:  "R00t-Passw0rd!",
	}
}

func TestEnsureDevRootAdmin_CreatesThenPromotes(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureDevRootAdmin(ctx, rootConfig(), db))

	var root models.User
	require.NoError(t, db.First(&root, "email = ?", "root@example.com").Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, defaultRootUsername, root.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("R00t-Passw0rd!")))

	require.NoError(t, db.Model(&root).Update("is_admin", false).Error)
	require.NoError(t, EnsureDevRootAdmin(ctx, rootConfig(), db))

	var again models.User
	require.NoError(t, db.First(&again, "email = ?", "root@example.com").Error)
	assert.Equal(t, root.ID, again.ID)
	assert.True(t, again.IsAdmin)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureDevRootAdmin_Guards(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	prod := rootConfig()
	prod.Env = "production"
	require.NoError(t, EnsureDevRootAdmin(ctx, prod, db))

	disabled := rootConfig()
	disabled.DevBootstrapRoot = false
	require.NoError(t, EnsureDevRootAdmin(ctx, disabled, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	noPassword := rootConfig()
	noPassword.DevRootPassword = ""
	assert.Error(t, EnsureDevRootAdmin(ctx, noPassword, db))

	weak := rootConfig()
	weak.DevRootPassword = "short"
	assert.Error(t, EnsureDevRootAdmin(ctx, weak, db))
}
