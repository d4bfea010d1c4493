package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"keepwise/application/queries"
	"keepwise/infrastructure/config"
	"keepwise/infrastructure/di"
	"keepwise/pkg/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSeedMemories(t *testing.T) {
	cfg := config.Defaults(config.Development)
	cfg.Logging.Level = "error"
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	n, err := seedMemories(context.Background(), container.CommandBus, "seed-user")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	result, err := container.QueryBus.Ask(context.Background(), queries.ListCategoriesQuery{OwnerID: "seed-user"})
	require.NoError(t, err)
	categories := result.([]queries.CategoryView)
	require.Len(t, categories, 2)
	assert.Equal(t, "Habits", categories[0].Name)
	assert.Equal(t, "Reading", categories[1].Name)
	assert.EqualValues(t, 2, categories[1].Count)

	result, err = container.QueryBus.Ask(context.Background(), queries.ListTagsQuery{OwnerID: "seed-user"})
	require.NoError(t, err)
	assert.Len(t, result.([]queries.TagView), 4)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--user", "cli-user", "--config-dir", t.TempDir(), "--env", config.Development})
	require.NoError(t, root.Execute())

	cfg := config.Defaults(config.Development)
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.SigningSecret(),
		Issuer:        cfg.Auth.JWTIssuer,
		Audience:      cfg.Auth.JWTAudience,
	})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, "cli-user", claims.UserID)
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--config-dir", t.TempDir()})
	assert.Error(t, root.Execute())
}

func TestApplyLogLevel(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	applyLogLevel(level, "debug", zap.NewNop())
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	applyLogLevel(level, "loud", zap.NewNop())
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}
