package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/config"
	"budget/internal/core"
	applog "budget/internal/log"
)

func testConfig(t *testing.T, backendType string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataBackend:  backendType,
		StateDir:     dir,
		SQLiteDBPath: dir + "/budget.db",
		StateKey:     "budgetState",
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("warn", "text")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestOpenStorePersistsAcrossSessions(t *testing.T) {
	for _, backendType := range []string{"file", "sqlite"} {
		t.Run(backendType, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backendType)

			store, closeStore, err := OpenStore(ctx, cfg, applog.Discard())
			require.NoError(t, err)
			require.NoError(t, store.UpdateIncome(ctx, core.NewMoney(4200, 0)))
			closeStore()

			store, closeStore, err = OpenStore(ctx, cfg, applog.Discard())
			require.NoError(t, err)
			defer closeStore()
			assert.Equal(t, core.NewMoney(4200, 0), store.Income())
		})
	}
}

func TestOpenSharedSlotRejectsMemory(t *testing.T) {
	_, err := OpenSharedSlot(context.Background(), testConfig(t, "memory"), applog.Discard())
	assert.Error(t, err)

	res, err := OpenSharedSlot(context.Background(), testConfig(t, "file"), applog.Discard())
	require.NoError(t, err)
	assert.NoError(t, res.Close())
}

func TestOpenSlotUnknownBackend(t *testing.T) {
	_, err := OpenSlot(context.Background(), testConfig(t, "sheets"), applog.Discard())
	assert.Error(t, err)
}
