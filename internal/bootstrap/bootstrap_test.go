package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("LENGOW_ACCOUNT_ID", "1")
	t.Setenv("LENGOW_GROUP_ID", "2")
	t.Setenv("MWS_ACCESS_KEY", "ak")
	t.Setenv("MWS_SECRET_KEY", "sk")
	t.Setenv("MWS_MERCHANT_ID", "m")
	t.Setenv("LEDGER_PATH", filepath.Join(t.TempDir(), "ledger.json"))
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestService_FileLedger(t *testing.T) {
	cfg := testConfig(t)
	svc, cleanup, err := Service(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	ids, err := svc.LedgerIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestService_SQLiteLedger(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Backend = "sqlite"
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "ledger.db")

	svc, cleanup, err := Service(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	_, err = svc.LedgerIDs(context.Background())
	assert.NoError(t, err)
}

func TestService_BadRegion(t *testing.T) {
	cfg := testConfig(t)
	cfg.MWS.Region = "ZZ"
	_, cleanup, err := Service(context.Background(), cfg)
	defer cleanup()
	assert.Error(t, err)
}
