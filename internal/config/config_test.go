package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, LedgerDevchain, c.Ledger)
	assert.Equal(t, WalletDevchain, c.WalletMode)
	assert.Equal(t, 18, c.Decimals)
	assert.Equal(t, c.RPCURL, c.WalletRPCURL)
	assert.NoError(t, c.Validate())
}

func TestFileMergedOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redapp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"ledger": "evm",
		"contract_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"fetch_concurrency": 2
	}`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, LedgerEVM, c.Ledger)
	assert.Equal(t, "rpc", c.WalletMode)
	assert.Equal(t, 2, c.FetchConcurrency)
	assert.Equal(t, 8080, c.Port)
	assert.NoError(t, c.Validate())
}

func TestInvalidFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redapp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, LedgerDevchain, c.Ledger)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDAPP_LEDGER", "evm")
	t.Setenv("REDAPP_CONTRACT", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("REDAPP_WALLET_MODE", "keystore")
	t.Setenv("REDAPP_KEYSTORE", "/tmp/key.json")

	c, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, LedgerEVM, c.Ledger)
	assert.Equal(t, "keystore", c.WalletMode)
	assert.Equal(t, "/tmp/key.json", c.KeystoreFile)

	t.Setenv("PORT", "eighty")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REDAPP_PASSPHRASE=from-dotenv\n"), 0o600))
	t.Setenv("REDAPP_PASSPHRASE", "")
	os.Unsetenv("REDAPP_PASSPHRASE")

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.Passphrase)
}

func TestValidate(t *testing.T) {
	c := Defaults()
	c.Ledger = LedgerEVM
	c.ContractAddress = "nope"
	assert.Error(t, c.Validate())

	c = Defaults()
	c.Ledger = "solana"
	assert.Error(t, c.Validate())

	c = Defaults()
	c.Ledger = LedgerEVM
	c.ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	c.WalletMode = WalletDevchain
	assert.Error(t, c.Validate())
}

func TestZeroDecimalsMeansDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redapp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"decimals": 0}`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 18, c.Decimals)

	t.Setenv("REDAPP_DECIMALS", "0")
	c, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 18, c.Decimals, "env and file must agree on 0")

	t.Setenv("REDAPP_DECIMALS", "6")
	c, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Decimals)
}

func TestDevchainRejectsExternalWallet(t *testing.T) {
	for _, mode := range []string{"rpc", "keystore"} {
		c := Defaults()
		c.WalletMode = mode
		assert.Error(t, c.Validate(), mode)
	}

	c := Defaults()
	c.WalletMode = WalletNone
	assert.NoError(t, c.Validate())
}
