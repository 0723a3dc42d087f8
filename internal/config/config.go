// Package config centralizes runtime configuration for redapp. It loads a
// JSON configuration file and merges it over sensible defaults. Values
// from a .env file and the process environment override the file, so a
// developer can point the client at a node and a contract without writing
// any JSON. Tests and development builds use the
// defaults, which run against the in-process development ledger.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	LedgerDevchain = "devchain"
	LedgerEVM      = "evm"
)

// Wallet modes that are resolved here rather than by package wallet.
const (
	// WalletDevchain uses the development ledger's own accounts as the wallet.
	WalletDevchain = "devchain"
	WalletNone     = "none"
)

// Config holds configurable options for the redapp client.
type Config struct {
	Port             int      `json:"port"`
	Ledger           string   `json:"ledger"`
	RPCURL           string   `json:"rpc_url"`
	ContractAddress  string   `json:"contract_address"`
	ABIFile          string   `json:"abi_file"`
	Decimals         int      `json:"decimals"`
	FetchConcurrency int      `json:"fetch_concurrency"`
	WalletMode       string   `json:"wallet_mode"`
	WalletRPCURL     string   `json:"wallet_rpc_url"`
	KeystoreFile     string   `json:"keystore_file"`
	Passphrase       string   `json:"passphrase"`
	DevchainDBFile   string   `json:"devchain_db_file"`
	DevchainAccounts []string `json:"devchain_accounts"`
	NoticeLimit      int      `json:"notice_limit"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:             8080,
		Ledger:           LedgerDevchain,
		RPCURL:           "http://127.0.0.1:8545",
		Decimals:         18,
		FetchConcurrency: 8,
		NoticeLimit:      100,
	}
}

// LoadEnv loads .env style files into the process environment. Variables
// that are already set win. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig reads a JSON file at path, applies environment overrides and
// fills the fields still unset from Defaults. A missing or unparsable file falls
// back to defaults so the client can start with no configuration at all.
func LoadConfig(path string) (*Config, error) {
	def := Defaults()

	c := *def
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err != nil:
			// file missing or unreadable -> use defaults
		case json.Unmarshal(b, &c) != nil:
			log.Printf("config: %s is not valid JSON, using defaults", path)
			c = *def
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	// merge defaults for any zero-value fields
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.Ledger == "" {
		c.Ledger = def.Ledger
	}
	if c.RPCURL == "" {
		c.RPCURL = def.RPCURL
	}
	if c.Decimals == 0 {
		c.Decimals = def.Decimals
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = def.FetchConcurrency
	}
	if c.NoticeLimit <= 0 {
		c.NoticeLimit = def.NoticeLimit
	}

	if c.WalletMode == "" {
		c.WalletMode = "rpc"
		if c.Ledger == LedgerDevchain {
			c.WalletMode = WalletDevchain
		}
	}
	if c.WalletRPCURL == "" {
		c.WalletRPCURL = c.RPCURL
	}

	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("REDAPP_DECIMALS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDAPP_DECIMALS: %w", err)
		}
		c.Decimals = d
	}

	for env, field := range map[string]*string{
		"REDAPP_LEDGER":      &c.Ledger,
		"REDAPP_RPC_URL":     &c.RPCURL,
		"REDAPP_CONTRACT":    &c.ContractAddress,
		"REDAPP_ABI_FILE":    &c.ABIFile,
		"REDAPP_WALLET_MODE": &c.WalletMode,
		"REDAPP_WALLET_URL":  &c.WalletRPCURL,
		"REDAPP_KEYSTORE":    &c.KeystoreFile,
		"REDAPP_PASSPHRASE":  &c.Passphrase,
		"REDAPP_DEVCHAIN_DB": &c.DevchainDBFile,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*field = strings.TrimSpace(v)
		}
	}
	return nil
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.Ledger {
	case LedgerDevchain:
		switch c.WalletMode {
		case "", WalletDevchain, WalletNone:
		default:
			return fmt.Errorf("wallet_mode %s requires the evm ledger", c.WalletMode)
		}
	case LedgerEVM:
		if !common.IsHexAddress(c.ContractAddress) {
			return fmt.Errorf("contract_address %q is not an address", c.ContractAddress)
		}
		if c.WalletMode == WalletDevchain {
			return errors.New("wallet_mode devchain requires the devchain ledger")
		}
	default:
		return fmt.Errorf("unknown ledger %q", c.Ledger)
	}
	if c.Decimals < 0 || c.Decimals > 77 {
		return fmt.Errorf("decimals %d out of range", c.Decimals)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
