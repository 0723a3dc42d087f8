// Package devchain is a simulated property registry for local development.
// It enforces the same rules as the deployed registry contract, keeps its
// state in SQLite and models the submit-then-finalize lifecycle of real
// transactions, so the rest of the client cannot tell it from a node.
package devchain

import (
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	_ "modernc.org/sqlite"
)

const maxBusyTimeoutMs = 5000

// DefaultAccounts are the funded-by-nobody accounts a fresh chain exposes.
var DefaultAccounts = []string{
	common.BigToAddress(big.NewInt(0xd001)).Hex(),
	common.BigToAddress(big.NewInt(0xd002)).Hex(),
	common.BigToAddress(big.NewInt(0xd003)).Hex(),
}

// Chain is the simulated ledger.
type Chain struct {
	mu       sync.Mutex
	db       *sql.DB
	file     string
	accounts []string
}

// Open creates or reopens a chain. An empty file keeps all state in memory.
// When accounts is empty DefaultAccounts is used.
func Open(file string, accounts []string) (*Chain, error) {
	if len(accounts) == 0 {
		accounts = DefaultAccounts
	}
	normalized := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("devchain account %q is not an address", a)
		}
		normalized = append(normalized, common.HexToAddress(a).Hex())
	}

	c := &Chain{accounts: normalized}
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		c.file = abs
	}

	if err := c.openDB(); err != nil {
		return nil, err
	}
	if err := c.ensureSchema(); err != nil {
		c.db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Chain) openDB() error {
	connStr := ":memory:"
	if c.file != "" {
		if err := os.MkdirAll(filepath.Dir(c.file), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s", filepath.Clean(c.file))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", maxBusyTimeoutMs)); err != nil {
		db.Close()
		return fmt.Errorf("set busy timeout: %w", err)
	}

	c.db = db
	return nil
}

func (c *Chain) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			owner TEXT NOT NULL,
			price TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS balances (
			account TEXT PRIMARY KEY,
			amount TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			hash TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			sender TEXT NOT NULL,
			property_id TEXT NOT NULL,
			name TEXT,
			new_owner TEXT,
			amount TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			submitted_at TEXT NOT NULL,
			finalized_at TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if c.file != "" {
		var mode string
		if err := c.db.QueryRow("PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Accounts returns the chain's accounts.
func (c *Chain) Accounts() []string {
	return append([]string(nil), c.accounts...)
}

// Balance returns the amount credited to account by transfers.
func (c *Chain) Balance(account string) (*big.Int, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("account %q is not an address", account)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return balanceOf(c.db, common.HexToAddress(account).Hex())
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func balanceOf(q queryer, account string) (*big.Int, error) {
	var raw string
	err := q.QueryRow(`SELECT amount FROM balances WHERE account = ?`, account).Scan(&raw)
	if err == sql.ErrNoRows {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return parseAmount(raw)
}

func parseAmount(raw string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt amount %q", raw)
	}
	return n, nil
}
