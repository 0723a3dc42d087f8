// Package session establishes the client's one wallet session: it performs
// the account-access handshake, binds the ledger gateway for the connected
// account and loads the initial property directory.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/directory"
	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/units"
	"realestate.dapp/redapp/internal/wallet"
)

// Dialer binds the registry for account.
type Dialer func(ctx context.Context, account string) (ledger.Contract, error)

// Refresher rebuilds the property directory.
type Refresher interface {
	Refresh(ctx context.Context, src directory.Source) error
}

// Session is an established connection.
type Session struct {
	Account string
	Gateway *ledger.Gateway
}

// Options wires a Manager. Provider may be nil when no wallet is configured.
type Options struct {
	Provider  wallet.Provider
	Dial      Dialer
	Units     units.Converter
	Directory Refresher
	Store     *app.Store
	Notices   *logger.Logger
}

// Manager runs Connect at most once per process.
type Manager struct {
	opts Options

	once    sync.Once
	mu      sync.RWMutex
	session *Session
	err     error
}

// NewManager creates a manager. Nothing happens until Connect.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Connect performs the handshake and the initial directory load. Only the
// first call does any work; later calls return its outcome.
//
// A failed initial load is reported as a notice and does not fail the
// session.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	m.once.Do(func() {
		s, err := m.connect(ctx)
		if err != nil {
			log.Printf("session: connect failed: %v", err)
			m.opts.Notices.Error(ledger.Describe(err))
		}
		m.mu.Lock()
		m.session, m.err = s, err
		m.mu.Unlock()
	})
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.err
}

// Current returns the established session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, false
	}
	return m.session, true
}

func (m *Manager) connect(ctx context.Context) (*Session, error) {
	if m.opts.Provider == nil {
		return nil, ledger.ErrNoWalletAvailable
	}

	accounts, err := m.opts.Provider.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts", ledger.ErrConnectionRejected)
	}
	account := accounts[0]

	contract, err := m.opts.Dial(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("bind registry: %w", err)
	}

	s := &Session{
		Account: account,
		Gateway: ledger.NewGateway(contract, m.opts.Units),
	}
	m.opts.Store.Apply(func(st app.State) app.State {
		return st.WithSession(account)
	})
	log.Printf("session: connected as %s", account)
	m.opts.Notices.Info("Connected as " + account)

	if err := m.opts.Directory.Refresh(ctx, s.Gateway); err != nil {
		if errors.Is(err, context.Canceled) {
			return s, nil
		}
		log.Printf("session: initial load failed: %v", err)
		m.opts.Notices.Error("Error loading properties: " + ledger.Describe(err))
	}
	return s, nil
}
