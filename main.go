// Package main is the entry point for redapp, the property registry client.
// It loads configuration, connects the wallet session against the configured
// ledger and serves the page, the JSON API and the live websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realestate.dapp/redapp/internal/api"
	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/config"
	"realestate.dapp/redapp/internal/contract"
	"realestate.dapp/redapp/internal/devchain"
	"realestate.dapp/redapp/internal/directory"
	"realestate.dapp/redapp/internal/docs"
	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/mutation"
	"realestate.dapp/redapp/internal/session"
	"realestate.dapp/redapp/internal/types"
	"realestate.dapp/redapp/internal/units"
	"realestate.dapp/redapp/internal/wallet"
	"realestate.dapp/redapp/internal/web"
)

func main() {
	log.Printf("redapp %s starting...", types.Version)

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "redapp.json"
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := ensurePortAvailable(cfg.Port); err != nil {
		log.Fatalf("Port %d unavailable: %v", cfg.Port, err)
	}

	notices := logger.New(cfg.NoticeLimit)
	store := app.NewStore()
	dir := directory.New(cfg.FetchConcurrency, func(props []types.Property) {
		store.Apply(func(s app.State) app.State { return s.WithProperties(props, time.Now()) })
	})
	conv := units.Converter{Places: cfg.Decimals}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openLedger(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer backend.Close()

	// Initialize web server
	svc := api.NewService(store, conv, notices)
	server, err := web.NewServer(store, svc, docs.Builtin(), notices, cfg.Port)
	if err != nil {
		log.Fatalf("Failed to initialize web server: %v", err)
	}
	serverErrors := server.Start()
	log.Printf("Registry page available at http://localhost:%d", cfg.Port)

	manager := session.NewManager(session.Options{
		Provider:  backend.provider,
		Dial:      backend.dial,
		Units:     conv,
		Directory: dir,
		Store:     store,
		Notices:   notices,
	})
	if sess, err := manager.Connect(ctx); err == nil {
		coord := mutation.New(sess.Gateway, dir, notices)
		coord.OnPending = func(hash string) {
			store.Apply(func(s app.State) app.State { return s.WithPending(hash) })
		}
		svc.SetMutator(coord)
		log.Printf("Session established for %s", sess.Account)
	} else {
		log.Printf("Running without a session: %v", err)
	}

	select {
	case <-ctx.Done():
	case err := <-serverErrors:
		if err != nil {
			log.Printf("Web server exited: %v", err)
		}
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
}

// ledgerBackend is the configured ledger together with the wallet that
// connects to it.
type ledgerBackend struct {
	provider wallet.Provider
	dial     session.Dialer
	closers  []func()
}

func (b *ledgerBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openLedger(ctx context.Context, cfg *config.Config) (*ledgerBackend, error) {
	switch cfg.Ledger {
	case config.LedgerDevchain:
		return openDevchain(cfg)
	case config.LedgerEVM:
		return openEVM(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ledger %q", cfg.Ledger)
	}
}

func openDevchain(cfg *config.Config) (*ledgerBackend, error) {
	chain, err := devchain.Open(cfg.DevchainDBFile, cfg.DevchainAccounts)
	if err != nil {
		return nil, err
	}
	log.Printf("Development ledger ready with %d accounts", len(chain.Accounts()))

	b := &ledgerBackend{
		dial: func(ctx context.Context, account string) (ledger.Contract, error) {
			return chain.As(account)
		},
		closers: []func(){func() { chain.Close() }},
	}
	if cfg.WalletMode != config.WalletNone {
		b.provider = chain
	}
	return b, nil
}

func openEVM(ctx context.Context, cfg *config.Config) (*ledgerBackend, error) {
	parsed, err := contract.LoadABI(cfg.ABIFile)
	if err != nil {
		return nil, err
	}

	b := &ledgerBackend{}
	w, err := wallet.Open(ctx, wallet.Options{
		Mode:         cfg.WalletMode,
		RPCURL:       cfg.WalletRPCURL,
		KeystoreFile: cfg.KeystoreFile,
		Passphrase:   cfg.Passphrase,
	})
	switch {
	case errors.Is(err, ledger.ErrNoWalletAvailable):
		log.Printf("No wallet configured")
	case errors.Is(err, ledger.ErrRemoteUnavailable):
		log.Printf("Wallet unreachable, continuing without a session: %v", err)
		b.provider = wallet.Unreachable(err)
	case err != nil:
		return nil, err
	default:
		b.provider = w
		if rw, ok := w.(*wallet.RPC); ok {
			b.closers = append(b.closers, rw.Close)
		}
	}

	b.dial = func(ctx context.Context, account string) (ledger.Contract, error) {
		reg, client, err := contract.Dial(ctx, cfg.RPCURL, cfg.ContractAddress, parsed, w, account)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		log.Printf("Bound registry at %s via %s", reg.Address().Hex(), cfg.RPCURL)
		return reg, nil
	}
	return b, nil
}

func ensurePortAvailable(port int) error {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return listener.Close()
}
