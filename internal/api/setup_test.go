package api

import (
	"testing"
	"time"

	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/devchain"
	"realestate.dapp/redapp/internal/directory"
	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/mutation"
	"realestate.dapp/redapp/internal/types"
	"realestate.dapp/redapp/internal/units"
)

// testEnv is a service wired to a development chain with a live session.
type testEnv struct {
	svc   *Service
	chain *devchain.Chain
	store *app.Store
}

// setupTest creates an in-memory chain and a connected service for testing
func setupTest(t *testing.T) (*testEnv, func()) {
	chain, err := devchain.Open("", nil)
	if err != nil {
		t.Fatalf("Failed to open devchain: %v", err)
	}

	account := chain.Accounts()[0]
	client, err := chain.As(account)
	if err != nil {
		chain.Close()
		t.Fatalf("Failed to bind devchain: %v", err)
	}

	store := app.NewStore()
	store.Apply(func(s app.State) app.State { return s.WithSession(account) })

	dir := directory.New(0, func(props []types.Property) {
		store.Apply(func(s app.State) app.State { return s.WithProperties(props, time.Now()) })
	})

	// Quiet keeps notices out of the test output
	l := logger.New(100).Quiet()

	svc := NewService(store, units.Ether(), l)
	svc.SetMutator(mutation.New(ledger.NewGateway(client, units.Ether()), dir, l))

	cleanup := func() {
		chain.Close()
	}

	return &testEnv{svc: svc, chain: chain, store: store}, cleanup
}
