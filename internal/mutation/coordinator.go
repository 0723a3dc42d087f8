// Package mutation drives the two write flows of the client: adding a
// property and transferring ownership. Each flow submits through the ledger
// gateway, waits for finalization and then rebuilds the property directory.
// The coordinator never writes to the directory itself.
package mutation

import (
	"context"
	"fmt"
	"log"
	"sync"

	"realestate.dapp/redapp/internal/directory"
	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/logger"
)

// Gateway is the part of the ledger gateway the coordinator needs.
type Gateway interface {
	directory.Source
	AddRecord(ctx context.Context, id, name, priceDecimal string) (ledger.PendingTx, error)
	TransferRecord(ctx context.Context, id, newOwner, paymentDecimal string) (ledger.PendingTx, error)
}

// Refresher rebuilds the local property view.
type Refresher interface {
	Refresh(ctx context.Context, src directory.Source) error
}

// Coordinator serializes mutations so that refreshes never overlap.
type Coordinator struct {
	mu        sync.Mutex
	gateway   Gateway
	directory Refresher
	notices   *logger.Logger

	// OnPending, if set, is called with the tx hash once submitted and with
	// "" when the mutation has finished either way.
	OnPending func(hash string)
}

// New creates a coordinator bound to a session's gateway.
func New(gw Gateway, dir Refresher, notices *logger.Logger) *Coordinator {
	return &Coordinator{gateway: gw, directory: dir, notices: notices}
}

// AddProperty registers a new property priced in decimal currency units and
// returns the finalized transaction hash.
func (c *Coordinator) AddProperty(ctx context.Context, id, name, priceDecimal string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.run(ctx, "Error adding property", func() (ledger.PendingTx, error) {
		return c.gateway.AddRecord(ctx, id, name, priceDecimal)
	})
	if err != nil {
		return hash, err
	}
	c.notices.Info(fmt.Sprintf("Property %s added (%s)", id, hash))
	return hash, nil
}

// TransferOwnership moves property id to newOwner with paymentDecimal
// attached and returns the finalized transaction hash.
func (c *Coordinator) TransferOwnership(ctx context.Context, id, newOwner, paymentDecimal string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.run(ctx, "Error transferring property", func() (ledger.PendingTx, error) {
		return c.gateway.TransferRecord(ctx, id, newOwner, paymentDecimal)
	})
	if err != nil {
		return hash, err
	}
	c.notices.Info(fmt.Sprintf("Property %s transferred to %s (%s)", id, newOwner, hash))
	return hash, nil
}

// run submits, waits for finalization and refreshes. Every failure is
// turned into a notice before it is returned.
func (c *Coordinator) run(ctx context.Context, failure string, submit func() (ledger.PendingTx, error)) (string, error) {
	tx, err := submit()
	if err != nil {
		return "", c.fail(failure, fmt.Errorf("submit: %w", err))
	}
	hash := tx.Hash()

	// Once submitted the transaction finalizes on the ledger whether or not
	// the caller is still waiting, so the wait and refresh outlive ctx.
	ctx = context.WithoutCancel(ctx)

	c.setPending(hash)
	defer c.setPending("")

	log.Printf("mutation: waiting for %s to finalize", hash)
	if err := tx.Wait(ctx); err != nil {
		return hash, c.fail(failure, fmt.Errorf("finalize %s: %w", hash, err))
	}

	if err := c.directory.Refresh(ctx, c.gateway); err != nil {
		// The mutation is final on the ledger; only the local view is stale.
		c.notices.Warning("Transaction confirmed but property list could not be refreshed: " + ledger.Describe(err))
		return hash, nil
	}
	return hash, nil
}

func (c *Coordinator) fail(failure string, err error) error {
	log.Printf("mutation: %s: %v", failure, err)
	c.notices.Error(fmt.Sprintf("%s: %s", failure, ledger.Describe(err)))
	return err
}

func (c *Coordinator) setPending(hash string) {
	if c.OnPending != nil {
		c.OnPending(hash)
	}
}
