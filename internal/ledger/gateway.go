// Package ledger is the narrow adapter between the client and the property
// registry. A Gateway owns no state: it converts decimal amounts to the
// ledger's smallest unit and forwards calls to a Contract, which is either
// the deployed EVM registry or the development chain.
package ledger

import (
	"context"
	"fmt"
	"math/big"

	"realestate.dapp/redapp/internal/types"
	"realestate.dapp/redapp/internal/units"
)

// PendingTx is a submitted mutation. Callers must Wait for finalization
// before treating the mutation as applied.
type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) error
}

// Contract is the registry as seen by the client, in smallest units.
type Contract interface {
	PropertyIDs(ctx context.Context) ([]string, error)
	PropertyDetails(ctx context.Context, id string) (name, owner string, price *big.Int, err error)
	AddProperty(ctx context.Context, id, name string, price *big.Int) (PendingTx, error)
	TransferOwnership(ctx context.Context, id, newOwner string, payment *big.Int) (PendingTx, error)
}

// Gateway exposes the four registry operations in display units.
type Gateway struct {
	contract Contract
	units    units.Converter
}

// NewGateway binds a gateway to a contract.
func NewGateway(contract Contract, conv units.Converter) *Gateway {
	return &Gateway{contract: contract, units: conv}
}

// Units returns the converter used for amounts.
func (g *Gateway) Units() units.Converter {
	return g.units
}

// ListIDs returns every property id currently known to the ledger.
// No ordering is promised beyond what the ledger returns.
func (g *Gateway) ListIDs(ctx context.Context) ([]string, error) {
	return g.contract.PropertyIDs(ctx)
}

// GetDetails fetches one property. It returns ErrRecordNotFound when the
// id no longer resolves.
func (g *Gateway) GetDetails(ctx context.Context, id string) (types.Property, error) {
	name, owner, price, err := g.contract.PropertyDetails(ctx, id)
	if err != nil {
		return types.Property{}, err
	}
	if price == nil {
		price = new(big.Int)
	}
	return types.Property{ID: id, Name: name, Owner: owner, Price: price}, nil
}

// AddRecord submits a new property priced in decimal currency units.
func (g *Gateway) AddRecord(ctx context.Context, id, name, priceDecimal string) (PendingTx, error) {
	price, err := g.units.ToSmallest(priceDecimal)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	return g.contract.AddProperty(ctx, id, name, price)
}

// TransferRecord submits an ownership transfer with paymentDecimal attached.
func (g *Gateway) TransferRecord(ctx context.Context, id, newOwner, paymentDecimal string) (PendingTx, error) {
	payment, err := g.units.ToSmallest(paymentDecimal)
	if err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	return g.contract.TransferOwnership(ctx, id, newOwner, payment)
}
