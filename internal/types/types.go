// Package types defines the core domain models for the estate registry
// client. A Property mirrors one record of the registry contract; prices are
// always held in the ledger's smallest unit and only converted to decimal
// form at the UI boundary.
package types

import (
	"math/big"
)

// Version is the current version of redapp
const Version = "0.1.0"

// BuildTime is set at build time via -ldflags
var BuildTime = "dev"

// Property represents a single real-estate record held by the registry.
type Property struct {
	ID    string   `json:"id"`    // Caller-assigned identifier, unique in the registry
	Name  string   `json:"name"`  // Free-text display label
	Owner string   `json:"owner"` // Address of the current controlling account
	Price *big.Int `json:"price"` // Asking price in the smallest unit (wei)
}

// Clone returns a deep copy so callers can't alias the price.
func (p Property) Clone() Property {
	out := p
	if p.Price != nil {
		out.Price = new(big.Int).Set(p.Price)
	}
	return out
}

// CloneAll copies a slice of properties.
func CloneAll(props []Property) []Property {
	if props == nil {
		return nil
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = p.Clone()
	}
	return out
}

// PropertyView is the display form of a Property with the price rendered
// in decimal currency units.
type PropertyView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	Price         string `json:"price"`          // Decimal currency units, e.g. "0.5"
	PriceSmallest string `json:"price_smallest"` // Integer smallest-unit amount
}

// AddPropertyRequest carries the add form fields.
type AddPropertyRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"` // Decimal currency units
}

// TransferRequest carries the transfer form fields.
type TransferRequest struct {
	PropertyID string `json:"property_id"`
	NewOwner   string `json:"new_owner"`
	Payment    string `json:"payment"` // Decimal currency units
}
