package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/types"
	"realestate.dapp/redapp/internal/units"
)

// Mutator submits registry mutations and waits for them to finalize.
type Mutator interface {
	AddProperty(ctx context.Context, id, name, priceDecimal string) (string, error)
	TransferOwnership(ctx context.Context, id, newOwner, paymentDecimal string) (string, error)
}

// Service handles API requests
type Service struct {
	state  *app.Store
	units  units.Converter
	logger *logger.Logger

	mu      sync.RWMutex
	mutator Mutator
}

// NewService creates a new API service. Mutations answer 503 until a
// Mutator is attached with SetMutator.
func NewService(state *app.Store, conv units.Converter, logger *logger.Logger) *Service {
	return &Service{
		state:  state,
		units:  conv,
		logger: logger,
	}
}

// SetMutator attaches the write side once a session exists.
func (s *Service) SetMutator(m Mutator) {
	s.mu.Lock()
	s.mutator = m
	s.mu.Unlock()
}

func (s *Service) currentMutator() Mutator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mutator
}

// View renders a property for display.
func (s *Service) View(p types.Property) types.PropertyView {
	smallest := "0"
	if p.Price != nil {
		smallest = p.Price.String()
	}
	return types.PropertyView{
		ID:            p.ID,
		Name:          p.Name,
		Owner:         p.Owner,
		Price:         s.units.FromSmallest(p.Price),
		PriceSmallest: smallest,
	}
}

// Views renders a property list for display.
func (s *Service) Views(props []types.Property) []types.PropertyView {
	out := make([]types.PropertyView, 0, len(props))
	for _, p := range props {
		out = append(out, s.View(p))
	}
	return out
}

// writeJSON writes a JSON response
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
