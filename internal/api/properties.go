package api

import (
	"context"
	"encoding/json"
	"net/http"

	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/types"
)

// @Title: Get Properties
// @Route: GET /api/properties
// @Description: Returns the property directory as of the last refresh, prices in ETH
// @Response: {"properties": [{"id": "1", "name": "...", "owner": "0x...", "price": "0.5", "price_smallest": "500000000000000000"}], "refreshed_at": "..."}
func (s *Service) HandleProperties(w http.ResponseWriter, r *http.Request) {
	st := s.state.Current()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"properties":   s.Views(st.Properties),
		"refreshed_at": st.RefreshedAt,
	})
}

// @Title: Add Property
// @Route: POST /api/properties/add
// @Description: Registers a property owned by the connected account and waits for the transaction to finalize
// @Response: {"hash": "0x..."}
func (s *Service) HandleAddProperty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.AddPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m := s.currentMutator()
	if m == nil {
		s.writeLedgerError(w, ledger.ErrNoWalletAvailable)
		return
	}

	hash, err := m.AddProperty(context.WithoutCancel(r.Context()), req.ID, req.Name, req.Price)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}

// @Title: Transfer Property
// @Route: POST /api/properties/transfer
// @Description: Transfers a property to a new owner with the payment attached and waits for the transaction to finalize
// @Response: {"hash": "0x..."}
func (s *Service) HandleTransferProperty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m := s.currentMutator()
	if m == nil {
		s.writeLedgerError(w, ledger.ErrNoWalletAvailable)
		return
	}

	hash, err := m.TransferOwnership(context.WithoutCancel(r.Context()), req.PropertyID, req.NewOwner, req.Payment)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}
