package api

import (
	"context"
	"errors"
	"net/http"

	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/units"
)

// statusFor maps a ledger error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, units.ErrInvalidAmount),
		errors.Is(err, units.ErrExcessPrecision),
		errors.Is(err, ledger.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNoWalletAvailable),
		errors.Is(err, ledger.ErrConnectionRejected):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrSubmissionRejected):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrExecutionReverted):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrRemoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeLedgerError answers with the mapped status and the user notice text.
func (s *Service) writeLedgerError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": ledger.Describe(err)}
	var revert *ledger.RevertError
	if errors.As(err, &revert) && revert.Reason != "" {
		body["reason"] = revert.Reason
	}
	s.writeJSON(w, statusFor(err), body)
}
