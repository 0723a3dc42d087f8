package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/units"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("price: %w", units.ErrInvalidAmount), http.StatusBadRequest},
		{ledger.ErrNoWalletAvailable, http.StatusServiceUnavailable},
		{fmt.Errorf("submit: %w", ledger.ErrSubmissionRejected), http.StatusForbidden},
		{fmt.Errorf("finalize: %w", &ledger.RevertError{Reason: "Insufficient payment"}), http.StatusConflict},
		{ledger.Unavailable("list ids", errors.New("dial tcp: refused")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
