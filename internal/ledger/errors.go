package ledger

import (
	"errors"
	"fmt"

	"realestate.dapp/redapp/internal/units"
)

var (
	// ErrNoWalletAvailable means no wallet provider is present.
	ErrNoWalletAvailable = errors.New("no wallet available")
	// ErrConnectionRejected means the user declined the account-access handshake.
	ErrConnectionRejected = errors.New("wallet connection rejected")
	// ErrRecordNotFound means an id no longer resolves to a property.
	ErrRecordNotFound = errors.New("property not found")
	// ErrSubmissionRejected means the wallet declined to sign.
	ErrSubmissionRejected = errors.New("transaction signature rejected")
	// ErrExecutionReverted means the ledger rejected the operation.
	ErrExecutionReverted = errors.New("execution reverted")
	// ErrRemoteUnavailable covers network and infrastructure failures.
	ErrRemoteUnavailable = errors.New("ledger unavailable")
	// ErrInvalidArgument means a value cannot be encoded for the ledger.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RevertError carries the ledger's revert reason, when one was returned.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrExecutionReverted.Error()
	}
	return fmt.Sprintf("%s: %s", ErrExecutionReverted, e.Reason)
}

// Is makes errors.Is(err, ErrExecutionReverted) hold for any RevertError.
func (e *RevertError) Is(target error) bool {
	return target == ErrExecutionReverted
}

// Unavailable wraps a transport failure as ErrRemoteUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
}

// Describe renders err as a short notice suitable for the user.
func Describe(err error) string {
	var revert *RevertError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &revert):
		if revert.Reason != "" {
			return "Transaction reverted: " + revert.Reason
		}
		return "Transaction reverted by the ledger"
	case errors.Is(err, ErrNoWalletAvailable):
		return "Please install a wallet!"
	case errors.Is(err, ErrConnectionRejected):
		return "Wallet connection was rejected"
	case errors.Is(err, ErrSubmissionRejected):
		return "Transaction was not signed"
	case errors.Is(err, ErrRecordNotFound):
		return "Property not found"
	case errors.Is(err, ErrRemoteUnavailable):
		return "Ledger is unavailable, try again"
	case errors.Is(err, units.ErrExcessPrecision):
		return "Amount has too many decimal places"
	case errors.Is(err, units.ErrInvalidAmount):
		return "Amount must be a plain decimal number"
	case errors.Is(err, ErrInvalidArgument):
		return "Invalid input: " + err.Error()
	default:
		return err.Error()
	}
}
