package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"realestate.dapp/redapp/internal/ledger"
)

const revertMarker = "execution reverted"

// classify maps a node or signer error onto the ledger error set.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, known := range []error{
		ledger.ErrSubmissionRejected,
		ledger.ErrExecutionReverted,
		ledger.ErrRemoteUnavailable,
		ledger.ErrInvalidArgument,
		ledger.ErrRecordNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if reason, ok := revertReason(err); ok {
		return fmt.Errorf("%s: %w", op, &ledger.RevertError{Reason: reason})
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 4001 {
		return fmt.Errorf("%w: %v", ledger.ErrSubmissionRejected, err)
	}
	return ledger.Unavailable(op, err)
}

// revertReason reports whether err is an execution revert and extracts its
// reason, preferring the ABI-encoded Error(string) payload when the node
// attached one.
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(s)); uerr == nil {
				return reason, true
			}
		}
	}

	msg := err.Error()
	i := strings.Index(msg, revertMarker)
	if i < 0 {
		return "", false
	}
	reason := strings.TrimSpace(msg[i+len(revertMarker):])
	reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
	return reason, true
}
