// Package wallet connects the client to the user's signing agent. A wallet
// hands out the active account through an account-access handshake and
// produces transaction options that sign on the user's behalf. Two kinds
// are supported: a JSON-RPC wallet endpoint speaking the EIP-1193 methods,
// and an encrypted keystore file unlocked with a passphrase.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/rpc"

	"realestate.dapp/redapp/internal/ledger"
)

// Modes accepted by Open.
const (
	ModeNone     = "none"
	ModeRPC      = "rpc"
	ModeKeystore = "keystore"
)

// EIP-1193 provider error codes.
const (
	codeUserRejected   = 4001
	codeUnauthorized   = 4100
	codeMethodNotFound = -32601
)

// Provider performs the account-access handshake.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
}

// Signer builds transaction options that sign as account.
type Signer interface {
	TransactOpts(ctx context.Context, account string, chainID *big.Int) (*bind.TransactOpts, error)
}

// Wallet is a provider that can also sign.
type Wallet interface {
	Provider
	Signer
}

// Options selects and configures a wallet.
type Options struct {
	Mode         string
	RPCURL       string
	KeystoreFile string
	Passphrase   string
}

// Open returns the configured wallet. It fails with
// ledger.ErrNoWalletAvailable when none is configured.
func Open(ctx context.Context, opts Options) (Wallet, error) {
	switch opts.Mode {
	case "", ModeNone:
		return nil, ledger.ErrNoWalletAvailable
	case ModeRPC:
		if opts.RPCURL == "" {
			return nil, ledger.ErrNoWalletAvailable
		}
		return DialRPC(ctx, opts.RPCURL)
	case ModeKeystore:
		if opts.KeystoreFile == "" {
			return nil, ledger.ErrNoWalletAvailable
		}
		return OpenKeystore(opts.KeystoreFile, opts.Passphrase), nil
	default:
		return nil, fmt.Errorf("unknown wallet mode %q", opts.Mode)
	}
}

// Unreachable stands in for a configured wallet that could not be reached.
// Its handshake fails with err so the session reports it like any other
// connection failure.
func Unreachable(err error) Provider {
	return unreachable{err: err}
}

type unreachable struct{ err error }

func (u unreachable) RequestAccounts(ctx context.Context) ([]string, error) {
	return nil, u.err
}

// rpcCode extracts a JSON-RPC error code from err.
func rpcCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}
