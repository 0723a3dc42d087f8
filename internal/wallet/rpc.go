package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"realestate.dapp/redapp/internal/ledger"
)

// RPC is a wallet reached over JSON-RPC. Accounts and signatures are
// owned by the remote signer; this process never sees a private key.
type RPC struct {
	client *rpc.Client
}

// DialRPC connects to a wallet endpoint.
func DialRPC(ctx context.Context, url string) (*RPC, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, ledger.Unavailable("dial wallet", err)
	}
	return NewRPC(client), nil
}

// NewRPC wraps an existing client.
func NewRPC(client *rpc.Client) *RPC {
	return &RPC{client: client}
}

// Close releases the connection.
func (w *RPC) Close() {
	w.client.Close()
}

// RequestAccounts runs eth_requestAccounts, falling back to eth_accounts
// for signers that don't implement the interactive method.
func (w *RPC) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []common.Address
	err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if code, ok := rpcCode(err); ok && code == codeMethodNotFound {
		err = w.client.CallContext(ctx, &accounts, "eth_accounts")
	}
	if err != nil {
		if code, ok := rpcCode(err); ok && (code == codeUserRejected || code == codeUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ledger.ErrConnectionRejected, err)
		}
		return nil, ledger.Unavailable("request accounts", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet exposed no accounts", ledger.ErrConnectionRejected)
	}

	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.Hex()
	}
	return out, nil
}

// TransactOpts returns options whose signer asks the wallet to sign.
func (w *RPC) TransactOpts(ctx context.Context, account string, chainID *big.Int) (*bind.TransactOpts, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: account %q", ledger.ErrInvalidArgument, account)
	}
	from := common.HexToAddress(account)
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != from {
				return nil, bind.ErrNotAuthorized
			}
			return w.signTransaction(ctx, addr, tx, chainID)
		},
	}, nil
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (w *RPC) signTransaction(ctx context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	args := map[string]interface{}{
		"from":    from,
		"gas":     hexutil.Uint64(tx.Gas()),
		"value":   (*hexutil.Big)(tx.Value()),
		"input":   hexutil.Bytes(tx.Data()),
		"nonce":   hexutil.Uint64(tx.Nonce()),
		"chainId": (*hexutil.Big)(chainID),
	}
	if to := tx.To(); to != nil {
		args["to"] = to
	}
	if tx.Type() == types.DynamicFeeTxType {
		args["maxFeePerGas"] = (*hexutil.Big)(tx.GasFeeCap())
		args["maxPriorityFeePerGas"] = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args["gasPrice"] = (*hexutil.Big)(tx.GasPrice())
	}

	var res signTxResult
	if err := w.client.CallContext(ctx, &res, "eth_signTransaction", args); err != nil {
		if code, ok := rpcCode(err); ok && (code == codeUserRejected || code == codeUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ledger.ErrSubmissionRejected, err)
		}
		if strings.Contains(strings.ToLower(err.Error()), "denied") {
			return nil, fmt.Errorf("%w: %v", ledger.ErrSubmissionRejected, err)
		}
		return nil, ledger.Unavailable("sign transaction", err)
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}
	return signed, nil
}
