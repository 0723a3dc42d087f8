// Package contract - Property registry binding for EVM chains
//
// This file binds the deployed registry contract through go-ethereum's
// BoundContract. Reads are eth_call against the latest block; writes are
// signed by the wallet, sent to the node and then awaited until mined.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"realestate.dapp/redapp/internal/ledger"
	"realestate.dapp/redapp/internal/wallet"
)

// Backend is the node connection a Registry needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Registry implements ledger.Contract against a deployed registry.
type Registry struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
	signer   wallet.Signer
	account  string
	chainID  *big.Int
}

// New binds the registry at address.
//
// Parameters:
//   - address: registry contract address
//   - parsed: registry ABI, see LoadABI
//   - backend: node connection
//   - signer: wallet that signs mutations for account
//   - account: the connected account, used as the sender
//   - chainID: chain id for replay-protected signatures
func New(address common.Address, parsed abi.ABI, backend Backend, signer wallet.Signer, account string, chainID *big.Int) *Registry {
	return &Registry{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		signer:   signer,
		account:  account,
		chainID:  chainID,
	}
}

// Dial connects to rpcURL and binds the registry at address.
//
// Returns the registry and the underlying client so the caller can close it.
func Dial(ctx context.Context, rpcURL, address string, parsed abi.ABI, signer wallet.Signer, account string) (*Registry, *ethclient.Client, error) {
	if !common.IsHexAddress(address) {
		return nil, nil, fmt.Errorf("%w: contract address %q", ledger.ErrInvalidArgument, address)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, ledger.Unavailable("dial node", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, ledger.Unavailable("chain id", err)
	}
	return New(common.HexToAddress(address), parsed, client, signer, account, chainID), client, nil
}

// Address returns the bound contract address.
func (r *Registry) Address() common.Address {
	return r.address
}

func (r *Registry) callOpts(ctx context.Context) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if common.IsHexAddress(r.account) {
		opts.From = common.HexToAddress(r.account)
	}
	return opts
}

// PropertyIDs returns every registered id as a decimal string.
func (r *Registry) PropertyIDs(ctx context.Context) ([]string, error) {
	var out []interface{}
	if err := r.contract.Call(r.callOpts(ctx), &out, methodListIDs); err != nil {
		return nil, classify("list ids", err)
	}
	if len(out) != 1 {
		return nil, ledger.Unavailable("list ids", fmt.Errorf("unexpected output length %d", len(out)))
	}

	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	ids := make([]string, len(raw))
	for i, id := range raw {
		ids[i] = id.String()
	}
	return ids, nil
}

// PropertyDetails reads one record. A reverted read or an unset owner means
// the id does not resolve.
func (r *Registry) PropertyDetails(ctx context.Context, id string) (string, string, *big.Int, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return "", "", nil, err
	}

	var out []interface{}
	if err := r.contract.Call(r.callOpts(ctx), &out, methodDetails, n); err != nil {
		err = classify("details", err)
		if errors.Is(err, ledger.ErrExecutionReverted) {
			return "", "", nil, fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
		}
		return "", "", nil, err
	}
	if len(out) != 3 {
		return "", "", nil, ledger.Unavailable("details", fmt.Errorf("unexpected output length %d", len(out)))
	}

	name := *abi.ConvertType(out[0], new(string)).(*string)
	owner := *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	price := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	if owner == (common.Address{}) {
		return "", "", nil, fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	return name, owner.Hex(), price, nil
}

// AddProperty submits addProperty(id, name, price).
func (r *Registry) AddProperty(ctx context.Context, id, name string, price *big.Int) (ledger.PendingTx, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return nil, err
	}
	opts, err := r.signer.TransactOpts(ctx, r.account, r.chainID)
	if err != nil {
		return nil, classify("sign", err)
	}
	tx, err := r.contract.Transact(opts, methodAdd, n, name, price)
	if err != nil {
		return nil, classify("add property", err)
	}
	return &pendingTx{registry: r, tx: tx}, nil
}

// TransferOwnership submits transferOwnership(id, newOwner) with payment
// attached as the transaction value.
func (r *Registry) TransferOwnership(ctx context.Context, id, newOwner string, payment *big.Int) (ledger.PendingTx, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(newOwner) {
		return nil, fmt.Errorf("%w: new owner %q is not an address", ledger.ErrInvalidArgument, newOwner)
	}
	opts, err := r.signer.TransactOpts(ctx, r.account, r.chainID)
	if err != nil {
		return nil, classify("sign", err)
	}
	opts.Value = payment
	tx, err := r.contract.Transact(opts, methodTransfer, n, common.HexToAddress(newOwner))
	if err != nil {
		return nil, classify("transfer ownership", err)
	}
	return &pendingTx{registry: r, tx: tx}, nil
}

// replay re-executes a failed transaction at its block to recover the
// revert reason, which receipts do not carry.
func (r *Registry) replay(ctx context.Context, tx *types.Transaction, block *big.Int) error {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return &ledger.RevertError{}
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if _, err := r.backend.CallContract(ctx, msg, block); err != nil {
		if reason, ok := revertReason(err); ok {
			return &ledger.RevertError{Reason: reason}
		}
	}
	return &ledger.RevertError{}
}

type pendingTx struct {
	registry *Registry
	tx       *types.Transaction
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

// Wait blocks until the transaction is mined. A failed receipt is reported
// as a revert.
func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.registry.backend, p.tx)
	if err != nil {
		return classify("wait", err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return p.registry.replay(ctx, p.tx, receipt.BlockNumber)
	}
	return nil
}
