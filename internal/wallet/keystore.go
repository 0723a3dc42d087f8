package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"

	"realestate.dapp/redapp/internal/ledger"
)

// Keystore is a wallet backed by an encrypted keystore JSON file. Unlocking
// the file with the passphrase is the account-access handshake.
type Keystore struct {
	path       string
	passphrase string

	mu  sync.Mutex
	key *keystore.Key
}

// OpenKeystore returns a keystore wallet for path. The file is not read
// until RequestAccounts.
func OpenKeystore(path, passphrase string) *Keystore {
	return &Keystore{path: path, passphrase: passphrase}
}

// CreateKeystore generates a new account in dir, encrypted with passphrase,
// and returns its address and file path.
//
// The key file is written with 0600 permissions by the keystore package.
func CreateKeystore(dir, passphrase string, light bool) (address, path string, err error) {
	n, p := keystore.StandardScryptN, keystore.StandardScryptP
	if light {
		n, p = keystore.LightScryptN, keystore.LightScryptP
	}
	acct, err := keystore.StoreKey(dir, passphrase, n, p)
	if err != nil {
		return "", "", fmt.Errorf("store key: %w", err)
	}
	return acct.Address.Hex(), acct.URL.Path, nil
}

// RequestAccounts decrypts the keystore and returns its single account.
func (k *Keystore) RequestAccounts(ctx context.Context) ([]string, error) {
	key, err := k.unlock()
	if err != nil {
		return nil, err
	}
	return []string{key.Address.Hex()}, nil
}

// TransactOpts returns options that sign locally with the unlocked key.
func (k *Keystore) TransactOpts(ctx context.Context, account string, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := k.unlock()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(key.Address.Hex(), account) {
		return nil, fmt.Errorf("%w: keystore holds %s, not %s", ledger.ErrSubmissionRejected, key.Address.Hex(), account)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key.PrivateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (k *Keystore) unlock() (*keystore.Key, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return k.key, nil
	}

	info, err := os.Stat(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: keystore %s not found", ledger.ErrNoWalletAvailable, k.path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat keystore: %w", err)
	}
	// An empty file is treated as missing
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: keystore %s is empty", ledger.ErrNoWalletAvailable, k.path)
	}

	data, err := os.ReadFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(data, k.passphrase)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, fmt.Errorf("%w: could not unlock keystore", ledger.ErrConnectionRejected)
	}
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}

	k.key = key
	return key, nil
}
