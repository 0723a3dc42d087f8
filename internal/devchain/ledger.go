package devchain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"realestate.dapp/redapp/internal/ledger"
)

// Revert reasons, matching the registry contract.
const (
	ReasonExists       = "Property already exists"
	ReasonMissing      = "Property does not exist"
	ReasonNotParty     = "Caller is not a party to the transfer"
	ReasonSameOwner    = "New owner must be different"
	ReasonInsufficient = "Insufficient payment"
)

const (
	statusPending  = "pending"
	statusApplied  = "applied"
	statusReverted = "reverted"

	kindAddProperty       = "addProperty"
	kindTransferOwnership = "transferOwnership"
)

// RequestAccounts hands out the chain's accounts without a handshake.
func (c *Chain) RequestAccounts(ctx context.Context) ([]string, error) {
	return c.Accounts(), nil
}

// As returns a registry view that submits transactions from account.
func (c *Chain) As(account string) (*Client, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: account %q", ledger.ErrInvalidArgument, account)
	}
	return &Client{chain: c, sender: common.HexToAddress(account).Hex()}, nil
}

// Client is the chain as seen by one sender. It implements ledger.Contract.
type Client struct {
	chain  *Chain
	sender string
}

// PropertyIDs returns ids in registration order.
func (cl *Client) PropertyIDs(ctx context.Context) ([]string, error) {
	c := cl.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, `SELECT id FROM properties ORDER BY seq`)
	if err != nil {
		return nil, ledger.Unavailable("list ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ledger.Unavailable("list ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Unavailable("list ids", err)
	}
	return ids, nil
}

// PropertyDetails reads one record.
func (cl *Client) PropertyDetails(ctx context.Context, id string) (string, string, *big.Int, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return "", "", nil, err
	}

	c := cl.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := loadProperty(c.db, n.String())
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil, fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	if err != nil {
		return "", "", nil, ledger.Unavailable("details", err)
	}
	return rec.name, rec.owner, rec.price, nil
}

// AddProperty records a pending addProperty transaction.
func (cl *Client) AddProperty(ctx context.Context, id, name string, price *big.Int) (ledger.PendingTx, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", ledger.ErrInvalidArgument)
	}
	return cl.submit(ctx, submission{kind: kindAddProperty, propertyID: n.String(), name: name, amount: price})
}

// TransferOwnership records a pending transferOwnership transaction with
// payment attached.
func (cl *Client) TransferOwnership(ctx context.Context, id, newOwner string, payment *big.Int) (ledger.PendingTx, error) {
	n, err := ledger.ParseID(id)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(newOwner) {
		return nil, fmt.Errorf("%w: new owner %q is not an address", ledger.ErrInvalidArgument, newOwner)
	}
	if payment == nil || payment.Sign() < 0 {
		return nil, fmt.Errorf("%w: payment must be non-negative", ledger.ErrInvalidArgument)
	}
	return cl.submit(ctx, submission{
		kind:       kindTransferOwnership,
		propertyID: n.String(),
		newOwner:   common.HexToAddress(newOwner).Hex(),
		amount:     payment,
	})
}

type submission struct {
	kind       string
	propertyID string
	name       string
	newOwner   string
	amount     *big.Int
}

func (cl *Client) submit(ctx context.Context, s submission) (ledger.PendingTx, error) {
	hash := crypto.Keccak256Hash([]byte(uuid.NewString())).Hex()

	c := cl.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `INSERT INTO transactions (
		hash, kind, sender, property_id, name, new_owner, amount, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hash, s.kind, cl.sender, s.propertyID, s.name, s.newOwner, s.amount.String(),
		statusPending, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, ledger.Unavailable("submit", err)
	}
	log.Printf("devchain: %s %s submitted by %s (%s)", s.kind, s.propertyID, cl.sender, hash)
	return &pendingTx{chain: c, hash: hash}, nil
}

type pendingTx struct {
	chain *Chain
	hash  string
}

func (p *pendingTx) Hash() string {
	return p.hash
}

// Wait finalizes the transaction. Finalization happens once; later calls
// return the recorded outcome.
func (p *pendingTx) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.chain.finalize(ctx, p.hash)
}

type property struct {
	name  string
	owner string
	price *big.Int
}

func loadProperty(q queryer, id string) (property, error) {
	var (
		rec   property
		price string
	)
	err := q.QueryRow(`SELECT name, owner, price FROM properties WHERE id = ?`, id).Scan(&rec.name, &rec.owner, &price)
	if err != nil {
		return property{}, err
	}
	rec.price, err = parseAmount(price)
	return rec, err
}

func (c *Chain) finalize(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Unavailable("wait", err)
	}
	defer tx.Rollback()

	var (
		s              submission
		sender, status string
		name, newOwner sql.NullString
		reason         sql.NullString
		amount         string
	)
	err = tx.QueryRow(`SELECT kind, sender, property_id, name, new_owner, amount, status, reason
		FROM transactions WHERE hash = ?`, hash).
		Scan(&s.kind, &sender, &s.propertyID, &name, &newOwner, &amount, &status, &reason)
	if err != nil {
		return ledger.Unavailable("wait", fmt.Errorf("transaction %s: %w", hash, err))
	}
	switch status {
	case statusApplied:
		return nil
	case statusReverted:
		return &ledger.RevertError{Reason: reason.String}
	}

	s.name, s.newOwner = name.String, newOwner.String
	if s.amount, err = parseAmount(amount); err != nil {
		return ledger.Unavailable("wait", err)
	}

	var revert string
	switch s.kind {
	case kindAddProperty:
		revert, err = applyAdd(tx, sender, s)
	case kindTransferOwnership:
		revert, err = applyTransfer(tx, sender, s)
	default:
		err = fmt.Errorf("unknown transaction kind %q", s.kind)
	}
	if err != nil {
		return ledger.Unavailable("wait", err)
	}

	status = statusApplied
	if revert != "" {
		status = statusReverted
	}
	if _, err := tx.Exec(`UPDATE transactions SET status = ?, reason = ?, finalized_at = ? WHERE hash = ?`,
		status, revert, time.Now().UTC().Format(time.RFC3339Nano), hash); err != nil {
		return ledger.Unavailable("wait", err)
	}
	if err := tx.Commit(); err != nil {
		return ledger.Unavailable("wait", err)
	}

	if revert != "" {
		log.Printf("devchain: %s %s reverted: %s", s.kind, s.propertyID, revert)
		return &ledger.RevertError{Reason: revert}
	}
	log.Printf("devchain: %s %s applied (%s)", s.kind, s.propertyID, hash)
	return nil
}

// applyAdd returns a revert reason, or "" once the record is stored.
func applyAdd(tx *sql.Tx, sender string, s submission) (string, error) {
	_, err := loadProperty(tx, s.propertyID)
	if err == nil {
		return ReasonExists, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var seq int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM properties`).Scan(&seq); err != nil {
		return "", err
	}
	_, err = tx.Exec(`INSERT INTO properties (id, seq, name, owner, price) VALUES (?, ?, ?, ?, ?)`,
		s.propertyID, seq, s.name, sender, s.amount.String())
	return "", err
}

// applyTransfer returns a revert reason, or "" once ownership has moved and
// the payment is credited to the previous owner.
func applyTransfer(tx *sql.Tx, sender string, s submission) (string, error) {
	rec, err := loadProperty(tx, s.propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return ReasonMissing, nil
	}
	if err != nil {
		return "", err
	}

	switch {
	case !strings.EqualFold(sender, rec.owner) && !strings.EqualFold(sender, s.newOwner):
		return ReasonNotParty, nil
	case strings.EqualFold(rec.owner, s.newOwner):
		return ReasonSameOwner, nil
	case s.amount.Cmp(rec.price) < 0:
		return ReasonInsufficient, nil
	}

	if _, err := tx.Exec(`UPDATE properties SET owner = ? WHERE id = ?`, s.newOwner, s.propertyID); err != nil {
		return "", err
	}

	balance, err := balanceOf(tx, rec.owner)
	if err != nil {
		return "", err
	}
	balance.Add(balance, s.amount)
	_, err = tx.Exec(`INSERT INTO balances (account, amount) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET amount = excluded.amount`, rec.owner, balance.String())
	return "", err
}
