package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate.dapp/redapp/internal/units"
)

type stubTx string

func (s stubTx) Hash() string { return string(s) }

func (s stubTx) Wait(ctx context.Context) error { return nil }

// recordingContract captures the smallest-unit values the gateway submits.
type recordingContract struct {
	ids       []string
	detailErr error

	addedPrice *big.Int
	paid       *big.Int
	calls      int
}

func (c *recordingContract) PropertyIDs(ctx context.Context) ([]string, error) {
	return c.ids, nil
}

func (c *recordingContract) PropertyDetails(ctx context.Context, id string) (string, string, *big.Int, error) {
	if c.detailErr != nil {
		return "", "", nil, c.detailErr
	}
	return "Lot " + id, "0x00000000000000000000000000000000000000aa", nil, nil
}

func (c *recordingContract) AddProperty(ctx context.Context, id, name string, price *big.Int) (PendingTx, error) {
	c.calls++
	c.addedPrice = price
	return stubTx("0xadd"), nil
}

func (c *recordingContract) TransferOwnership(ctx context.Context, id, newOwner string, payment *big.Int) (PendingTx, error) {
	c.calls++
	c.paid = payment
	return stubTx("0xtransfer"), nil
}

func TestAddRecordConvertsPrice(t *testing.T) {
	c := &recordingContract{}
	g := NewGateway(c, units.Ether())

	tx, err := g.AddRecord(context.Background(), "1", "Lot A", "0.5")
	require.NoError(t, err)
	assert.Equal(t, "0xadd", tx.Hash())

	want := new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	assert.Equal(t, 0, want.Cmp(c.addedPrice), "got %s", c.addedPrice)
}

func TestTransferRecordConvertsPayment(t *testing.T) {
	c := &recordingContract{}
	g := NewGateway(c, units.Converter{Places: 2})

	_, err := g.TransferRecord(context.Background(), "1", "0xbb", "12.34")
	require.NoError(t, err)
	assert.Equal(t, "1234", c.paid.String())
}

func TestSubmissionRejectsExcessPrecision(t *testing.T) {
	c := &recordingContract{}
	g := NewGateway(c, units.Converter{Places: 2})

	_, err := g.AddRecord(context.Background(), "1", "Lot A", "0.001")
	assert.ErrorIs(t, err, units.ErrExcessPrecision)

	_, err = g.TransferRecord(context.Background(), "1", "0xbb", "abc")
	assert.ErrorIs(t, err, units.ErrInvalidAmount)

	assert.Zero(t, c.calls, "nothing should be submitted on conversion failure")
}

func TestGetDetails(t *testing.T) {
	c := &recordingContract{}
	g := NewGateway(c, units.Ether())

	p, err := g.GetDetails(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "Lot 7", p.Name)
	require.NotNil(t, p.Price)
	assert.Zero(t, p.Price.Sign())

	c.detailErr = fmt.Errorf("lookup: %w", ErrRecordNotFound)
	_, err = g.GetDetails(context.Background(), "7")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRevertErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("add property: %w", &RevertError{Reason: "Property already exists"})

	assert.ErrorIs(t, err, ErrExecutionReverted)
	assert.Equal(t, "Transaction reverted: Property already exists", Describe(err))

	var revert *RevertError
	require.True(t, errors.As(err, &revert))
	assert.Equal(t, "Property already exists", revert.Reason)
}

func TestDescribe(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNoWalletAvailable, "Please install a wallet!"},
		{&RevertError{}, "Transaction reverted by the ledger"},
		{Unavailable("list ids", errors.New("dial tcp: refused")), "Ledger is unavailable, try again"},
		{fmt.Errorf("price: %w", units.ErrExcessPrecision), "Amount has too many decimal places"},
		{ErrSubmissionRejected, "Transaction was not signed"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Describe(tc.err))
	}
}
