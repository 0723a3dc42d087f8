package ledger

import (
	"fmt"
	"math/big"
)

// ParseID validates a property id. Registry ids are uint256 values written
// in decimal.
func ParseID(id string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(id, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return nil, fmt.Errorf("%w: property id %q must be a non-negative integer", ErrInvalidArgument, id)
	}
	return n, nil
}
