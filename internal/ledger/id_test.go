package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	n, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, "42", n.String())

	for _, bad := range []string{"", "-1", "lot-1", "1.5", "0x10"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, "id %q", bad)
	}

	_, err = ParseID("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	assert.ErrorIs(t, err, ErrInvalidArgument, "2^256 does not fit")
}
