package chain_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeiToETH(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{ether(10), "10"},
		{big.NewInt(1), "0.000000000000000001"},
		{new(big.Int).Add(ether(1), big.NewInt(5e17)), "1.5"},
		{new(big.Int).Neg(big.NewInt(25e16)), "-0.25"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, chain.WeiToETH(tc.wei))
	}
}

func TestParseETH(t *testing.T) {
	got, err := chain.ParseETH("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", got.String())

	got, err = chain.ParseETH(" 10 ")
	require.NoError(t, err)
	assert.Equal(t, ether(10).String(), got.String())

	got, err = chain.ParseETH("1e-18")
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())

	_, err = chain.ParseETH("0.0000000000000000001")
	assert.ErrorIs(t, err, chain.ErrInvalidAmount)
	_, err = chain.ParseETH("lots")
	assert.ErrorIs(t, err, chain.ErrInvalidAmount)
}

func TestParseGwei(t *testing.T) {
	got, err := chain.ParseGwei("1")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", got.String())

	got, err = chain.ParseGwei("0.5")
	require.NoError(t, err)
	assert.Equal(t, "500000000", got.String())

	_, err = chain.ParseGwei("0.0000000001")
	assert.ErrorIs(t, err, chain.ErrInvalidAmount)
}

func TestIntrinsicGas(t *testing.T) {
	assert.Equal(t, uint64(21_000), chain.IntrinsicGas(nil, false))
	assert.Equal(t, uint64(53_000), chain.IntrinsicGas(nil, true))
	assert.Equal(t, uint64(21_000+16+4), chain.IntrinsicGas([]byte{1, 0}, false))
}
