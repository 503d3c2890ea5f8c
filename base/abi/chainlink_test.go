package abi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainlinkFeedABI(t *testing.T) {
	for _, name := range []string{"decimals", "description", "latestAnswer", "latestRoundData"} {
		_, ok := ChainlinkFeedABI.Methods[name]
		require.True(t, ok, name)
	}

	packed, err := ChainlinkFeedABI.Methods["latestRoundData"].Outputs.Pack(
		big.NewInt(7), big.NewInt(312345000000), big.NewInt(1700000000), big.NewInt(1700000001), big.NewInt(7),
	)
	require.NoError(t, err)
	out, err := ChainlinkFeedABI.Unpack("latestRoundData", packed)
	require.NoError(t, err)
	require.Len(t, out, 5)
	require.Equal(t, int64(312345000000), out[1].(*big.Int).Int64())
	require.Equal(t, int64(1700000001), out[3].(*big.Int).Int64())
}
