package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ChainlinkFeedABI covers the AggregatorV3Interface reads used for pricing
var ChainlinkFeedABI abi.ABI

var chainlinkFeedABI = `[
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8","name":""}]},
{"type":"function","name":"description","stateMutability":"view","inputs":[],"outputs":[{"type":"string","name":""}]},
{"type":"function","name":"latestAnswer","stateMutability":"view","inputs":[],"outputs":[{"type":"int256","name":""}]},
{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[{"type":"uint80","name":"roundId"},{"type":"int256","name":"answer"},{"type":"uint256","name":"startedAt"},{"type":"uint256","name":"updatedAt"},{"type":"uint80","name":"answeredInRound"}]}
]`

func init() {
	_abi, err := abi.JSON(strings.NewReader(chainlinkFeedABI))
	if err != nil {
		panic("Failed to parse chainlink feed abi")
	}
	ChainlinkFeedABI = _abi
}
