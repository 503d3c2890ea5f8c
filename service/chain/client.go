package chain

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	bCtx "github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
)

var ErrUnsupportedChain = errors.New("unsupported chain")

// callTimeout bounds one eth_call
const callTimeout = 10 * time.Second

type ClientCfg struct {
	RpcUrls        map[int32]string
	ArchiveRpcUrls map[int32]string
}

// Client runs read-only contract calls. A nil block reads the latest state.
type Client interface {
	Call(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
}

type clientImpl struct {
	clients        map[int32]*ethclient.Client
	archiveClients map[int32]*ethclient.Client
}

func dialAll(ctx bCtx.Ctx, urls map[int32]string) (map[int32]*ethclient.Client, error) {
	var anyerr error
	clients := make(map[int32]*ethclient.Client)
	for chainId, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
			}).Error("failed to dial rpc")
			continue
		}
		clients[chainId] = client
	}
	return clients, anyerr
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	clients, err := dialAll(ctx, cfg.RpcUrls)
	archiveClients, aerr := dialAll(ctx, cfg.ArchiveRpcUrls)
	if err == nil {
		err = aerr
	}
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		clients:        clients,
		archiveClients: archiveClients,
	}, nil
}

// pick returns the archive client for historical reads when one is configured,
// the latest state client otherwise
func (c *clientImpl) pick(chainId int32, blk *big.Int) (*ethclient.Client, error) {
	if blk != nil {
		if client, ok := c.archiveClients[chainId]; ok {
			return client, nil
		}
	}
	if client, ok := c.clients[chainId]; ok {
		return client, nil
	}
	return nil, ErrUnsupportedChain
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	client, err := c.pick(chainId, blk)
	if err != nil {
		return nil, err
	}
	logger := ctx.WithFields(log.Fields{"chainId": chainId, "method": method, "to": addr.Hex()})

	data, err := _abi.Pack(method, params...)
	if err != nil {
		logger.WithFields(log.Fields{"params": params, "err": err}).Error("abi.Pack failed")
		return nil, err
	}

	callCtx, cancel := bCtx.WithTimeout(ctx, callTimeout)
	defer cancel()
	res, err := client.CallContract(callCtx, ethereum.CallMsg{To: &addr, Data: data}, blk)
	if err != nil {
		logger.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		logger.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}
