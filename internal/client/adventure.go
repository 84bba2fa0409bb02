package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// AdventureABI is the subset of the AdventureGame contract this client uses.
// euint32 values are returned as their bytes32 ciphertext handles.
const AdventureABI = `[
	{"type":"function","name":"hasJoined","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getWeaponPower","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getCoinBalance","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"joinGame","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"attackMonster","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const defaultReceiptPoll = 2 * time.Second

// Backend is the node surface the client needs; *ethclient.Client satisfies it
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// AdventureClient reads and writes the AdventureGame contract
type AdventureClient struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
	logger   *zap.Logger

	key     *ecdsa.PrivateKey // nil for read-only clients
	from    common.Address
	chainID *big.Int

	nonces *NonceManager
	txLock sync.Mutex

	txTimeout   time.Duration
	receiptPoll time.Duration
}

// AdventureOption configures an AdventureClient
type AdventureOption func(*AdventureClient)

// WithTransactor enables state-changing calls signed by key on chainID
func WithTransactor(key *ecdsa.PrivateKey, chainID uint64) AdventureOption {
	return func(c *AdventureClient) {
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
		c.chainID = new(big.Int).SetUint64(chainID)
	}
}

// WithTxTimeout bounds how long WaitMined waits for a receipt
func WithTxTimeout(d time.Duration) AdventureOption {
	return func(c *AdventureClient) { c.txTimeout = d }
}

// WithReceiptPoll sets the receipt polling interval
func WithReceiptPoll(d time.Duration) AdventureOption {
	return func(c *AdventureClient) { c.receiptPoll = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) AdventureOption {
	return func(c *AdventureClient) { c.logger = l }
}

// NewAdventureClient binds the contract at address
func NewAdventureClient(address common.Address, backend Backend, opts ...AdventureOption) (*AdventureClient, error) {
	parsed, err := abi.JSON(strings.NewReader(AdventureABI))
	if err != nil {
		return nil, fmt.Errorf("load ABI: %w", err)
	}

	c := &AdventureClient{
		address:     address,
		backend:     backend,
		contract:    bind.NewBoundContract(address, parsed, backend, backend, backend),
		logger:      zap.NewNop(),
		nonces:      NewNonceManager(),
		txTimeout:   5 * time.Minute,
		receiptPoll: defaultReceiptPoll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the contract address
func (c *AdventureClient) Address() common.Address {
	return c.address
}

// From returns the transacting account, zero for read-only clients
func (c *AdventureClient) From() common.Address {
	return c.from
}

// ChainID asks the node which chain it serves
func (c *AdventureClient) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}
	return id.Uint64(), nil
}

// HasJoined calls hasJoined(player)
func (c *AdventureClient) HasJoined(ctx context.Context, player common.Address) (bool, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "hasJoined", player); err != nil {
		return false, fmt.Errorf("hasJoined: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// WeaponPower returns the ciphertext handle of the player's weapon power
func (c *AdventureClient) WeaponPower(ctx context.Context, player common.Address) (common.Hash, error) {
	return c.handle(ctx, "getWeaponPower", player)
}

// CoinBalance returns the ciphertext handle of the player's coin balance
func (c *AdventureClient) CoinBalance(ctx context.Context, player common.Address) (common.Hash, error) {
	return c.handle(ctx, "getCoinBalance", player)
}

func (c *AdventureClient) handle(ctx context.Context, method string, player common.Address) (common.Hash, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, player); err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, err)
	}
	return common.Hash(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte)), nil
}

// JoinGame submits joinGame() and returns the transaction hash without waiting
func (c *AdventureClient) JoinGame(ctx context.Context) (common.Hash, error) {
	return c.transact(ctx, "joinGame")
}

// AttackMonster submits attackMonster() and returns the transaction hash without waiting
func (c *AdventureClient) AttackMonster(ctx context.Context) (common.Hash, error) {
	return c.transact(ctx, "attackMonster")
}

// transact sends one transaction at a time; a nonce conflict triggers one resync and retry
func (c *AdventureClient) transact(ctx context.Context, method string) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}

	c.txLock.Lock()
	defer c.txLock.Unlock()

	tx, err := c.send(ctx, method)
	if err != nil && isNonceError(err) {
		local, _ := c.nonces.Peek(c.from)
		c.logger.Warn("nonce conflict, resyncing",
			zap.String("method", method),
			zap.Uint64("localNext", local),
			zap.Error(err))
		c.nonces.Forget(c.from)
		tx, err = c.send(ctx, method)
	}
	if err != nil {
		// the nonce was not consumed
		c.nonces.Forget(c.from)
		return common.Hash{}, classifyTxError(err)
	}

	c.logger.Info("transaction sent",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("nonce", tx.Nonce()))
	return tx.Hash(), nil
}

func (c *AdventureClient) send(ctx context.Context, method string) (*types.Transaction, error) {
	nonce, ok := c.nonces.Next(c.from)
	if !ok {
		pending, err := c.backend.PendingNonceAt(ctx, c.from)
		if err != nil {
			return nil, fmt.Errorf("pending nonce: %w", err)
		}
		c.nonces.Reset(c.from, pending)
		nonce, _ = c.nonces.Next(c.from)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(nonce)

	return c.contract.Transact(opts, method)
}

// WaitMined polls for the receipt of hash until it is mined, ctx ends or the
// tx timeout elapses. A failed receipt yields ErrTransactionReverted.
func (c *AdventureClient) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: tx %s failed in block %v", ErrTransactionReverted, hash.Hex(), receipt.BlockNumber)
			}
			c.logger.Info("transaction confirmed",
				zap.String("tx", hash.Hex()),
				zap.Uint64("gasUsed", receipt.GasUsed))
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			c.logger.Debug("receipt lookup failed", zap.String("tx", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
