package client

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers the calls AdventureClient makes; anything else hits the
// nil embedded interface and panics.
type fakeBackend struct {
	Backend

	parsed abi.ABI

	mu          sync.Mutex
	joined      map[common.Address]bool
	weapon      common.Hash
	coins       common.Hash
	estimateErr error
	sendErrs    []error
	sent        []*types.Transaction
	pendingNext uint64
	receipts    map[common.Hash]*types.Receipt
}

func newFakeBackend(t *testing.T) *fakeBackend {
	parsed, err := abi.JSON(strings.NewReader(AdventureABI))
	require.NoError(t, err)
	return &fakeBackend{
		parsed:   parsed,
		joined:   make(map[common.Address]bool),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, err := f.parsed.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	player := args[0].(common.Address)

	f.mu.Lock()
	defer f.mu.Unlock()
	switch method.Name {
	case "hasJoined":
		return method.Outputs.Pack(f.joined[player])
	case "getWeaponPower":
		return method.Outputs.Pack([32]byte(f.weapon))
	case "getCoinBalance":
		return method.Outputs.Pack([32]byte(f.coins))
	}
	return nil, errors.New("unexpected method " + method.Name)
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingNext, nil
}

func (f *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 90_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, tx)
	f.pendingNext = tx.Nonce() + 1
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(11155111), nil
}

func (f *fakeBackend) mine(hash common.Hash, status uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[hash] = &types.Receipt{TxHash: hash, Status: status, BlockNumber: big.NewInt(2)}
}

var contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func newTestClient(t *testing.T, backend *fakeBackend) *AdventureClient {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	c, err := NewAdventureClient(contractAddr, backend,
		WithTransactor(key, 11155111),
		WithReceiptPoll(5*time.Millisecond),
		WithTxTimeout(time.Second))
	require.NoError(t, err)
	return c
}

func TestReads(t *testing.T) {
	backend := newFakeBackend(t)
	c := newTestClient(t, backend)
	ctx := context.Background()
	player := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	joined, err := c.HasJoined(ctx, player)
	require.NoError(t, err)
	assert.False(t, joined)

	backend.joined[player] = true
	backend.weapon = common.HexToHash("0xaa")
	backend.coins = common.HexToHash("0xbb")

	joined, err = c.HasJoined(ctx, player)
	require.NoError(t, err)
	assert.True(t, joined)

	weapon, err := c.WeaponPower(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, backend.weapon, weapon)

	coins, err := c.CoinBalance(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, backend.coins, coins)

	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), chainID)
}

func TestTransactAndWait(t *testing.T) {
	backend := newFakeBackend(t)
	backend.pendingNext = 7
	c := newTestClient(t, backend)
	ctx := context.Background()

	hash, err := c.JoinGame(ctx)
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	assert.Equal(t, uint64(7), backend.sent[0].Nonce())
	assert.Equal(t, contractAddr, *backend.sent[0].To())

	hash2, err := c.AttackMonster(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), backend.sent[1].Nonce(), "nonce comes from the local manager")

	backend.mine(hash, types.ReceiptStatusSuccessful)
	_, err = c.WaitMined(ctx, hash)
	require.NoError(t, err)

	backend.mine(hash2, types.ReceiptStatusFailed)
	_, err = c.WaitMined(ctx, hash2)
	require.ErrorIs(t, err, ErrTransactionReverted)
}

func TestTransactRevertClassification(t *testing.T) {
	backend := newFakeBackend(t)
	c := newTestClient(t, backend)

	backend.estimateErr = errors.New("execution reverted: Player already joined")
	_, err := c.JoinGame(context.Background())
	require.ErrorIs(t, err, ErrAlreadyJoined)
	require.ErrorIs(t, err, ErrTransactionReverted)

	backend.estimateErr = errors.New("execution reverted: Player not joined")
	_, err = c.AttackMonster(context.Background())
	require.ErrorIs(t, err, ErrNotJoined)
	assert.Empty(t, backend.sent)
}

func TestTransactNonceResync(t *testing.T) {
	backend := newFakeBackend(t)
	c := newTestClient(t, backend)

	_, err := c.JoinGame(context.Background())
	require.NoError(t, err)

	// someone else used our next nonce
	backend.pendingNext = 5
	backend.sendErrs = []error{errors.New("nonce too low: next nonce 5, tx nonce 1")}

	_, err = c.AttackMonster(context.Background())
	require.NoError(t, err)
	require.Len(t, backend.sent, 2)
	assert.Equal(t, uint64(5), backend.sent[1].Nonce())
}

func TestTransactRejected(t *testing.T) {
	backend := newFakeBackend(t)
	c := newTestClient(t, backend)

	backend.sendErrs = []error{errors.New("insufficient funds for gas * price + value")}
	_, err := c.JoinGame(context.Background())
	require.ErrorIs(t, err, ErrTransactionRejected)

	_, ok := c.nonces.Peek(c.From())
	assert.False(t, ok, "failed send must not keep a consumed nonce")
}

func TestReadOnlyClientCannotTransact(t *testing.T) {
	c, err := NewAdventureClient(contractAddr, newFakeBackend(t))
	require.NoError(t, err)

	_, err = c.JoinGame(context.Background())
	require.ErrorIs(t, err, ErrNoSigner)
}

func TestWaitMinedTimeout(t *testing.T) {
	backend := newFakeBackend(t)
	c := newTestClient(t, backend)
	c.txTimeout = 30 * time.Millisecond

	_, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNonceManager(t *testing.T) {
	nm := NewNonceManager()
	addr := common.HexToAddress("0x01")

	_, ok := nm.Next(addr)
	assert.False(t, ok)

	nm.Reset(addr, 3)
	n, ok := nm.Next(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(3), n)

	n, _ = nm.Peek(addr)
	assert.Equal(t, uint64(4), n)

	nm.Forget(addr)
	_, ok = nm.Peek(addr)
	assert.False(t, ok)
}
