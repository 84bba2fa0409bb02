package adventure

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"
	"github.com/AlexZinkM/encrypted-adventure/internal/mockfhevm"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGame struct {
	*Game
	net    *mockfhevm.Network
	chain  *mockfhevm.Game
	signer *fhe.KeySigner
}

func newSigner(t *testing.T) *fhe.KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := fhe.NewKeySigner(key)
	t.Cleanup(s.Close)
	return s
}

// newTestGame wires a game to the mock chain and the mock relayer over HTTP
func newTestGame(t *testing.T) *testGame {
	t.Helper()
	net := mockfhevm.NewNetwork()
	srv := net.StartRelayer()
	t.Cleanup(srv.Close)

	flow := fhe.NewWorkflow(client.NewRelayerClient(srv.URL, 5*time.Second, nil), net.Domain(), net.ChainID())
	return newTestGameWith(t, net, flow)
}

func newTestGameWith(t *testing.T, net *mockfhevm.Network, dec Decryptor) *testGame {
	t.Helper()
	chain := net.DeployGame(mockfhevm.WithSeed(42))
	signer := newSigner(t)
	contract := chain.As(signer.Address())

	sess, err := Connect(context.Background(), contract, signer, net.ChainID())
	require.NoError(t, err)
	return &testGame{
		Game:   NewGame(sess, contract, dec, nil),
		net:    net,
		chain:  chain,
		signer: signer,
	}
}

func TestRefreshBeforeJoin(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.Refresh(context.Background()))

	snap := g.Snapshot()
	assert.False(t, snap.Joined)
	assert.Equal(t, ProgressNewcomer, snap.Progress)
	assert.Nil(t, snap.WeaponPower)
	assert.Nil(t, snap.CoinBalance)
	assert.Equal(t, g.signer.Address().Hex(), snap.Address)
}

func TestAttackBeforeJoin(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.Refresh(context.Background()))

	_, err := g.Attack(context.Background())
	require.ErrorIs(t, err, client.ErrNotJoined)
	assert.Equal(t, MsgJoinFirst, g.Snapshot().Message)
	assert.Equal(t, PhaseIdle, g.recon.Phase())
}

func TestJoinAndAttack(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)

	res, err := g.Join(ctx)
	require.NoError(t, err)
	require.NoError(t, res.RefreshErr)
	assert.Equal(t, MsgReady, res.Message)

	snap := g.Snapshot()
	assert.True(t, snap.Joined)
	assert.Equal(t, ProgressExplorer, snap.Progress)
	require.NotNil(t, snap.WeaponPower)
	assert.GreaterOrEqual(t, *snap.WeaponPower, uint64(20))
	assert.LessOrEqual(t, *snap.WeaponPower, uint64(100))
	require.NotNil(t, snap.CoinBalance)
	assert.Equal(t, uint64(100), *snap.CoinBalance)
	assert.Equal(t, res.TxHash.Hex(), snap.TxHash)
	assert.Empty(t, snap.PendingAction)
	assert.False(t, snap.Stale)

	// second join reverts and leaves the first join's state alone
	_, err = g.Join(ctx)
	require.ErrorIs(t, err, client.ErrAlreadyJoined)
	assert.Equal(t, "Join failed: player already joined", g.Snapshot().Message)
	require.NoError(t, g.Refresh(ctx))
	assert.Equal(t, uint64(100), *g.Snapshot().CoinBalance)

	before := uint64(100)
	for range 3 {
		res, err = g.Attack(ctx)
		require.NoError(t, err)
		require.NoError(t, res.RefreshErr)
		require.NotNil(t, res.Loot)
		assert.GreaterOrEqual(t, *res.Loot, uint64(10))
		assert.LessOrEqual(t, *res.Loot, uint64(50))

		snap = g.Snapshot()
		assert.Equal(t, MsgMonsterDefeated, snap.Message)
		assert.Equal(t, before+*res.Loot, *snap.CoinBalance)
		require.NotNil(t, snap.LatestLoot)
		assert.Equal(t, *res.Loot, *snap.LatestLoot)

		onChain, err := g.chain.Coins(g.signer.Address())
		require.NoError(t, err)
		assert.Equal(t, onChain, *snap.CoinBalance)
		before = onChain
	}
}

func TestAttackRevertResetsReconciliation(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)
	_, err := g.Join(ctx)
	require.NoError(t, err)

	g.chain.RevertNext()
	_, err = g.Attack(ctx)
	require.ErrorIs(t, err, client.ErrTransactionReverted)

	snap := g.Snapshot()
	assert.True(t, strings.HasPrefix(snap.Message, "Attack failed: "))
	assert.Empty(t, snap.PendingAction)
	assert.Equal(t, PhaseIdle, g.recon.Phase())
	assert.Equal(t, uint64(100), *snap.CoinBalance)
	assert.False(t, snap.Stale)
}

func TestReadOnlySession(t *testing.T) {
	net := mockfhevm.NewNetwork()
	chain := net.DeployGame()
	holder := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	contract := chain.As(common.Address{})

	sess, err := Watch(context.Background(), contract, holder, net.ChainID())
	require.NoError(t, err)
	assert.False(t, sess.CanSign())

	g := NewGame(sess, contract, nil, nil)
	_, err = g.Join(context.Background())
	require.ErrorIs(t, err, fhe.ErrWalletUnavailable)
	assert.Equal(t, MsgSignerUnavailable, g.Snapshot().Message)

	_, err = Connect(context.Background(), contract, nil, net.ChainID())
	require.ErrorIs(t, err, fhe.ErrWalletUnavailable)
}

func TestWrongChain(t *testing.T) {
	net := mockfhevm.NewNetwork(mockfhevm.WithChainID(1))
	contract := net.DeployGame().As(common.HexToAddress("0x01"))

	_, err := Connect(context.Background(), contract, newSigner(t), 11155111)
	require.ErrorIs(t, err, ErrWrongChain)

	// a session whose chain changed underneath is closed on the next refresh
	g := NewGame(&Session{Holder: common.HexToAddress("0x01"), ChainID: 11155111, Signer: newSigner(t)}, contract, nil, nil)
	require.ErrorIs(t, g.Refresh(context.Background()), ErrWrongChain)
	assert.Nil(t, g.Session())
	require.ErrorIs(t, g.Refresh(context.Background()), ErrNoSession)
}

func TestActionInFlight(t *testing.T) {
	g := newTestGame(t)
	g.actions.Lock()
	defer g.actions.Unlock()

	_, err := g.Join(context.Background())
	require.ErrorIs(t, err, ErrActionInFlight)
}

// gatedDecryptor reads plaintext straight from the network. Calls touching
// block wait for release; err, when set, fails every call.
type gatedDecryptor struct {
	net *mockfhevm.Network

	mu      sync.Mutex
	block   fhe.Handle
	arrived chan struct{}
	release chan struct{}
	err     error
}

func (d *gatedDecryptor) Decrypt(ctx context.Context, _ common.Address, pairs []fhe.HandleContractPair, _ fhe.Signer) (fhe.Results, error) {
	d.mu.Lock()
	block, arrived, release, failure := d.block, d.arrived, d.release, d.err
	d.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	for _, p := range pairs {
		if !block.IsZero() && p.Handle == block {
			arrived <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	out := make(fhe.Results)
	for _, p := range pairs {
		if v, ok := d.net.Plaintext(p.Handle); ok {
			out[p.Handle] = v
		}
	}
	return out, nil
}

func (d *gatedDecryptor) hold(h fhe.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.block = h
	d.arrived = make(chan struct{}, 1)
	d.release = make(chan struct{})
}

func (d *gatedDecryptor) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func TestStaleDecryptionDiscarded(t *testing.T) {
	ctx := context.Background()
	net := mockfhevm.NewNetwork()
	dec := &gatedDecryptor{net: net}
	g := newTestGameWith(t, net, dec)

	_, err := g.Join(ctx)
	require.NoError(t, err)
	oldCoins := g.coinsH

	dec.hold(oldCoins)
	staleErr := make(chan error, 1)
	go func() { staleErr <- g.Refresh(ctx) }()
	<-dec.arrived

	// the attack supersedes the coin handle while the old decryption is in flight
	res, err := g.Attack(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Loot)
	fresh := *g.Snapshot().CoinBalance

	close(dec.release)
	require.ErrorIs(t, <-staleErr, ErrStaleResult)

	snap := g.Snapshot()
	assert.Equal(t, fresh, *snap.CoinBalance)
	assert.Equal(t, 100+*res.Loot, *snap.CoinBalance)
	assert.False(t, snap.Stale)
}

func TestDecryptionFailureKeepsValues(t *testing.T) {
	ctx := context.Background()
	net := mockfhevm.NewNetwork()
	dec := &gatedDecryptor{net: net}
	g := newTestGameWith(t, net, dec)

	_, err := g.Join(ctx)
	require.NoError(t, err)
	weapon := *g.Snapshot().WeaponPower

	relayerDown := errors.New("relayer down")
	dec.fail(relayerDown)

	res, err := g.Attack(ctx)
	require.NoError(t, err, "the attack itself committed")
	require.ErrorIs(t, res.RefreshErr, relayerDown)
	assert.Nil(t, res.Loot)

	snap := g.Snapshot()
	assert.Equal(t, uint64(100), *snap.CoinBalance)
	assert.Equal(t, weapon, *snap.WeaponPower)
	assert.True(t, snap.Stale, "coins belong to a superseded handle")
	assert.Equal(t, "attack", snap.PendingAction)
	assert.Nil(t, snap.LatestLoot)

	// once decryption works again the pending attack is reconciled
	dec.fail(nil)
	require.NoError(t, g.Refresh(ctx))
	snap = g.Snapshot()
	assert.Empty(t, snap.PendingAction)
	require.NotNil(t, snap.LatestLoot)
	assert.Equal(t, *snap.CoinBalance-100, *snap.LatestLoot)
}

func TestCloseEndsSession(t *testing.T) {
	g := newTestGame(t)
	g.Close()

	require.ErrorIs(t, g.Refresh(context.Background()), ErrNoSession)
	_, err := g.Attack(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, g.Snapshot().Address)
}

// slowCoins holds one CoinBalance read after it reached the chain
type slowCoins struct {
	Contract

	mu      sync.Mutex
	armed   bool
	arrived chan struct{}
	release chan struct{}
}

func (s *slowCoins) CoinBalance(ctx context.Context, player common.Address) (common.Hash, error) {
	h, err := s.Contract.CoinBalance(ctx, player)

	s.mu.Lock()
	armed := s.armed
	s.armed = false
	s.mu.Unlock()

	if armed {
		s.arrived <- struct{}{}
		<-s.release
	}
	return h, err
}

func (s *slowCoins) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

func TestSupersededReadDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	net := mockfhevm.NewNetwork()
	chain := net.DeployGame(mockfhevm.WithSeed(42))
	signer := newSigner(t)
	contract := &slowCoins{
		Contract: chain.As(signer.Address()),
		arrived:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	sess, err := Connect(ctx, contract, signer, net.ChainID())
	require.NoError(t, err)
	g := NewGame(sess, contract, &gatedDecryptor{net: net}, nil)

	_, err = g.Join(ctx)
	require.NoError(t, err)

	// this refresh has read the pre-attack coin handle and resumes after the attack
	contract.arm()
	slow := make(chan error, 1)
	go func() { slow <- g.Refresh(ctx) }()
	<-contract.arrived

	res, err := g.Attack(ctx)
	require.NoError(t, err)
	require.NoError(t, res.RefreshErr)
	require.NotNil(t, res.Loot)

	close(contract.release)
	require.ErrorIs(t, <-slow, ErrStaleResult)

	current, err := chain.As(signer.Address()).CoinBalance(ctx, signer.Address())
	require.NoError(t, err)
	onChain, err := chain.Coins(signer.Address())
	require.NoError(t, err)

	snap := g.Snapshot()
	g.mu.Lock()
	assert.Equal(t, fhe.Handle(current), g.coinsH)
	g.mu.Unlock()
	assert.Equal(t, onChain, *snap.CoinBalance)
	assert.Equal(t, 100+*res.Loot, *snap.CoinBalance)
	assert.False(t, snap.Stale)
}

func TestSharedDecryptionOutlivesCanceledCaller(t *testing.T) {
	ctx := context.Background()
	net := mockfhevm.NewNetwork()
	dec := &gatedDecryptor{net: net}
	g := newTestGameWith(t, net, dec)

	_, err := g.Join(ctx)
	require.NoError(t, err)
	dec.hold(g.coinsH)

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	first := make(chan error, 1)
	go func() { first <- g.Refresh(rctx) }()
	<-dec.arrived

	second := make(chan error, 1)
	go func() { second <- g.Refresh(ctx) }()
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.decrypting == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(dec.release)
	require.NoError(t, <-second)

	snap := g.Snapshot()
	require.NotNil(t, snap.CoinBalance)
	assert.Equal(t, uint64(100), *snap.CoinBalance)
	assert.False(t, snap.Decrypting)
}

// loweredCoins reports a chosen coin balance once set
type loweredCoins struct {
	*gatedDecryptor

	mu    sync.Mutex
	coins *uint64
}

func (d *loweredCoins) Decrypt(ctx context.Context, holder common.Address, pairs []fhe.HandleContractPair, s fhe.Signer) (fhe.Results, error) {
	out, err := d.gatedDecryptor.Decrypt(ctx, holder, pairs, s)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil && d.coins != nil {
		// pairs are weapon then coins
		out[pairs[1].Handle] = *d.coins
	}
	return out, err
}

func (d *loweredCoins) set(v uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.coins = &v
}

func TestAttackWithDecreasedBalance(t *testing.T) {
	ctx := context.Background()
	net := mockfhevm.NewNetwork()
	dec := &loweredCoins{gatedDecryptor: &gatedDecryptor{net: net}}
	g := newTestGameWith(t, net, dec)

	_, err := g.Join(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100), *g.Snapshot().CoinBalance)

	dec.set(40)
	res, err := g.Attack(ctx)
	require.NoError(t, err, "the attack itself committed")
	require.ErrorIs(t, res.RefreshErr, ErrStateInconsistency)
	assert.Nil(t, res.Loot)
	assert.Equal(t, MsgBalanceDecreased, res.Message)

	snap := g.Snapshot()
	assert.Equal(t, MsgBalanceDecreased, snap.Message)
	assert.Empty(t, snap.PendingAction)
	assert.Nil(t, snap.LatestLoot)
	assert.Equal(t, uint64(40), *snap.CoinBalance)
	assert.Equal(t, PhaseIdle, g.recon.Phase())
}
