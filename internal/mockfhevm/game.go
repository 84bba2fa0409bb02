package mockfhevm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	minWeapon     = 20
	maxWeapon     = 100
	startCoins    = 100
	minLoot       = 10
	maxLoot       = 50
	joinGasUsed   = 180_000
	attackGasUsed = 120_000
)

// Game is an in-memory AdventureGame contract
type Game struct {
	net     *Network
	address common.Address

	mu          sync.Mutex
	rng         *rand.Rand
	players     map[common.Address]*player
	receipts    map[common.Hash]*types.Receipt
	block       uint64
	txs         uint64
	revertNext  bool
	afterSubmit func()
}

type player struct {
	weapon fhe.Handle
	coins  fhe.Handle
}

// GameOption configures a Game
type GameOption func(*Game)

// WithSeed makes weapon and loot rolls deterministic
func WithSeed(seed uint64) GameOption {
	return func(g *Game) { g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// DeployGame creates a game contract on n
func (n *Network) DeployGame(opts ...GameOption) *Game {
	n.mu.Lock()
	n.counter++
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], n.counter)
	n.mu.Unlock()

	g := &Game{
		net:      n,
		address:  common.BytesToAddress(crypto.Keccak256([]byte("AdventureGame"), ctr[:])),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		players:  make(map[common.Address]*player),
		receipts: make(map[common.Hash]*types.Receipt),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Address returns the contract address
func (g *Game) Address() common.Address {
	return g.address
}

// RevertNext makes the next mined transaction fail on chain without changing state
func (g *Game) RevertNext() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revertNext = true
}

// OnSubmit registers fn to run after every accepted transaction, outside the lock
func (g *Game) OnSubmit(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.afterSubmit = fn
}

// As returns a contract binding whose transactions are sent by sender
func (g *Game) As(sender common.Address) *Player {
	return &Player{game: g, sender: sender}
}

// Player is a Game bound to one sender. It has the same surface as client.AdventureClient.
type Player struct {
	game   *Game
	sender common.Address
}

func (p *Player) Address() common.Address {
	return p.game.address
}

// ChainID returns the chain the game is deployed on
func (p *Player) ChainID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.game.net.chainID, nil
}

func (p *Player) HasJoined(ctx context.Context, who common.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.game.mu.Lock()
	defer p.game.mu.Unlock()
	_, ok := p.game.players[who]
	return ok, nil
}

// WeaponPower returns the zero handle for players that have not joined
func (p *Player) WeaponPower(ctx context.Context, who common.Address) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	p.game.mu.Lock()
	defer p.game.mu.Unlock()
	if pl, ok := p.game.players[who]; ok {
		return pl.weapon.Hash(), nil
	}
	return common.Hash{}, nil
}

// CoinBalance returns the zero handle for players that have not joined
func (p *Player) CoinBalance(ctx context.Context, who common.Address) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	p.game.mu.Lock()
	defer p.game.mu.Unlock()
	if pl, ok := p.game.players[who]; ok {
		return pl.coins.Hash(), nil
	}
	return common.Hash{}, nil
}

func (p *Player) JoinGame(ctx context.Context) (common.Hash, error) {
	return p.game.submit(ctx, p.sender, joinGasUsed, func(g *Game) error {
		if _, ok := g.players[p.sender]; ok {
			return fmt.Errorf("%w: execution reverted: Player already joined", client.ErrAlreadyJoined)
		}
		weapon := minWeapon + g.rng.Uint64N(maxWeapon-minWeapon+1)
		g.players[p.sender] = &player{
			weapon: g.net.Encrypt(g.address, weapon, p.sender),
			coins:  g.net.Encrypt(g.address, startCoins, p.sender),
		}
		return nil
	})
}

func (p *Player) AttackMonster(ctx context.Context) (common.Hash, error) {
	return p.game.submit(ctx, p.sender, attackGasUsed, func(g *Game) error {
		pl, ok := g.players[p.sender]
		if !ok {
			return fmt.Errorf("%w: execution reverted: Player not joined", client.ErrNotJoined)
		}
		coins, _ := g.net.Plaintext(pl.coins)
		loot := minLoot + g.rng.Uint64N(maxLoot-minLoot+1)
		pl.coins = g.net.Encrypt(g.address, coins+loot, p.sender)
		return nil
	})
}

// WaitMined returns the receipt of a submitted transaction
func (p *Player) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.game.mu.Lock()
	receipt, ok := p.game.receipts[hash]
	p.game.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", hash.Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: tx %s failed in block %v", client.ErrTransactionReverted, hash.Hex(), receipt.BlockNumber)
	}
	return receipt, nil
}

// submit checks the call like gas estimation would, then mines it immediately
func (g *Game) submit(ctx context.Context, sender common.Address, gas uint64, apply func(*Game) error) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	g.mu.Lock()
	if (sender == common.Address{}) {
		g.mu.Unlock()
		return common.Hash{}, client.ErrNoSigner
	}

	revert := g.revertNext
	g.revertNext = false
	if !revert {
		if err := apply(g); err != nil {
			g.mu.Unlock()
			return common.Hash{}, err
		}
	}

	g.txs++
	g.block++
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], g.txs)
	hash := crypto.Keccak256Hash(g.address.Bytes(), sender.Bytes(), ctr[:])

	status := types.ReceiptStatusSuccessful
	if revert {
		status = types.ReceiptStatusFailed
	}
	g.receipts[hash] = &types.Receipt{
		TxHash:      hash,
		Status:      status,
		GasUsed:     gas,
		BlockNumber: new(big.Int).SetUint64(g.block),
	}
	hook := g.afterSubmit
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return hash, nil
}

// Coins returns the plaintext coin balance of who, for assertions
func (g *Game) Coins(who common.Address) (uint64, error) {
	g.mu.Lock()
	pl, ok := g.players[who]
	g.mu.Unlock()
	if !ok {
		return 0, errors.New("player not joined")
	}
	v, _ := g.net.Plaintext(pl.coins)
	return v, nil
}
