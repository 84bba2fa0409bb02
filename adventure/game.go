package adventure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Status messages shown to the player
const (
	MsgSignerUnavailable = "Wallet signer is not available."
	MsgJoinFirst         = "Join the adventure before attacking monsters."
	MsgJoining           = "Joining the adventure..."
	MsgJoined            = "Joined successfully. Refreshing stats..."
	MsgReady             = "Ready to explore!"
	MsgEngaging          = "Engaging the monster..."
	MsgMonsterDefeated   = "Monster defeated! Updating treasure..."
	MsgBalanceDecreased  = "Coin balance decreased; no loot reported."

	joinFailedPrefix   = "Join failed"
	attackFailedPrefix = "Attack failed"
)

const defaultDecryptTimeout = 2 * time.Minute

const (
	ProgressExplorer = "Explorer"
	ProgressNewcomer = "Newcomer"
)

// Contract is the game contract surface; *client.AdventureClient satisfies it
type Contract interface {
	ChainReader
	Address() common.Address
	HasJoined(ctx context.Context, player common.Address) (bool, error)
	WeaponPower(ctx context.Context, player common.Address) (common.Hash, error)
	CoinBalance(ctx context.Context, player common.Address) (common.Hash, error)
	JoinGame(ctx context.Context) (common.Hash, error)
	AttackMonster(ctx context.Context) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Decryptor resolves handles to plaintext; *fhe.Workflow satisfies it
type Decryptor interface {
	Decrypt(ctx context.Context, holder common.Address, pairs []fhe.HandleContractPair, signer fhe.Signer) (fhe.Results, error)
}

// ActionResult is the outcome of Join or Attack
type ActionResult struct {
	TxHash  common.Hash
	Message string
	// Loot is set when an attack was reconciled against a known balance
	Loot *uint64
	// RefreshErr is set when the transaction succeeded but the follow-up refresh did not
	RefreshErr error
}

// Game drives one player's session: reads, transactions, decryption and reconciliation.
// Reads are explicit; nothing polls in the background.
type Game struct {
	contract  Contract
	decryptor Decryptor
	recon     *Reconciler
	logger    *zap.Logger
	flights   singleflight.Group
	actions   sync.Mutex

	decryptTimeout time.Duration

	mu      sync.Mutex
	session *Session
	// generation changes whenever handles are superseded or the session ends;
	// decryptions started under an older generation are discarded
	generation uint64
	joined     bool
	weaponH    fhe.Handle
	coinsH     fhe.Handle
	weapon     *uint64
	weaponFor  fhe.Handle
	coins      *uint64
	coinsFor   fhe.Handle
	decrypting int
	message    string
	txHash     common.Hash
	// actionCoinsH is the coin handle when the pending action began; only a
	// balance decrypted for a newer handle can settle it
	actionCoinsH fhe.Handle
	outcome      *Outcome
	outcomeErr   error
}

// GameOption configures a Game
type GameOption func(*Game)

// WithDecryptTimeout bounds a shared decryption independently of its callers
func WithDecryptTimeout(d time.Duration) GameOption {
	return func(g *Game) { g.decryptTimeout = d }
}

// NewGame creates a game for session
func NewGame(session *Session, contract Contract, decryptor Decryptor, logger *zap.Logger, opts ...GameOption) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		contract:       contract,
		decryptor:      decryptor,
		recon:          NewReconciler(logger),
		logger:         logger,
		session:        session,
		decryptTimeout: defaultDecryptTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the current session, nil after Close
func (g *Game) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Close ends the session. In-flight decryptions are discarded.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = nil
	g.generation++
	g.recon.Fail()
}

// Refresh reads join status and both handles, then decrypts them when the player has joined.
// A decryption failure leaves previously decrypted values in place. Handles read
// while an action superseded them are dropped with ErrStaleResult.
func (g *Game) Refresh(ctx context.Context) error {
	g.mu.Lock()
	sess, startGen := g.session, g.generation
	g.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}

	var (
		chainID       uint64
		joined        bool
		weapon, coins common.Hash
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		chainID, err = g.contract.ChainID(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		joined, err = g.contract.HasJoined(egCtx, sess.Holder)
		return err
	})
	eg.Go(func() (err error) {
		weapon, err = g.contract.WeaponPower(egCtx, sess.Holder)
		return err
	})
	eg.Go(func() (err error) {
		coins, err = g.contract.CoinBalance(egCtx, sess.Holder)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to read player state: %w", err)
	}

	if chainID != sess.ChainID {
		g.logger.Warn("chain switched, closing session",
			zap.Uint64("want", sess.ChainID),
			zap.Uint64("got", chainID))
		g.Close()
		return fmt.Errorf("%w: node serves %d, want %d", ErrWrongChain, chainID, sess.ChainID)
	}

	weaponH, coinsH := fhe.Handle(weapon), fhe.Handle(coins)

	g.mu.Lock()
	if g.session != sess {
		g.mu.Unlock()
		return ErrStaleResult
	}
	changed := weaponH != g.weaponH || coinsH != g.coinsH
	if changed && g.generation != startGen {
		g.mu.Unlock()
		g.logger.Debug("discarding superseded chain read",
			zap.Uint64("generation", startGen),
			zap.String("coins", coinsH.String()))
		return ErrStaleResult
	}
	g.joined = joined
	if changed {
		g.weaponH, g.coinsH = weaponH, coinsH
		g.generation++
	}
	gen := g.generation
	g.mu.Unlock()

	if !joined || weaponH.IsZero() || coinsH.IsZero() {
		return nil
	}
	return g.decrypt(ctx, sess, gen, weaponH, coinsH)
}

func (g *Game) decrypt(ctx context.Context, sess *Session, gen uint64, weaponH, coinsH fhe.Handle) error {
	if !sess.CanSign() {
		return fhe.ErrWalletUnavailable
	}

	g.setDecrypting(1)
	defer g.setDecrypting(-1)

	contract := g.contract.Address()
	key := sess.Holder.Hex() + "/" + weaponH.String() + "/" + coinsH.String()
	// the flight belongs to no single caller; a caller that gives up only stops waiting
	ch := g.flights.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.decryptTimeout)
		defer cancel()
		return g.decryptor.Decrypt(flightCtx, sess.Holder, []fhe.HandleContractPair{
			{Handle: weaponH, Contract: contract},
			{Handle: coinsH, Contract: contract},
		}, sess.Signer)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if r.Err != nil {
		g.logger.Warn("decryption failed, keeping previous values",
			zap.String("holder", sess.Holder.Hex()),
			zap.Bool("shared", r.Shared),
			zap.Error(r.Err))
		return fmt.Errorf("failed to decrypt stats: %w", r.Err)
	}
	res := r.Val.(fhe.Results)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != sess || g.generation != gen {
		g.logger.Debug("discarding stale decryption",
			zap.Uint64("generation", gen),
			zap.Uint64("current", g.generation))
		return ErrStaleResult
	}

	if w := res.Ptr(weaponH); w != nil {
		g.weapon, g.weaponFor = w, weaponH
	}
	c := res.Ptr(coinsH)
	if c == nil {
		return nil
	}
	g.coins, g.coinsFor = c, coinsH

	if coinsH == g.actionCoinsH {
		return nil
	}
	outcome, done, err := g.recon.Observe(*c)
	if done {
		g.outcome = &outcome
	}
	if err != nil {
		// the values themselves are fresh and stay
		g.outcomeErr = err
		g.message = MsgBalanceDecreased
		return err
	}
	return nil
}

// Join submits joinGame, waits for it and refreshes the stats
func (g *Game) Join(ctx context.Context) (*ActionResult, error) {
	sess, err := g.beginAction(ActionJoin)
	if err != nil {
		return nil, err
	}
	defer g.actions.Unlock()

	g.setStatus(MsgJoining, common.Hash{})
	hash, err := g.contract.JoinGame(ctx)
	if err != nil {
		return nil, g.failAction(joinFailedPrefix, err)
	}
	g.setStatus(MsgJoining, hash)

	if _, err := g.contract.WaitMined(ctx, hash); err != nil {
		return nil, g.failAction(joinFailedPrefix, err)
	}
	g.logger.Info("joined the adventure", zap.String("player", sess.Holder.Hex()), zap.String("tx", hash.Hex()))

	g.setMessage(MsgJoined)
	refreshErr := g.Refresh(ctx)
	// a join is settled by its receipt; the stats may still be undecryptable
	g.recon.Fail()
	g.setMessage(MsgReady)

	return &ActionResult{TxHash: hash, Message: MsgReady, RefreshErr: refreshErr}, nil
}

// Attack submits attackMonster, waits for it and reports the loot once the new balance is decrypted
func (g *Game) Attack(ctx context.Context) (*ActionResult, error) {
	sess, err := g.beginAction(ActionAttack)
	if err != nil {
		return nil, err
	}
	defer g.actions.Unlock()

	g.setStatus(MsgEngaging, common.Hash{})
	hash, err := g.contract.AttackMonster(ctx)
	if err != nil {
		return nil, g.failAction(attackFailedPrefix, err)
	}
	g.setStatus(MsgEngaging, hash)

	if _, err := g.contract.WaitMined(ctx, hash); err != nil {
		return nil, g.failAction(attackFailedPrefix, err)
	}
	g.logger.Info("monster attacked", zap.String("player", sess.Holder.Hex()), zap.String("tx", hash.Hex()))

	g.setMessage(MsgMonsterDefeated)
	refreshErr := g.Refresh(ctx)

	res := &ActionResult{TxHash: hash, Message: MsgMonsterDefeated, RefreshErr: refreshErr}
	g.mu.Lock()
	if g.outcome != nil && g.outcome.Action == ActionAttack {
		res.Loot = g.outcome.Loot
	}
	// settled by a concurrent refresh, or reported by ours
	if g.outcomeErr != nil {
		res.Message = MsgBalanceDecreased
		g.message = MsgBalanceDecreased
		if res.RefreshErr == nil || errors.Is(res.RefreshErr, ErrStaleResult) {
			res.RefreshErr = g.outcomeErr
		}
	}
	g.mu.Unlock()
	return res, nil
}

// beginAction checks preconditions and moves the reconciler out of Idle.
// On success the caller holds g.actions.
func (g *Game) beginAction(action Action) (*Session, error) {
	sess := g.Session()
	if sess == nil {
		return nil, ErrNoSession
	}
	if !sess.CanSign() {
		g.setMessage(MsgSignerUnavailable)
		return nil, fhe.ErrWalletUnavailable
	}
	if !g.actions.TryLock() {
		return nil, ErrActionInFlight
	}

	g.mu.Lock()
	if action == ActionAttack && !g.joined {
		g.message = MsgJoinFirst
		g.mu.Unlock()
		g.actions.Unlock()
		return nil, client.ErrNotJoined
	}

	var pre *uint64
	if action == ActionAttack && g.coins != nil && g.coinsFor == g.coinsH {
		v := *g.coins
		pre = &v
	}

	// a previous confirmed action whose stats never decrypted is dropped
	if pending := g.recon.Pending(); pending != ActionNone {
		g.logger.Warn("previous action was never reconciled", zap.Stringer("action", pending))
		g.recon.Fail()
	}
	if err := g.recon.Begin(action, pre); err != nil {
		g.mu.Unlock()
		g.actions.Unlock()
		return nil, err
	}
	g.outcome, g.outcomeErr = nil, nil
	g.actionCoinsH = g.coinsH
	g.generation++
	g.mu.Unlock()
	return sess, nil
}

func (g *Game) failAction(prefix string, err error) error {
	g.recon.Fail()
	g.setMessage(fmt.Sprintf("%s: %s", prefix, failureReason(err)))
	g.logger.Error(prefix, zap.Error(err))
	return err
}

// failureReason keeps the status line short
func failureReason(err error) string {
	switch {
	case errors.Is(err, client.ErrAlreadyJoined):
		return "player already joined"
	case errors.Is(err, client.ErrNotJoined):
		return "player not joined"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled while waiting for confirmation"
	}
	return err.Error()
}

func (g *Game) setStatus(msg string, tx common.Hash) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.message = msg
	g.txHash = tx
}

func (g *Game) setMessage(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.message = msg
}

func (g *Game) setDecrypting(delta int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decrypting += delta
}

// Snapshot renders the current state for presentation
func (g *Game) Snapshot() model.PlayerStatusResponse {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := model.PlayerStatusResponse{
		Joined:     g.joined,
		Progress:   ProgressNewcomer,
		Decrypting: g.decrypting > 0,
		Message:    g.message,
	}
	if g.session != nil {
		out.Address = g.session.Holder.Hex()
		out.ChainID = g.session.ChainID
	}
	if g.joined {
		out.Progress = ProgressExplorer
	}
	if g.weapon != nil {
		v := *g.weapon
		out.WeaponPower = &v
		out.Stale = out.Stale || g.weaponFor != g.weaponH
	}
	if g.coins != nil {
		v := *g.coins
		out.CoinBalance = &v
		out.Stale = out.Stale || g.coinsFor != g.coinsH
	}
	if pending := g.recon.Pending(); pending != ActionNone {
		out.PendingAction = pending.String()
	}
	out.LatestLoot = g.recon.LatestLoot()
	if (g.txHash != common.Hash{}) {
		out.TxHash = g.txHash.Hex()
	}
	return out
}
