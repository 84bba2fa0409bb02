package adventure

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Action is a state-changing call awaiting reconciliation
type Action int

const (
	ActionNone Action = iota
	ActionJoin
	ActionAttack
)

func (a Action) String() string {
	switch a {
	case ActionJoin:
		return "join"
	case ActionAttack:
		return "attack"
	default:
		return "none"
	}
}

// Phase of the reconciler
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingConfirmation
)

func (p Phase) String() string {
	if p == PhaseAwaitingConfirmation {
		return "awaiting-confirmation"
	}
	return "idle"
}

// Outcome describes a completed reconciliation cycle
type Outcome struct {
	Action Action
	// Loot is nil when no loot could be attributed to the action
	Loot *uint64
}

// Reconciler correlates a submitted action with the coin balance decrypted afterwards.
//
//	Idle --Begin--> AwaitingConfirmation(action, pre) --Observe(changed)--> Idle
//	                        |
//	                        +--Fail--> Idle
type Reconciler struct {
	logger *zap.Logger

	mu         sync.Mutex
	phase      Phase
	action     Action
	pre        *uint64
	latestLoot *uint64
}

// NewReconciler creates an idle reconciler
func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

// Begin records a submitted action. pre is the last known coin balance, nil if unknown.
func (r *Reconciler) Begin(action Action, pre *uint64) error {
	if action == ActionNone {
		return fmt.Errorf("begin: invalid action %s", action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseIdle {
		return fmt.Errorf("%w: %s pending", ErrActionInFlight, r.action)
	}

	r.phase = PhaseAwaitingConfirmation
	r.action = action
	r.pre = nil
	if pre != nil {
		v := *pre
		r.pre = &v
	}
	if action == ActionJoin {
		r.latestLoot = nil
	}
	return nil
}

// Observe feeds a freshly decrypted coin balance.
// It returns done=true when the pending action completed. A balance that
// dropped across an attack completes the cycle without loot and returns an
// error wrapping ErrStateInconsistency.
func (r *Reconciler) Observe(coins uint64) (outcome Outcome, done bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseAwaitingConfirmation {
		return Outcome{}, false, nil
	}
	if r.action != ActionAttack || r.pre == nil {
		outcome = Outcome{Action: r.action}
		r.resetLocked()
		return outcome, true, nil
	}

	pre := *r.pre
	if coins == pre {
		return Outcome{}, false, nil
	}

	outcome = Outcome{Action: r.action}
	r.resetLocked()
	if coins < pre {
		r.logger.Warn("coin balance decreased after attack, no loot reported",
			zap.Uint64("before", pre),
			zap.Uint64("after", coins))
		return outcome, true, fmt.Errorf("%w: %d -> %d", ErrStateInconsistency, pre, coins)
	}

	loot := coins - pre
	r.latestLoot = &loot
	outcome.Loot = &loot
	return outcome, true, nil
}

// Fail abandons the pending action, e.g. after a rejected or reverted transaction
func (r *Reconciler) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseIdle {
		r.logger.Debug("pending action cleared", zap.Stringer("action", r.action))
	}
	r.resetLocked()
}

func (r *Reconciler) resetLocked() {
	r.phase = PhaseIdle
	r.action = ActionNone
	r.pre = nil
}

// Phase returns the current phase
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Pending returns the pending action, ActionNone when idle
func (r *Reconciler) Pending() Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.action
}

// LatestLoot returns the last reported loot. It is only visible while idle.
func (r *Reconciler) LatestLoot() *uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseIdle || r.latestLoot == nil {
		return nil
	}
	v := *r.latestLoot
	return &v
}
