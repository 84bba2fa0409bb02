package adventure

import "errors"

var (
	// ErrStateInconsistency is reported when the coin balance drops across an attack
	ErrStateInconsistency = errors.New("state inconsistency: coin balance decreased")
	// ErrActionInFlight is returned when a join or attack is already being processed
	ErrActionInFlight = errors.New("another action is in flight")
	// ErrWrongChain is returned when the node serves a different chain than the session
	ErrWrongChain = errors.New("connected to the wrong chain")
	// ErrStaleResult is returned when a decryption finished after its handles were superseded
	ErrStaleResult = errors.New("decryption result is stale")
	// ErrNoSession is returned after the wallet disconnected
	ErrNoSession = errors.New("wallet is not connected")
)
