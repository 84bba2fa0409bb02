package client

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManager tracks nonces locally to avoid a PendingNonceAt round-trip per transaction
type NonceManager struct {
	nonces map[common.Address]uint64
	lock   sync.Mutex
}

// NewNonceManager creates an empty nonce manager
func NewNonceManager() *NonceManager {
	return &NonceManager{nonces: make(map[common.Address]uint64)}
}

// Next returns the next nonce for address and increments it.
// ok is false when the address has not been seeded with Reset.
func (nm *NonceManager) Next(address common.Address) (nonce uint64, ok bool) {
	nm.lock.Lock()
	defer nm.lock.Unlock()

	nonce, ok = nm.nonces[address]
	if !ok {
		return 0, false
	}
	nm.nonces[address] = nonce + 1
	return nonce, true
}

// Reset sets the next nonce for an address
func (nm *NonceManager) Reset(address common.Address, nonce uint64) {
	nm.lock.Lock()
	defer nm.lock.Unlock()
	nm.nonces[address] = nonce
}

// Forget drops the local nonce so the next transaction resyncs from the node
func (nm *NonceManager) Forget(address common.Address) {
	nm.lock.Lock()
	defer nm.lock.Unlock()
	delete(nm.nonces, address)
}

// Peek gets the next nonce without incrementing
func (nm *NonceManager) Peek(address common.Address) (uint64, bool) {
	nm.lock.Lock()
	defer nm.lock.Unlock()
	nonce, ok := nm.nonces[address]
	return nonce, ok
}
