// Package mockfhevm is an in-memory stand-in for an FHEVM chain and its decryption relayer.
// Ciphertexts are plain integers behind random handles, guarded by a per-handle ACL.
package mockfhevm

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const (
	DefaultChainID        = 31337
	DefaultGatewayChainID = 55815
)

// DefaultDecryptionContract is the verifying contract of the gateway EIP-712 domain
var DefaultDecryptionContract = common.HexToAddress("0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1")

// Network holds every ciphertext and who may decrypt it
type Network struct {
	chainID uint64
	domain  fhe.Domain
	now     func() time.Time
	logger  *zap.Logger

	mu      sync.Mutex
	values  map[fhe.Handle]uint64
	owners  map[fhe.Handle]common.Address
	acl     map[fhe.Handle]map[common.Address]struct{}
	counter uint64

	gate    chan struct{}
	arrived chan struct{}
}

// Option configures a Network
type Option func(*Network)

// WithChainID sets the chain the contracts live on
func WithChainID(id uint64) Option {
	return func(n *Network) { n.chainID = id }
}

// WithClock sets the relayer's notion of now
func WithClock(now func() time.Time) Option {
	return func(n *Network) { n.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(n *Network) { n.logger = l }
}

// NewNetwork creates an empty network
func NewNetwork(opts ...Option) *Network {
	n := &Network{
		chainID: DefaultChainID,
		domain: fhe.Domain{
			ChainID:           DefaultGatewayChainID,
			VerifyingContract: DefaultDecryptionContract,
		},
		now:    time.Now,
		logger: zap.NewNop(),
		values: make(map[fhe.Handle]uint64),
		owners: make(map[fhe.Handle]common.Address),
		acl:    make(map[fhe.Handle]map[common.Address]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ChainID returns the chain id contracts report
func (n *Network) ChainID() uint64 {
	return n.chainID
}

// Domain returns the EIP-712 domain the relayer verifies against
func (n *Network) Domain() fhe.Domain {
	return n.domain
}

// Encrypt stores v under a new handle owned by contract and readable by allowed
func (n *Network) Encrypt(contract common.Address, v uint64, allowed ...common.Address) fhe.Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.encryptLocked(contract, v, allowed...)
}

func (n *Network) encryptLocked(contract common.Address, v uint64, allowed ...common.Address) fhe.Handle {
	n.counter++
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], n.counter)
	h := fhe.Handle(crypto.Keccak256Hash(contract.Bytes(), ctr[:]))

	n.values[h] = v
	n.owners[h] = contract
	readers := map[common.Address]struct{}{contract: {}}
	for _, a := range allowed {
		readers[a] = struct{}{}
	}
	n.acl[h] = readers
	return h
}

// Allow grants who read access to h
func (n *Network) Allow(h fhe.Handle, who common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if readers, ok := n.acl[h]; ok {
		readers[who] = struct{}{}
	}
}

// Plaintext returns the value behind h
func (n *Network) Plaintext(h fhe.Handle) (uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.values[h]
	return v, ok
}

// HoldRelayer makes user-decrypt requests block until release is called.
// arrived receives once per request that reaches the hold.
func (n *Network) HoldRelayer() (arrived <-chan struct{}, release func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	gate := make(chan struct{})
	n.gate = gate
	n.arrived = make(chan struct{}, 16)

	var once sync.Once
	return n.arrived, func() {
		once.Do(func() {
			n.mu.Lock()
			if n.gate == gate {
				n.gate = nil
			}
			n.mu.Unlock()
			close(gate)
		})
	}
}

func (n *Network) canRead(h fhe.Handle, contract, user common.Address) (value uint64, known, allowed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.values[h]
	if !ok {
		return 0, false, false
	}
	if n.owners[h] != contract {
		return 0, true, false
	}
	_, ok = n.acl[h][user]
	return v, true, ok
}
