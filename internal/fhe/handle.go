package fhe

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Handle is an opaque 32-byte reference to an encrypted value held by a contract
type Handle [32]byte

// String returns the 0x-prefixed hex form used on the wire
func (h Handle) String() string {
	return hexutil.Encode(h[:])
}

// IsZero reports whether h is the uninitialized handle
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Hash converts h to a go-ethereum hash
func (h Handle) Hash() common.Hash {
	return common.Hash(h)
}

// ParseHandle parses a hex handle with or without the 0x prefix
func ParseHandle(s string) (Handle, error) {
	if len(s) < 2 || s[:2] != "0x" && s[:2] != "0X" {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle %q: %w", s, err)
	}
	if len(raw) != len(Handle{}) {
		return Handle{}, fmt.Errorf("invalid handle %q: want 32 bytes, got %d", s, len(raw))
	}
	return Handle(raw), nil
}

// HandleContractPair names a handle and the contract it is scoped to
type HandleContractPair struct {
	Handle   Handle
	Contract common.Address
}

// Results maps decrypted handles to their plaintext.
// A handle the relayer did not recognise is absent, never zero.
type Results map[Handle]uint64

// Lookup returns the plaintext for h and whether it is available
func (r Results) Lookup(h Handle) (uint64, bool) {
	v, ok := r[h]
	return v, ok
}

// Ptr returns the plaintext for h or nil when it is not available
func (r Results) Ptr(h Handle) *uint64 {
	v, ok := r[h]
	if !ok {
		return nil
	}
	return &v
}
