package fhe

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer produces EIP-712 signatures for one wallet address.
// SignTypedData may block until the wallet responds; it returns a 0x-prefixed 65-byte signature.
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) (string, error)
}

// KeySigner signs with a private key unlocked from the local keystore
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner wraps key. The signer takes ownership: Close wipes it.
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignTypedData hashes data per EIP-712 and signs it with V in {27, 28}
func (s *KeySigner) SignTypedData(ctx context.Context, data apitypes.TypedData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.key == nil {
		return "", fmt.Errorf("signer for %s is closed", s.address.Hex())
	}

	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Close wipes the private key
func (s *KeySigner) Close() {
	if s.key != nil {
		clear(s.key.D.Bits())
		s.key = nil
	}
}
