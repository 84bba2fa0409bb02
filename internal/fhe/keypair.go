package fhe

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/encrypted-adventure/internal/common"

	"golang.org/x/crypto/nacl/box"
)

// Keypair is an ephemeral X25519 key pair. The private half never leaves the process.
type Keypair struct {
	Public  *[32]byte
	private *[32]byte
}

// GenerateKeypair creates a fresh keypair; callers must Wipe it when done
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{Public: pub, private: priv}, nil
}

// PublicKeyHex returns the public key as unprefixed hex, the form the relayer expects
func (k *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.Public[:])
}

// Open decrypts a base64 sealed value addressed to this keypair
func (k *Keypair) Open(payload string) (uint64, error) {
	if k.private == nil {
		return 0, fmt.Errorf("%w: keypair wiped", ErrInvalidResponse)
	}
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: payload is not base64: %v", ErrInvalidResponse, err)
	}
	plain, ok := box.OpenAnonymous(nil, sealed, k.Public, k.private)
	if !ok {
		return 0, fmt.Errorf("%w: payload not sealed to this key", ErrInvalidResponse)
	}
	defer clear(plain)

	v, err := strconv.ParseUint(string(plain), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: plaintext is not an integer", ErrInvalidResponse)
	}
	return v, nil
}

// Wipe zeroes the private key
func (k *Keypair) Wipe() {
	if k.private != nil {
		clear(k.private[:])
		k.private = nil
	}
}

// ParsePublicKey decodes a hex public key, with or without 0x
func ParsePublicKey(s string) (*[32]byte, error) {
	raw, err := hex.DecodeString(common.TrimHexPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid public key: want 32 bytes, got %d", len(raw))
	}
	var pub [32]byte
	copy(pub[:], raw)
	return &pub, nil
}

// SealValue seals the decimal form of v to publicKey.
// This is the relayer side of Open.
func SealValue(publicKey *[32]byte, v uint64) (string, error) {
	sealed, err := box.SealAnonymous(nil, []byte(strconv.FormatUint(v, 10)), publicKey, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to seal value: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}
