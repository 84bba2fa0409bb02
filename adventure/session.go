package adventure

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"

	"github.com/ethereum/go-ethereum/common"
)

// Session is a connected wallet on one chain
type Session struct {
	Holder  common.Address
	ChainID uint64
	Signer  fhe.Signer // nil for a read-only session
}

// ChainReader reports which chain a node serves
type ChainReader interface {
	ChainID(ctx context.Context) (uint64, error)
}

// Connect opens a session for signer, checking the node serves wantChainID
func Connect(ctx context.Context, node ChainReader, signer fhe.Signer, wantChainID uint64) (*Session, error) {
	if signer == nil {
		return nil, fhe.ErrWalletUnavailable
	}
	if err := checkChain(ctx, node, wantChainID); err != nil {
		return nil, err
	}
	return &Session{Holder: signer.Address(), ChainID: wantChainID, Signer: signer}, nil
}

// Watch opens a read-only session for holder
func Watch(ctx context.Context, node ChainReader, holder common.Address, wantChainID uint64) (*Session, error) {
	if err := checkChain(ctx, node, wantChainID); err != nil {
		return nil, err
	}
	return &Session{Holder: holder, ChainID: wantChainID}, nil
}

// CanSign reports whether the session has a wallet signer
func (s *Session) CanSign() bool {
	return s != nil && s.Signer != nil
}

func checkChain(ctx context.Context, node ChainReader, want uint64) error {
	got, err := node.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: node serves %d, want %d", ErrWrongChain, got, want)
	}
	return nil
}
