package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSigner is returned when a transaction is requested from a read-only client
	ErrNoSigner = errors.New("wallet signer is not available")

	// ErrTransactionReverted means the contract rejected the call (at estimation or on chain)
	ErrTransactionReverted = errors.New("transaction reverted")
	// ErrTransactionRejected means the transaction could not be signed or sent
	ErrTransactionRejected = errors.New("transaction rejected")

	ErrAlreadyJoined = fmt.Errorf("%w: player already joined", ErrTransactionReverted)
	ErrNotJoined     = fmt.Errorf("%w: player not joined", ErrTransactionReverted)

	// ErrRelayerUnavailable is returned when the relayer cannot be reached or fails internally
	ErrRelayerUnavailable = errors.New("relayer unavailable")
)

// RelayerError is a non-2xx relayer answer
type RelayerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RelayerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("relayer: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("relayer: status %d: %s", e.StatusCode, e.Message)
}

// classifyTxError maps node errors to the transaction taxonomy.
// Revert reasons only come back as text, so this is string matching.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already joined"):
		return fmt.Errorf("%w: %v", ErrAlreadyJoined, err)
	case strings.Contains(msg, "not joined"):
		return fmt.Errorf("%w: %v", ErrNotJoined, err)
	case strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert"):
		return fmt.Errorf("%w: %v", ErrTransactionReverted, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransactionRejected, err)
	}
}

func isNonceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "already known")
}
