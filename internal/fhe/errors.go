package fhe

import "errors"

var (
	// ErrWalletUnavailable is returned when no signer is connected
	ErrWalletUnavailable = errors.New("wallet signer is not available")
	// ErrSignatureRejected is returned when the wallet refuses to sign the authorization
	ErrSignatureRejected = errors.New("decryption unavailable: signature rejected")
	// ErrRelayerUnreachable is returned on relayer transport failures and 5xx answers
	ErrRelayerUnreachable = errors.New("relayer unreachable")
	// ErrAuthorizationExpired is returned when the relayer considers the grant outside its window
	ErrAuthorizationExpired = errors.New("authorization expired")
	// ErrAuthorizationRejected is returned when the relayer refuses the grant
	ErrAuthorizationRejected = errors.New("authorization rejected")
	// ErrInvalidResponse is returned when a sealed value cannot be opened or parsed
	ErrInvalidResponse = errors.New("invalid relayer response")

	ErrNoHandles = errors.New("no handles to decrypt")
)
