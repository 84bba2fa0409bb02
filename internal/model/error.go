package model

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeWalletUnavailable     = "WALLET_UNAVAILABLE"
	CodeSignatureRejected     = "SIGNATURE_REJECTED"
	CodeRelayerUnreachable    = "RELAYER_UNREACHABLE"
	CodeAuthorizationExpired  = "AUTHORIZATION_EXPIRED"
	CodeAuthorizationRejected = "AUTHORIZATION_REJECTED"
	CodeTransactionReverted   = "TRANSACTION_REVERTED"
	CodeTransactionRejected   = "TRANSACTION_REJECTED"
	CodeStateInconsistency    = "STATE_INCONSISTENCY"
	CodeAlreadyJoined         = "ALREADY_JOINED"
	CodeNotJoined             = "NOT_JOINED"
	CodeActionInFlight        = "ACTION_IN_FLIGHT"
	CodeWrongChain            = "WRONG_CHAIN"
	CodeFileExists            = "FILE_EXISTS"
	CodeBadRequest            = "BAD_REQUEST"
	CodeInternal              = "INTERNAL"
)
