package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

// errorStatus maps domain errors to an HTTP status and error code.
// Order matters: ErrAlreadyJoined and ErrNotJoined also match ErrTransactionReverted.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, adventure.ErrNoSession), errors.Is(err, fhe.ErrWalletUnavailable), errors.Is(err, client.ErrNoSigner):
		return http.StatusServiceUnavailable, model.CodeWalletUnavailable
	case errors.Is(err, fhe.ErrSignatureRejected):
		return http.StatusForbidden, model.CodeSignatureRejected
	case errors.Is(err, fhe.ErrRelayerUnreachable):
		return http.StatusBadGateway, model.CodeRelayerUnreachable
	case errors.Is(err, fhe.ErrAuthorizationExpired):
		return http.StatusForbidden, model.CodeAuthorizationExpired
	case errors.Is(err, fhe.ErrAuthorizationRejected):
		return http.StatusForbidden, model.CodeAuthorizationRejected
	case errors.Is(err, client.ErrAlreadyJoined):
		return http.StatusConflict, model.CodeAlreadyJoined
	case errors.Is(err, client.ErrNotJoined):
		return http.StatusConflict, model.CodeNotJoined
	case errors.Is(err, client.ErrTransactionReverted):
		return http.StatusUnprocessableEntity, model.CodeTransactionReverted
	case errors.Is(err, client.ErrTransactionRejected):
		return http.StatusBadGateway, model.CodeTransactionRejected
	case errors.Is(err, adventure.ErrActionInFlight):
		return http.StatusConflict, model.CodeActionInFlight
	case errors.Is(err, adventure.ErrWrongChain):
		return http.StatusConflict, model.CodeWrongChain
	case errors.Is(err, adventure.ErrStateInconsistency):
		return http.StatusConflict, model.CodeStateInconsistency
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, model.CodeInternal
	}
	return http.StatusInternalServerError, model.CodeInternal
}
