package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fhe.ErrWalletUnavailable, http.StatusServiceUnavailable, model.CodeWalletUnavailable},
		{adventure.ErrNoSession, http.StatusServiceUnavailable, model.CodeWalletUnavailable},
		{fmt.Errorf("decrypt: %w", fhe.ErrSignatureRejected), http.StatusForbidden, model.CodeSignatureRejected},
		{fhe.ErrRelayerUnreachable, http.StatusBadGateway, model.CodeRelayerUnreachable},
		{fhe.ErrAuthorizationExpired, http.StatusForbidden, model.CodeAuthorizationExpired},
		{fhe.ErrAuthorizationRejected, http.StatusForbidden, model.CodeAuthorizationRejected},
		{fmt.Errorf("%w: boom", client.ErrAlreadyJoined), http.StatusConflict, model.CodeAlreadyJoined},
		{client.ErrNotJoined, http.StatusConflict, model.CodeNotJoined},
		{client.ErrTransactionReverted, http.StatusUnprocessableEntity, model.CodeTransactionReverted},
		{client.ErrTransactionRejected, http.StatusBadGateway, model.CodeTransactionRejected},
		{adventure.ErrActionInFlight, http.StatusConflict, model.CodeActionInFlight},
		{adventure.ErrWrongChain, http.StatusConflict, model.CodeWrongChain},
		{adventure.ErrStateInconsistency, http.StatusConflict, model.CodeStateInconsistency},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, model.CodeInternal},
		{errors.New("other"), http.StatusInternalServerError, model.CodeInternal},
	}
	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
