package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *model.UserDecryptRequest {
	return &model.UserDecryptRequest{
		HandleContractPairs: []model.HandleContractPair{{Handle: "0x01", ContractAddress: "0x02"}},
		RequestValidity:     model.RequestValidity{StartTimestamp: "1700000000", DurationDays: "7"},
		ContractsChainID:    "11155111",
		ContractAddresses:   []string{"0x02"},
		UserAddress:         "0x03",
		Signature:           "abcd",
		PublicKey:           "ef01",
	}
}

func TestUserDecryptSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/user-decrypt", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req model.UserDecryptRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abcd", req.Signature)
		assert.Equal(t, "7", req.RequestValidity.DurationDays)

		json.NewEncoder(w).Encode(model.UserDecryptResponse{
			Response: []model.SealedValue{{Handle: "0x01", Payload: "c2VhbGVk"}},
		})
	}))
	defer srv.Close()

	c := NewRelayerClient(srv.URL+"/", time.Second, nil)
	resp, err := c.UserDecrypt(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Response, 1)
	assert.Equal(t, "0x01", resp.Response[0].Handle)
}

func TestUserDecryptErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
		code        string
	}{
		{"expired", http.StatusForbidden, `{"error":"request expired","code":"AUTHORIZATION_EXPIRED"}`, false, model.RelayerCodeExpired},
		{"bad signature", http.StatusUnauthorized, `{"error":"bad sig","code":"INVALID_SIGNATURE"}`, false, model.RelayerCodeBadSignature},
		{"plain text body", http.StatusBadRequest, "nope", false, ""},
		{"server error", http.StatusBadGateway, `{"error":"gateway down"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRelayerClient(srv.URL, time.Second, nil).UserDecrypt(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, ErrRelayerUnavailable))

			var relErr *RelayerError
			require.ErrorAs(t, err, &relErr)
			assert.Equal(t, tt.status, relErr.StatusCode)
			assert.Equal(t, tt.code, relErr.Code)
		})
	}
}

func TestUserDecryptUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRelayerClient(url, time.Second, nil).UserDecrypt(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrRelayerUnavailable)
}

func TestUserDecryptCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewRelayerClient(srv.URL, 5*time.Second, nil).UserDecrypt(ctx, testRequest())
	require.ErrorIs(t, err, context.Canceled)
}
