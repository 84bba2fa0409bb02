package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	userDecryptPath = "/v1/user-decrypt"
	maxErrorBody    = 4 << 10
)

// RelayerClient client for the decryption relayer API
type RelayerClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRelayerClient creates a new relayer client
func NewRelayerClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RelayerClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UserDecrypt submits an authorized user-decrypt request.
// Transport failures and 5xx answers wrap ErrRelayerUnavailable; other non-200
// answers are returned as *RelayerError.
func (c *RelayerClient) UserDecrypt(ctx context.Context, req *model.UserDecryptRequest) (*model.UserDecryptResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user-decrypt request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+userDecryptPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRelayerUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("relayer answered",
		zap.String("requestId", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("handles", len(req.HandleContractPairs)),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, decodeRelayerError(resp)
	}

	var out model.UserDecryptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRelayerUnavailable, err)
	}
	return &out, nil
}

func decodeRelayerError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	relErr := &RelayerError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var body model.RelayerErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		relErr.Message = body.Error
		relErr.Code = body.Code
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Join(ErrRelayerUnavailable, relErr)
	}
	return relErr
}
