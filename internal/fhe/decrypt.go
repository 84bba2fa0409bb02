package fhe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/common"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultDurationDays is the validity of each authorization grant
const DefaultDurationDays = 7

// Relayer is the user-decrypt endpoint; *client.RelayerClient satisfies it
type Relayer interface {
	UserDecrypt(ctx context.Context, req *model.UserDecryptRequest) (*model.UserDecryptResponse, error)
}

// Workflow turns ciphertext handles into plaintext, authorized by the holder's signature.
// Every call uses a fresh keypair and a fresh authorization; nothing is retried.
type Workflow struct {
	relayer          Relayer
	domain           Domain
	contractsChainID uint64
	durationDays     int
	now              func() time.Time
	logger           *zap.Logger
}

// Option configures a Workflow
type Option func(*Workflow)

// WithDurationDays overrides the grant validity
func WithDurationDays(days int) Option {
	return func(w *Workflow) { w.durationDays = days }
}

// WithClock overrides the source of the start timestamp
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

// NewWorkflow creates a workflow for handles living on contractsChainID
func NewWorkflow(relayer Relayer, domain Domain, contractsChainID uint64, opts ...Option) *Workflow {
	w := &Workflow{
		relayer:          relayer,
		domain:           domain,
		contractsChainID: contractsChainID,
		durationDays:     DefaultDurationDays,
		now:              time.Now,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Decrypt asks signer to authorize holder's handles and returns their plaintext.
// Handles the relayer does not know are absent from the result.
// If ctx ends before the relayer answers, the answer is discarded and ctx.Err() returned.
func (w *Workflow) Decrypt(ctx context.Context, holder gethcommon.Address, pairs []HandleContractPair, signer Signer) (Results, error) {
	if signer == nil {
		return nil, ErrWalletUnavailable
	}
	if len(pairs) == 0 {
		return nil, ErrNoHandles
	}

	kp, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}
	defer kp.Wipe()

	auth := &Authorization{
		PublicKey:         kp.Public[:],
		ContractAddresses: uniqueContracts(pairs),
		ContractsChainID:  w.contractsChainID,
		StartTimestamp:    w.now().Unix(),
		DurationDays:      w.durationDays,
	}

	sig, err := signer.SignTypedData(ctx, auth.TypedData(w.domain))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}
	auth.Signature = common.TrimHexPrefix(sig)

	req := buildRequest(holder, pairs, auth, kp)
	w.logger.Debug("requesting user decryption",
		zap.String("holder", holder.Hex()),
		zap.Int("handles", len(pairs)),
		zap.Int64("start", auth.StartTimestamp))

	resp, err := w.relayer.UserDecrypt(ctx, req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, classifyRelayerError(err)
	}

	wanted := make(map[Handle]struct{}, len(pairs))
	for _, p := range pairs {
		wanted[p.Handle] = struct{}{}
	}

	out := make(Results, len(pairs))
	for _, sv := range resp.Response {
		h, err := ParseHandle(sv.Handle)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if _, ok := wanted[h]; !ok {
			w.logger.Debug("ignoring unrequested handle", zap.String("handle", common.ShortHex(sv.Handle)))
			continue
		}
		v, err := kp.Open(sv.Payload)
		if err != nil {
			return nil, fmt.Errorf("handle %s: %w", h, err)
		}
		out[h] = v
	}
	return out, nil
}

func buildRequest(holder gethcommon.Address, pairs []HandleContractPair, auth *Authorization, kp *Keypair) *model.UserDecryptRequest {
	req := &model.UserDecryptRequest{
		HandleContractPairs: make([]model.HandleContractPair, len(pairs)),
		RequestValidity: model.RequestValidity{
			StartTimestamp: strconv.FormatInt(auth.StartTimestamp, 10),
			DurationDays:   strconv.Itoa(auth.DurationDays),
		},
		ContractsChainID:  strconv.FormatUint(auth.ContractsChainID, 10),
		ContractAddresses: make([]string, len(auth.ContractAddresses)),
		UserAddress:       holder.Hex(),
		Signature:         auth.Signature,
		PublicKey:         kp.PublicKeyHex(),
	}
	for i, p := range pairs {
		req.HandleContractPairs[i] = model.HandleContractPair{
			Handle:          p.Handle.String(),
			ContractAddress: p.Contract.Hex(),
		}
	}
	for i, c := range auth.ContractAddresses {
		req.ContractAddresses[i] = c.Hex()
	}
	return req
}

// uniqueContracts keeps first-seen order
func uniqueContracts(pairs []HandleContractPair) []gethcommon.Address {
	seen := make(map[gethcommon.Address]struct{}, len(pairs))
	out := make([]gethcommon.Address, 0, 1)
	for _, p := range pairs {
		if _, ok := seen[p.Contract]; ok {
			continue
		}
		seen[p.Contract] = struct{}{}
		out = append(out, p.Contract)
	}
	return out
}

func classifyRelayerError(err error) error {
	if errors.Is(err, client.ErrRelayerUnavailable) {
		return fmt.Errorf("%w: %w", ErrRelayerUnreachable, err)
	}
	var relErr *client.RelayerError
	if errors.As(err, &relErr) {
		if relErr.Code == model.RelayerCodeExpired {
			return fmt.Errorf("%w: %w", ErrAuthorizationExpired, err)
		}
		// 4xx: bad signature, holder mismatch or missing ACL
		return fmt.Errorf("%w: %w", ErrAuthorizationRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrRelayerUnreachable, err)
}
