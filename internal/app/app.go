// Package app wires configuration, the keystore, the node and the relayer into a game session.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/client"
	"github.com/AlexZinkM/encrypted-adventure/internal/common"
	"github.com/AlexZinkM/encrypted-adventure/internal/config"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrNoKeystore is returned when KEYSTORE_PATH does not hold a wallet yet
var ErrNoKeystore = errors.New("keystore not found")

// App is an unlocked wallet connected to the game
type App struct {
	Eth      *ethclient.Client
	Contract *client.AdventureClient
	Relayer  *client.RelayerClient
	Workflow *fhe.Workflow
	Signer   *fhe.KeySigner
	Game     *adventure.Game
}

// NewLogger builds a production logger at level; console output when console is set
func NewLogger(level string, console bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if console {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = lvl
	return cfg.Build()
}

// Connect unlocks the keystore with the prompted password, dials the node and
// opens a session on the configured chain.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if fi, err := os.Stat(cfg.KeystorePath); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoKeystore, cfg.KeystorePath)
	}

	contractAddr, err := common.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("CONTRACT_ADDRESS: %w", err)
	}
	decryptionAddr, err := common.ParseAddress(cfg.DecryptionContract)
	if err != nil {
		return nil, fmt.Errorf("DECRYPTION_CONTRACT: %w", err)
	}

	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := config.GetKeystorePasswordBytes()
	if err != nil {
		return nil, err
	}
	key, err := adventure.LoadKey(cfg.KeystorePath, passwordBytes)
	clear(passwordBytes)
	if err != nil {
		return nil, err
	}
	signer := fhe.NewKeySigner(key)

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		signer.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCURL, err)
	}

	contract, err := client.NewAdventureClient(contractAddr, eth,
		client.WithTransactor(key, cfg.ChainID),
		client.WithTxTimeout(cfg.TxTimeout),
		client.WithLogger(logger))
	if err != nil {
		signer.Close()
		eth.Close()
		return nil, err
	}

	sess, err := adventure.Connect(ctx, contract, signer, cfg.ChainID)
	if err != nil {
		signer.Close()
		eth.Close()
		return nil, err
	}

	relayer := client.NewRelayerClient(cfg.RelayerURL, cfg.RelayerTimeout, logger)
	workflow := fhe.NewWorkflow(relayer,
		fhe.Domain{ChainID: cfg.GatewayChainID, VerifyingContract: decryptionAddr},
		cfg.ChainID,
		fhe.WithDurationDays(cfg.DecryptDurationDays),
		fhe.WithLogger(logger))

	game := adventure.NewGame(sess, contract, workflow, logger,
		adventure.WithDecryptTimeout(2*cfg.RelayerTimeout))

	logger.Info("wallet connected",
		zap.String("address", sess.Holder.Hex()),
		zap.Uint64("chainId", sess.ChainID),
		zap.String("contract", contractAddr.Hex()))

	return &App{
		Eth:      eth,
		Contract: contract,
		Relayer:  relayer,
		Workflow: workflow,
		Signer:   signer,
		Game:     game,
	}, nil
}

// Close disconnects the session and wipes the key
func (a *App) Close() {
	a.Game.Close()
	a.Signer.Close()
	a.Eth.Close()
}
