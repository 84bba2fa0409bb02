package main

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/encrypted-adventure/internal/app"
	"github.com/AlexZinkM/encrypted-adventure/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cliContext struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd creates the adventurectl command tree. It is called once in main.
func NewRootCmd() *cobra.Command {
	cc := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "adventurectl",
		Short:         "Play the encrypted adventure from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			_ = godotenv.Load()
			if err := config.Init(); err != nil {
				return err
			}
			cc.cfg = config.Get()

			logger, err := app.NewLogger(cc.cfg.LogLevel, true)
			if err != nil {
				return err
			}
			cc.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cc.logger != nil {
				_ = cc.logger.Sync()
			}
			config.ForgetPassword()
		},
	}

	rootCmd.AddCommand(
		addressCmd(cc),
		joinCmd(cc),
		viewCmd(cc, "view-weapon", "Decrypt and print the weapon power", weaponStat),
		viewCmd(cc, "view-coins", "Decrypt and print the coin balance", coinStat),
		attackCmd(cc),
		walletCmd(cc),
	)
	return rootCmd
}

// connect prompts for the keystore password and opens a game session
func (cc *cliContext) connect(ctx context.Context) (*app.App, error) {
	if err := config.PromptForPassword(); err != nil {
		return nil, err
	}
	a, err := app.Connect(ctx, cc.cfg, cc.logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return a, nil
}
