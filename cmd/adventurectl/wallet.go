package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func walletCmd(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the encrypted keystore",
	}
	cmd.AddCommand(walletGenerateCmd(cc), walletImportCmd(cc))
	return cmd
}

func walletGenerateCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key into KEYSTORE_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeKeystore(cmd, func(password []byte) (string, error) {
				return adventure.GenerateWallet(cc.cfg.KeystorePath, cc.cfg.ChainID, password)
			})
		},
	}
}

func walletImportCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Encrypt an existing hex private key into KEYSTORE_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("stdin is not a terminal: run interactively to enter the private key")
			}
			fmt.Fprint(cmd.ErrOrStderr(), "Enter private key (hex): ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to read private key: %w", err)
			}
			defer clear(raw)

			return writeKeystore(cmd, func(password []byte) (string, error) {
				return adventure.ImportWallet(cc.cfg.KeystorePath, cc.cfg.ChainID, string(raw), password)
			})
		},
	}
}

func writeKeystore(cmd *cobra.Command, save func(password []byte) (string, error)) error {
	if err := config.PromptForPassword(); err != nil {
		return err
	}
	passwordBytes, err := config.GetKeystorePasswordBytes()
	if err != nil {
		return err
	}
	defer clear(passwordBytes)

	address, err := save(passwordBytes)
	if err != nil {
		if adventure.IsFileExistsError(err) {
			return fmt.Errorf("%s already holds a wallet", config.GetKeystorePath())
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wallet saved to %s\nAddress: %s\n", config.GetKeystorePath(), address)
	return nil
}
