package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/encrypted-adventure/internal/app"
	"github.com/AlexZinkM/encrypted-adventure/internal/common"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func addressCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the keystore address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := cc.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.Game.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\nChain:   %d\n", sess.Holder.Hex(), sess.ChainID)
			return nil
		},
	}
}

func joinCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "join",
		Short: "Join the adventure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := cc.connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Game.Refresh(ctx); err != nil {
				cc.logger.Warn(err.Error())
			}
			res, err := a.Game.Join(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transaction: %s\n%s\n", res.TxHash.Hex(), res.Message)
			printStats(cmd, a)
			if res.RefreshErr != nil {
				fmt.Fprintf(out, "Stats unavailable: %v\n", res.RefreshErr)
			}
			return nil
		},
	}
}

func attackCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attack",
		Short: "Attack a monster and print the loot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := cc.connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// the loot is the difference to the balance decrypted here
			if err := a.Game.Refresh(ctx); err != nil {
				cc.logger.Warn(err.Error())
			}
			res, err := a.Game.Attack(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transaction: %s\n%s\n", res.TxHash.Hex(), res.Message)
			if res.Loot != nil {
				fmt.Fprintf(out, "Loot: %d coins\n", *res.Loot)
			}
			printStats(cmd, a)
			if res.RefreshErr != nil {
				fmt.Fprintf(out, "Stats unavailable: %v\n", res.RefreshErr)
			}
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, a *app.App) {
	snap := a.Game.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Weapon power: %s\nCoins: %s\n",
		common.FormatUint(snap.WeaponPower, "unavailable"),
		common.FormatUint(snap.CoinBalance, "unavailable"))
}

type stat struct {
	label  string
	handle func(ctx context.Context, a *app.App, player gethcommon.Address) (gethcommon.Hash, error)
}

var (
	weaponStat = stat{"Weapon power", func(ctx context.Context, a *app.App, p gethcommon.Address) (gethcommon.Hash, error) {
		return a.Contract.WeaponPower(ctx, p)
	}}
	coinStat = stat{"Coins", func(ctx context.Context, a *app.App, p gethcommon.Address) (gethcommon.Hash, error) {
		return a.Contract.CoinBalance(ctx, p)
	}}
)

// viewCmd decrypts one stat. Another player's stats are requested with our
// own authorization and fail unless the contract granted us access.
func viewCmd(cc *cliContext, use, short string, s stat) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := cc.connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			target := a.Signer.Address()
			if player != "" {
				if target, err = common.ParseAddress(player); err != nil {
					return fmt.Errorf("--player: %w", err)
				}
			}

			joined, err := a.Contract.HasJoined(ctx, target)
			if err != nil {
				return err
			}
			if !joined {
				return fmt.Errorf("%s has not joined the adventure", target.Hex())
			}

			h, err := s.handle(ctx, a, target)
			if err != nil {
				return err
			}
			handle := fhe.Handle(h)
			if handle.IsZero() {
				return errors.New("no encrypted value on chain")
			}

			results, err := a.Workflow.Decrypt(ctx, a.Signer.Address(),
				[]fhe.HandleContractPair{{Handle: handle, Contract: a.Contract.Address()}}, a.Signer)
			if err != nil {
				return err
			}
			v, ok := results.Lookup(handle)
			if !ok {
				return fmt.Errorf("relayer returned no value for %s", handle)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s of %s: %d\n", s.label, target.Hex(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "player address (defaults to the keystore address)")
	return cmd
}
