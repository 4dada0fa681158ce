package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CosmWasm/wasmsim/app"
	"github.com/CosmWasm/wasmsim/contracts/hackatom"
	"github.com/CosmWasm/wasmsim/types"
)

const (
	flagConfig    = "config"
	flagChainID   = "chain-id"
	flagBondDenom = "bond-denom"
	flagVerbose   = "verbose"
)

// NewRootCmd creates the root command for wasmsimd. It is called once in the
// main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wasmsimd",
		Short: "Wasm simulation playground",
		Long: `wasmsimd runs contract scenarios against an in-process chain
simulation. No node, no consensus, just the execution semantics.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			viper.SetEnvPrefix("WASMSIM")
			viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			viper.AutomaticEnv()
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if cfgFile, _ := cmd.Flags().GetString(flagConfig); cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				return viper.ReadInConfig()
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String(flagConfig, "", "path to an optional config file")
	rootCmd.PersistentFlags().String(flagChainID, "testing", "chain id of the simulated chain")
	rootCmd.PersistentFlags().String(flagBondDenom, "stake", "staking denom of the simulated chain")
	rootCmd.PersistentFlags().Bool(flagVerbose, false, "log keeper activity to stderr")

	rootCmd.AddCommand(demoCmd())
	return rootCmd
}

func newSimApp() *app.App {
	logger := log.NewNopLogger()
	if viper.GetBool(flagVerbose) {
		logger = log.NewLogger(os.Stderr)
	}
	return app.NewBuilder().
		WithChainID(viper.GetString(flagChainID)).
		WithBondDenom(viper.GetString(flagBondDenom)).
		WithLogger(logger).
		Build()
}

// demoCmd runs the classic escrow scenario and prints what happened.
func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run an escrow contract scenario end to end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			chain := newSimApp()
			denom := viper.GetString(flagBondDenom)

			funder := types.ModuleAddress("funder")
			verifier := types.ModuleAddress("verifier")
			beneficiary := types.ModuleAddress("beneficiary")
			deposit := types.NewCoins(types.NewInt64Coin(denom, 1000))
			if err := chain.FundAccount(funder, deposit); err != nil {
				return err
			}

			codeID, err := chain.StoreCode(funder, hackatom.Contract{})
			if err != nil {
				return err
			}
			initMsg, err := json.Marshal(hackatom.InstantiateMsg{
				Verifier:    verifier.String(),
				Beneficiary: beneficiary.String(),
			})
			if err != nil {
				return err
			}
			contractAddr, _, err := chain.InstantiateContract(codeID, funder, nil, initMsg, "escrow demo", deposit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "escrow instantiated at %s holding %s\n", contractAddr, deposit)

			_, events, err := chain.ExecuteContract(verifier, contractAddr, []byte(`{"release":{}}`), nil)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "release events:\n%s\n", out)
			fmt.Fprintf(cmd.OutOrStdout(), "beneficiary now holds %s\n", chain.AllBalances(beneficiary))
			return nil
		},
	}
}
