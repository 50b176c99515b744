package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/atomicfile"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/constellation-lab/constellation-zkevm/config"
	"github.com/constellation-lab/constellation-zkevm/types"
)

// MakeInitCommand returns the command that writes config.toml and the genesis
// application state into the home directory.
func MakeInitCommand(conf *config.Config) *cobra.Command {
	var (
		owner    string
		oracle   string
		currency string
		balances []string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the config and genesis application state",
		Long: `Writes config.toml unless one exists, and the genesis application state
handed to the ledger in InitChain. Balances are given as address=amount with the
amount in whole units of the native currency, e.g. 0xabc...=12.5.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(conf)
			if err != nil {
				return err
			}

			gs, err := genesisFromFlags(owner, oracle, currency, balances)
			if err != nil {
				return err
			}

			cfgFile := config.ConfigFile(conf.RootDir)
			if _, err := os.Stat(cfgFile); err == nil {
				logger.Info("found config file", "path", cfgFile)
			} else {
				if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
					return err
				}
				logger.Info("generated config file", "path", cfgFile)
			}

			stateFile := conf.AppStateFile()
			if _, err := os.Stat(stateFile); err == nil {
				logger.Info("found app state file", "path", stateFile)
				return nil
			}
			bz, err := json.MarshalIndent(gs, "", "  ")
			if err != nil {
				return err
			}
			if _, err := atomicfile.WriteAll(stateFile, bytes.NewReader(bz), 0644); err != nil {
				return err
			}
			logger.Info("generated app state file", "path", stateFile, "accounts", len(gs.Balances))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "address of the ledger owner")
	cmd.Flags().StringVar(&oracle, "oracle", "", "address of the randomness oracle (empty settles without randomness)")
	cmd.Flags().StringVar(&currency, "currency", types.DefaultNativeCurrency, "symbol of the native currency")
	cmd.Flags().StringSliceVar(&balances, "balance", nil, "initial balance as address=amount (repeatable)")
	return cmd
}

func genesisFromFlags(owner, oracle, currency string, balances []string) (types.GenesisState, error) {
	gs := types.DefaultGenesisState()
	gs.NativeCurrency = currency

	var err error
	if gs.Owner, err = parseAddressFlag("owner", owner); err != nil {
		return gs, err
	}
	if oracle != "" {
		if gs.Oracle, err = parseAddressFlag("oracle", oracle); err != nil {
			return gs, err
		}
	}
	for _, b := range balances {
		parts := strings.SplitN(b, "=", 2)
		if len(parts) != 2 {
			return gs, fmt.Errorf("balance %q: expected address=amount", b)
		}
		addr, err := parseAddressFlag("balance", parts[0])
		if err != nil {
			return gs, err
		}
		amount, err := parseAmount(parts[1])
		if err != nil {
			return gs, fmt.Errorf("balance %q: %w", b, err)
		}
		gs.Balances = append(gs.Balances, types.GenesisBalance{Address: addr, Amount: amount})
	}
	return gs, gs.ValidateBasic()
}

func parseAddressFlag(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: %q is not a hex address", name, s)
	}
	return common.HexToAddress(s), nil
}
