package commands

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/constellation-lab/constellation-zkevm/types"
)

const (
	txCmdName = "tx"

	// nativeDecimals is the number of decimals of the native currency. Amounts
	// on the ledger are integers in its smallest unit.
	nativeDecimals = 18
)

// MakeTxCommand returns the command that builds a transaction envelope, ready
// to be passed to Tendermint's broadcast_tx endpoints.
func MakeTxCommand() *cobra.Command {
	var (
		caller string
		value  string
		nonce  uint64
		asHex  bool
	)
	cmd := &cobra.Command{
		Use:   txCmdName + " [type] [msg-json]",
		Short: "Build a transaction envelope",
		Long: `Builds and validates a transaction envelope. The message body is JSON, with
amounts in the smallest unit of the native currency. The attached --value is in
whole units, e.g. 1.5.`,
		Example: `  constellationd tx create_option '{"counter_offer":[100],"expires":1767225600}' \
    --caller 0x00000000000000000000000000000000000a11ce --value 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := buildTx(args[0], args[1], caller, value, nonce)
			if err != nil {
				return err
			}
			if asHex {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", hex.EncodeToString(bz))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "address of the caller")
	cmd.Flags().StringVar(&value, "value", "0", "native value attached to the call, in whole units")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "nonce distinguishing otherwise identical transactions")
	cmd.Flags().BoolVar(&asHex, "hex", false, "print the envelope hex encoded")
	return cmd
}

func buildTx(typ, body, caller, value string, nonce uint64) ([]byte, error) {
	addr, err := parseAddressFlag("caller", caller)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("--value: %w", err)
	}
	msg, err := types.DecodeMsg(typ, []byte(body))
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(addr, msg).WithValue(amount)
	tx.Nonce = nonce
	if err := tx.ValidateBasic(); err != nil {
		return nil, err
	}
	return tx.Marshal()
}

// parseAmount converts a decimal amount in whole units of the native currency
// into its smallest unit.
func parseAmount(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	d = d.Shift(nativeDecimals)
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, nativeDecimals)
	}
	amount, err := uint256.FromDecimal(d.String())
	if err != nil {
		return nil, errors.New("amount overflows 256 bits")
	}
	return amount, nil
}
