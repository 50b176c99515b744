package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GenesisState is the application state carried in InitChain.
type GenesisState struct {
	Owner          common.Address   `json:"owner"`
	Oracle         common.Address   `json:"oracle"`
	NativeCurrency string           `json:"native_currency"`
	Balances       []GenesisBalance `json:"balances"`
}

// GenesisBalance is an initial account balance.
type GenesisBalance struct {
	Address common.Address `json:"address"`
	Amount  *uint256.Int   `json:"amount"`
}

func DefaultGenesisState() GenesisState {
	return GenesisState{NativeCurrency: DefaultNativeCurrency}
}

// GenesisStateFromJSON decodes app state bytes. Empty input yields the default
// state.
func GenesisStateFromJSON(bz []byte) (GenesisState, error) {
	gs := DefaultGenesisState()
	if len(bz) == 0 {
		return gs, nil
	}
	if err := json.Unmarshal(bz, &gs); err != nil {
		return gs, fmt.Errorf("%w: genesis app state: %v", ErrEncoding, err)
	}
	return gs, nil
}

// ValidateBasic performs basic validation.
func (gs GenesisState) ValidateBasic() error {
	if err := ValidateCurrency(gs.NativeCurrency); err != nil {
		return fmt.Errorf("native_currency: %w", err)
	}
	seen := make(map[common.Address]struct{}, len(gs.Balances))
	for i, b := range gs.Balances {
		if IsZeroAddress(b.Address) {
			return Wrapf(ErrInvalidAddress, "balances[%d]: zero address", i)
		}
		if _, ok := seen[b.Address]; ok {
			return Wrapf(ErrInvalidAddress, "balances[%d]: duplicate address %s", i, b.Address.Hex())
		}
		seen[b.Address] = struct{}{}
		if b.Amount == nil {
			return Wrapf(ErrInvalidAmount, "balances[%d]: missing amount", i)
		}
	}
	return nil
}
