package types

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestInTheMoney(t *testing.T) {
	testCases := []struct {
		name         string
		counterOffer []uint64
		price        []uint64
		word         uint64
		observed     uint64
		itm          bool
	}{
		{"no terms", nil, []uint64{100}, 5, 0, true},
		{"no price", []uint64{90, 110}, nil, 1, 110, true},
		{"below strike", []uint64{90, 110}, []uint64{100}, 0, 90, false},
		{"above strike", []uint64{90, 110}, []uint64{100}, 1, 110, true},
		{"at strike", []uint64{100}, []uint64{100}, 7, 100, true},
		{"word wraps", []uint64{90, 110, 130}, []uint64{100}, 3, 90, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opt := &Option{CounterOffer: tc.counterOffer, Price: tc.price}
			observed, itm := opt.InTheMoney(tc.word)
			require.Equal(t, tc.observed, observed)
			require.Equal(t, tc.itm, itm)
		})
	}
}

func TestOptionStatusTransitions(t *testing.T) {
	require.True(t, StatusCreated.CanTransition(StatusOnMarket))
	require.True(t, StatusOnMarket.CanTransition(StatusCreated))
	require.True(t, StatusSold.CanTransition(StatusExecuted))
	require.False(t, StatusSold.CanTransition(StatusCancelled))
	require.False(t, StatusCreated.CanTransition(StatusSold))

	for _, terminal := range []OptionStatus{StatusExecuted, StatusCancelled} {
		require.True(t, terminal.Terminal())
		for s := StatusCreated; s <= StatusCancelled; s++ {
			require.False(t, terminal.CanTransition(s), "%v -> %v", terminal, s)
		}
	}
}

func TestOptionCopy(t *testing.T) {
	opt := &Option{ID: 1, Collateral: uint256.NewInt(5), CounterOffer: []uint64{1, 2}}
	cp := opt.Copy()
	cp.Collateral.SetUint64(9)
	cp.CounterOffer[0] = 42

	require.Equal(t, uint64(5), opt.Collateral.Uint64())
	require.Equal(t, uint64(1), opt.CounterOffer[0])
}

func TestValidateCurrency(t *testing.T) {
	require.NoError(t, ValidateCurrency("ETH"))
	require.NoError(t, ValidateCurrency("USDC.e"))
	require.ErrorIs(t, ValidateCurrency(""), ErrInvalidCurrency)
	require.ErrorIs(t, ValidateCurrency("US D"), ErrInvalidCurrency)
	require.ErrorIs(t, ValidateCurrency("ABCDEFGHIJKLMNOPQ"), ErrInvalidCurrency)
}

func TestGenesisState(t *testing.T) {
	gs, err := GenesisStateFromJSON(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultGenesisState(), gs)

	gs, err = GenesisStateFromJSON([]byte(`{
		"owner": "0x00000000000000000000000000000000000a11ce",
		"native_currency": "ETH",
		"balances": [{"address": "0x0000000000000000000000000000000000000b0b", "amount": "100"}]
	}`))
	require.NoError(t, err)
	require.Equal(t, alice, gs.Owner)
	require.NoError(t, gs.ValidateBasic())

	gs.Balances = append(gs.Balances, GenesisBalance{Address: bob, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, gs.ValidateBasic(), ErrInvalidAddress)

	_, err = GenesisStateFromJSON([]byte(`{"owner": 7}`))
	require.ErrorIs(t, err, ErrEncoding)
}

func TestModuleAddresses(t *testing.T) {
	require.NotEqual(t, EscrowAddress, MarketAddress)
	require.False(t, IsZeroAddress(EscrowAddress))
	require.Equal(t, EscrowAddress, ModuleAddress("escrow"))
}
