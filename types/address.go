package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// EscrowAddress holds attached value and option collateral.
	EscrowAddress = ModuleAddress("escrow")
	// MarketAddress is the spender bidders approve to pull their bids.
	MarketAddress = ModuleAddress("market")
)

// ModuleAddress derives the account address of a named ledger module.
func ModuleAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("constellation/" + name)))
}

// IsZeroAddress reports whether addr is the zero address.
func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
