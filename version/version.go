package version

import (
	tmversion "github.com/tendermint/tendermint/version"
)

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = AppSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// AppSemVer is the current version of constellationd.
	// It's the Semantic Version of the software.
	AppSemVer = "0.3.0"

	// ABCISemVer is the semantic version of the ABCI protocol the
	// application speaks.
	ABCISemVer = tmversion.ABCISemVer
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64,
// eg. for compatibility with ABCI types.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

// AppProtocol versions the state machine: the ledger layout, the tx
// envelope and the execution rules. Replicas on different AppProtocol
// versions compute different app hashes.
var AppProtocol Protocol = 1

// App includes the protocol and software version for the application.
// This information is included in ResponseInfo.
type App struct {
	Protocol Protocol `json:"protocol"`
	Software string   `json:"software"`
}

// Info returns the version of the running binary.
func Info() App {
	return App{Protocol: AppProtocol, Software: Version}
}
