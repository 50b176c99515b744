package types

import (
	"github.com/google/uuid"
)

// OracleRequest correlates a randomness request with the option that is
// waiting on it. Fulfilled requests are kept as terminal records.
type OracleRequest struct {
	ID        uuid.UUID `json:"id"`
	OptionID  uint64    `json:"option_id"`
	NumWords  uint32    `json:"num_words"`
	Fulfilled bool      `json:"fulfilled"`
	Words     []uint64  `json:"words,omitempty"`
	Height    int64     `json:"height"`
}
