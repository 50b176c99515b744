package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Tx is the envelope of one ledger transaction: the caller, the native value
// attached to the call and the operation itself. Signing happens outside the
// application.
type Tx struct {
	Caller common.Address
	Value  *uint256.Int
	// Nonce only distinguishes otherwise identical transactions in the mempool.
	Nonce uint64
	Msg   Msg
}

type txJSON struct {
	Caller common.Address  `json:"caller"`
	Value  *uint256.Int    `json:"value,omitempty"`
	Nonce  uint64          `json:"nonce,omitempty"`
	Type   string          `json:"type"`
	Msg    json.RawMessage `json:"msg"`
}

// NewTx builds a transaction without attached value.
func NewTx(caller common.Address, msg Msg) Tx {
	return Tx{Caller: caller, Value: new(uint256.Int), Msg: msg}
}

// WithValue returns a copy of tx carrying value.
func (tx Tx) WithValue(value *uint256.Int) Tx {
	tx.Value = value
	return tx
}

// AttachedValue returns the attached value, zero when absent.
func (tx Tx) AttachedValue() *uint256.Int {
	if tx.Value == nil {
		return new(uint256.Int)
	}
	return tx.Value
}

func (tx Tx) Marshal() ([]byte, error) {
	if tx.Msg == nil {
		return nil, Wrapf(ErrEncoding, "tx has no message")
	}
	msg, err := json.Marshal(tx.Msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	var value *uint256.Int
	if tx.Value != nil && !tx.Value.IsZero() {
		value = tx.Value
	}
	return json.Marshal(txJSON{
		Caller: tx.Caller,
		Value:  value,
		Nonce:  tx.Nonce,
		Type:   tx.Msg.Type(),
		Msg:    msg,
	})
}

// DecodeTx parses the JSON envelope of a transaction.
func DecodeTx(bz []byte) (Tx, error) {
	var raw txJSON
	if err := json.Unmarshal(bz, &raw); err != nil {
		return Tx{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	msg, err := DecodeMsg(raw.Type, raw.Msg)
	if err != nil {
		return Tx{}, err
	}
	tx := Tx{Caller: raw.Caller, Value: raw.Value, Nonce: raw.Nonce, Msg: msg}
	if tx.Value == nil {
		tx.Value = new(uint256.Int)
	}
	return tx, nil
}

// DecodeMsg decodes the body of a message of the given type.
func DecodeMsg(typ string, bz []byte) (Msg, error) {
	newMsg, ok := msgRegistry[typ]
	if !ok {
		return nil, Wrapf(ErrEncoding, "unknown message type %q", typ)
	}
	msg := newMsg()
	if len(bz) > 0 {
		if err := json.Unmarshal(bz, msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, typ, err)
		}
	}
	return msg, nil
}

// ValidateBasic performs stateless validation of the envelope and its message.
func (tx Tx) ValidateBasic() error {
	if tx.Msg == nil {
		return Wrapf(ErrEncoding, "tx has no message")
	}
	if IsZeroAddress(tx.Caller) {
		return Wrapf(ErrInvalidAddress, "caller cannot be zero")
	}
	if !tx.AttachedValue().IsZero() && !IsPayable(tx.Msg) {
		return Wrapf(ErrNotPayable, "%s does not accept value", tx.Msg.Type())
	}
	return tx.Msg.ValidateBasic()
}
