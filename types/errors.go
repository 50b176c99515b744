package types

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding            = NewError(CodeTypeEncodingError, "encoding error")
	ErrInvalidTime         = NewError(CodeTypeInvalidTime, "invalid time")
	ErrInvalidAddress      = NewError(CodeTypeInvalidAddress, "invalid address")
	ErrInvalidArray        = NewError(CodeTypeInvalidArray, "invalid array")
	ErrInvalidAmount       = NewError(CodeTypeInvalidAmount, "invalid amount")
	ErrPriceMismatch       = NewError(CodeTypePriceMismatch, "price mismatch")
	ErrInsufficientFunds   = NewError(CodeTypeInsufficientFunds, "insufficient funds")
	ErrNotOnSale           = NewError(CodeTypeNotOnSale, "option is not on sale")
	ErrNotExpired          = NewError(CodeTypeNotExpired, "option not expired yet")
	ErrUnauthorized        = NewError(CodeTypeUnauthorized, "unauthorized")
	ErrReentrantCall       = NewError(CodeTypeReentrantCall, "reentrant call")
	ErrUnknownRequest      = NewError(CodeTypeUnknownRequest, "unknown randomness request")
	ErrAllowanceExceeded   = NewError(CodeTypeAllowanceExceeded, "transfer amount exceeds allowance")
	ErrNotFound            = NewError(CodeTypeNotFound, "not found")
	ErrInvalidStatus       = NewError(CodeTypeInvalidStatus, "invalid option status")
	ErrAlreadyListed       = NewError(CodeTypeAlreadyListed, "option is already on the market")
	ErrNoBid               = NewError(CodeTypeNoBid, "listing has no bid")
	ErrSettlementPending   = NewError(CodeTypeSettlementPending, "settlement pending randomness")
	ErrNotPayable          = NewError(CodeTypeNotPayable, "value attached to non-payable call")
	ErrTransferFailed      = NewError(CodeTypeTransferFailed, "value transfer failed")
	ErrOverflow            = NewError(CodeTypeOverflow, "value overflow")
	ErrAlreadyBootstrapped = NewError(CodeTypeAlreadyBootstrapped, "ledger already bootstrapped")
	ErrInvalidCurrency     = NewError(CodeTypeInvalidCurrency, "invalid currency")
	ErrInternal            = NewError(CodeTypeInternalError, "internal error")
)

// Error is a failure condition that aborts a transaction. Sentinels are
// compared by identity, so wrap them with %w and match with errors.Is.
type Error struct {
	Code CodeType
	msg  string
}

func NewError(code CodeType, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Name is the stable identifier of the error, e.g. "NotOnSale".
func (e *Error) Name() string { return e.Code.String() }

// Wrapf annotates a sentinel with call-specific detail.
func Wrapf(err *Error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// CodeOf returns the ABCI code for err. Errors outside the taxonomy map to
// CodeTypeInternalError.
func CodeOf(err error) CodeType {
	if err == nil {
		return CodeTypeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeTypeInternalError
}
