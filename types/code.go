package types

// CodeType is the ABCI response code of a failed transaction. Zero is success.
type CodeType uint32

const (
	CodeTypeOK                  CodeType = 0
	CodeTypeEncodingError       CodeType = 1
	CodeTypeInvalidTime         CodeType = 2
	CodeTypeInvalidAddress      CodeType = 3
	CodeTypeInvalidArray        CodeType = 4
	CodeTypeInvalidAmount       CodeType = 5
	CodeTypePriceMismatch       CodeType = 6
	CodeTypeInsufficientFunds   CodeType = 7
	CodeTypeNotOnSale           CodeType = 8
	CodeTypeNotExpired          CodeType = 9
	CodeTypeUnauthorized        CodeType = 10
	CodeTypeReentrantCall       CodeType = 11
	CodeTypeUnknownRequest      CodeType = 12
	CodeTypeAllowanceExceeded   CodeType = 13
	CodeTypeNotFound            CodeType = 14
	CodeTypeInvalidStatus       CodeType = 15
	CodeTypeAlreadyListed       CodeType = 16
	CodeTypeNoBid               CodeType = 17
	CodeTypeSettlementPending   CodeType = 18
	CodeTypeNotPayable          CodeType = 19
	CodeTypeTransferFailed      CodeType = 20
	CodeTypeOverflow            CodeType = 21
	CodeTypeAlreadyBootstrapped CodeType = 22
	CodeTypeInvalidCurrency     CodeType = 23
	CodeTypeInternalError       CodeType = 99
)

// Codespace is reported alongside the code of every failed response.
const Codespace = "constellation"

var code2string = map[CodeType]string{
	CodeTypeOK:                  "OK",
	CodeTypeEncodingError:       "EncodingError",
	CodeTypeInvalidTime:         "InvalidTime",
	CodeTypeInvalidAddress:      "InvalidAddress",
	CodeTypeInvalidArray:        "InvalidArray",
	CodeTypeInvalidAmount:       "InvalidAmount",
	CodeTypePriceMismatch:       "PriceMismatch",
	CodeTypeInsufficientFunds:   "InsufficientFunds",
	CodeTypeNotOnSale:           "NotOnSale",
	CodeTypeNotExpired:          "NotExpired",
	CodeTypeUnauthorized:        "Unauthorized",
	CodeTypeReentrantCall:       "ReentrantCall",
	CodeTypeUnknownRequest:      "UnknownRequest",
	CodeTypeAllowanceExceeded:   "AllowanceExceeded",
	CodeTypeNotFound:            "NotFound",
	CodeTypeInvalidStatus:       "InvalidStatus",
	CodeTypeAlreadyListed:       "AlreadyListed",
	CodeTypeNoBid:               "NoBid",
	CodeTypeSettlementPending:   "SettlementPending",
	CodeTypeNotPayable:          "NotPayable",
	CodeTypeTransferFailed:      "TransferFailed",
	CodeTypeOverflow:            "Overflow",
	CodeTypeAlreadyBootstrapped: "AlreadyBootstrapped",
	CodeTypeInvalidCurrency:     "InvalidCurrency",
	CodeTypeInternalError:       "InternalError",
}

func (c CodeType) IsOK() bool { return c == CodeTypeOK }

// String returns the stable name of the code, such as "NotOnSale" instead of 8.
func (c CodeType) String() string {
	if s, ok := code2string[c]; ok {
		return s
	}
	return "Unknown code"
}
