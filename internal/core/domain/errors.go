package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a recoverable domain failure. Every rejection the
// ledger can produce is one of these; nothing in this package panics or
// escalates.
type ErrorCode string

const (
	ErrCodeEmptySplits             ErrorCode = "EMPTY_SPLITS"
	ErrCodeMixedSplitTarget        ErrorCode = "MIXED_SPLIT_TARGET"
	ErrCodeCurrencyMismatch        ErrorCode = "CURRENCY_MISMATCH"
	ErrCodeSplitSumMismatch        ErrorCode = "SPLIT_SUM_MISMATCH"
	ErrCodeSelfTransfer            ErrorCode = "SELF_TRANSFER"
	ErrCodeAccountNotFound         ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeTransferAccountNotFound ErrorCode = "TRANSFER_ACCOUNT_NOT_FOUND"
	ErrCodeCategoryNotFound        ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeTransactionNotFound     ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeCannotDeleteMirror      ErrorCode = "CANNOT_DELETE_MIRROR"
	ErrCodeInsufficientBalance     ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeAlreadyCleared          ErrorCode = "ALREADY_CLEARED"
)

// LedgerError is a typed, recoverable domain error returned to the
// immediate caller. Callers match on Code via errors.As or CodeOf.
type LedgerError struct {
	Code    ErrorCode
	Message string
}

func NewLedgerError(code ErrorCode, message string) LedgerError {
	return LedgerError{Code: code, Message: message}
}

func (e LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a
// LedgerError.
func CodeOf(err error) ErrorCode {
	var le LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
