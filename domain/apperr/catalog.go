package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a rejection reason. The prefix groups codes into the
// four kinds callers may branch on: validation, state conflict, insufficient
// funds and external-call failure.
type ErrorCode string

const (
	// Validation errors (VALID_1xxx)
	ErrCodeInvalidRequest   ErrorCode = "VALID_1001"
	ErrCodeInvalidAmount    ErrorCode = "VALID_1002"
	ErrCodeInvalidStake     ErrorCode = "VALID_1003"
	ErrCodeGoalTooLow       ErrorCode = "VALID_1004"
	ErrCodeGoalTooHigh      ErrorCode = "VALID_1005"
	ErrCodeBadMeasureIndex  ErrorCode = "VALID_1006"
	ErrCodeMeasureNotAllowed ErrorCode = "VALID_1007"
	ErrCodeInvalidActivity  ErrorCode = "VALID_1008"
	ErrCodeIndexOutOfRange  ErrorCode = "VALID_1009"

	// State conflict errors (STATE_2xxx)
	ErrCodeAlreadyCommitted    ErrorCode = "STATE_2001"
	ErrCodeNoActiveCommitment  ErrorCode = "STATE_2002"
	ErrCodeCommitmentStillActive ErrorCode = "STATE_2003"
	ErrCodeActivityNotFound    ErrorCode = "STATE_2004"
	ErrCodeActivityNotAllowed  ErrorCode = "STATE_2005"
	ErrCodeActivityExists      ErrorCode = "STATE_2006"

	// Insufficient funds errors (FUNDS_3xxx)
	ErrCodeInsufficientBalance          ErrorCode = "FUNDS_3001"
	ErrCodeInsufficientStakeableBalance ErrorCode = "FUNDS_3002"
	ErrCodeInsufficientAvailableBalance ErrorCode = "FUNDS_3003"
	ErrCodeInsufficientSlashedBalance   ErrorCode = "FUNDS_3004"
	ErrCodeStakeLocked                  ErrorCode = "FUNDS_3005"

	// External call failures (EXT_4xxx)
	ErrCodeTransferFailed   ErrorCode = "EXT_4001"
	ErrCodeTokenUnreachable ErrorCode = "EXT_4002"

	// Authorization errors (AUTH_5xxx)
	ErrCodeUnauthorized ErrorCode = "AUTH_5001"
	ErrCodeAdminOnly    ErrorCode = "AUTH_5002"

	// Server errors (SERVER_6xxx)
	ErrCodeInternal     ErrorCode = "SERVER_6001"
	ErrCodeStorageError ErrorCode = "SERVER_6002"
)

// AppError is a structured application error carrying a stable code.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a structured application error.
func New(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf extracts the error code, or ErrCodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Validation errors

func ErrInvalidAmount(details string) *AppError {
	return New(ErrCodeInvalidAmount, "Amount must be greater than zero", details, nil)
}

func ErrInvalidStake(details string) *AppError {
	return New(ErrCodeInvalidStake, "Stake must be greater than zero", details, nil)
}

func ErrGoalTooLow(goal, lower int64) *AppError {
	return New(ErrCodeGoalTooLow, "Goal is too low", fmt.Sprintf("goal %d below lower bound %d", goal, lower), nil)
}

func ErrGoalTooHigh(goal, upper int64) *AppError {
	return New(ErrCodeGoalTooHigh, "Goal is too high", fmt.Sprintf("goal %d above upper bound %d", goal, upper), nil)
}

func ErrBadMeasureIndex(index, count int) *AppError {
	return New(ErrCodeBadMeasureIndex, "Measure index out of bounds", fmt.Sprintf("index %d, measures %d", index, count), nil)
}

func ErrMeasureNotAllowed(name string) *AppError {
	return New(ErrCodeMeasureNotAllowed, "Measure is not allowed", fmt.Sprintf("measure: %s", name), nil)
}

func ErrInvalidRequest(details string) *AppError {
	return New(ErrCodeInvalidRequest, "Invalid request", details, nil)
}

func ErrInvalidActivity(details string) *AppError {
	return New(ErrCodeInvalidActivity, "Invalid activity definition", details, nil)
}

func ErrIndexOutOfRange(index, length int) *AppError {
	return New(ErrCodeIndexOutOfRange, "Index out of range", fmt.Sprintf("index %d, length %d", index, length), nil)
}

// State conflict errors

func ErrAlreadyCommitted(committer string) *AppError {
	return New(ErrCodeAlreadyCommitted, "Committer already has an active commitment", fmt.Sprintf("committer: %s", committer), nil)
}

func ErrNoActiveCommitment(committer string) *AppError {
	return New(ErrCodeNoActiveCommitment, "No active commitment", fmt.Sprintf("committer: %s", committer), nil)
}

func ErrCommitmentStillActive(committer string) *AppError {
	return New(ErrCodeCommitmentStillActive, "Commitment is still active", fmt.Sprintf("committer: %s", committer), nil)
}

func ErrActivityNotFound(key string) *AppError {
	return New(ErrCodeActivityNotFound, "Activity does not exist", fmt.Sprintf("key: %s", key), nil)
}

func ErrActivityNotAllowed(key string) *AppError {
	return New(ErrCodeActivityNotAllowed, "Activity is not allowed", fmt.Sprintf("key: %s", key), nil)
}

func ErrActivityExists(key string) *AppError {
	return New(ErrCodeActivityExists, "Activity already registered", fmt.Sprintf("key: %s", key), nil)
}

// Insufficient funds errors

func ErrInsufficientBalance(requested, balance int64) *AppError {
	return New(ErrCodeInsufficientBalance, "Insufficient balance", fmt.Sprintf("requested %d, balance %d", requested, balance), nil)
}

func ErrInsufficientStakeableBalance(stake, balance int64) *AppError {
	return New(ErrCodeInsufficientStakeableBalance, "Insufficient stakeable balance", fmt.Sprintf("stake %d, balance %d", stake, balance), nil)
}

func ErrInsufficientAvailableBalance(requested, available int64) *AppError {
	return New(ErrCodeInsufficientAvailableBalance, "Insufficient available balance", fmt.Sprintf("requested %d, available %d", requested, available), nil)
}

func ErrInsufficientSlashedBalance(requested, slashed int64) *AppError {
	return New(ErrCodeInsufficientSlashedBalance, "Insufficient slashed balance", fmt.Sprintf("requested %d, slashed %d", requested, slashed), nil)
}

func ErrStakeLocked(requested, withdrawable int64) *AppError {
	return New(ErrCodeStakeLocked, "Funds are locked by an active commitment", fmt.Sprintf("requested %d, withdrawable %d", requested, withdrawable), nil)
}

// External call failures

func ErrTransferFailed(details string) *AppError {
	return New(ErrCodeTransferFailed, "Token transfer failed", details, nil)
}

func ErrTokenUnreachable(details string) *AppError {
	return New(ErrCodeTokenUnreachable, "Token bridge unreachable", details, nil)
}

// Authorization errors

func ErrUnauthorized(details string) *AppError {
	return New(ErrCodeUnauthorized, "Unauthorized", details, nil)
}

func ErrAdminOnly(caller string) *AppError {
	return New(ErrCodeAdminOnly, "Operation requires the admin capability", fmt.Sprintf("caller: %s", caller), nil)
}

// Server errors

func ErrStorage(operation string, cause error) *AppError {
	return New(ErrCodeStorageError, "Storage operation failed", fmt.Sprintf("operation: %s", operation), cause)
}

// HTTPStatus maps an error to the response status for the API layer.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeInvalidRequest, ErrCodeInvalidAmount, ErrCodeInvalidStake,
		ErrCodeGoalTooLow, ErrCodeGoalTooHigh, ErrCodeBadMeasureIndex,
		ErrCodeMeasureNotAllowed, ErrCodeInvalidActivity, ErrCodeIndexOutOfRange:
		return http.StatusBadRequest
	case ErrCodeActivityNotFound, ErrCodeNoActiveCommitment:
		return http.StatusNotFound
	case ErrCodeAlreadyCommitted, ErrCodeCommitmentStillActive,
		ErrCodeActivityNotAllowed, ErrCodeActivityExists:
		return http.StatusConflict
	case ErrCodeInsufficientBalance, ErrCodeInsufficientStakeableBalance,
		ErrCodeInsufficientAvailableBalance, ErrCodeInsufficientSlashedBalance,
		ErrCodeStakeLocked:
		return http.StatusUnprocessableEntity
	case ErrCodeTransferFailed, ErrCodeTokenUnreachable:
		return http.StatusBadGateway
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeAdminOnly:
		return http.StatusForbidden
	case ErrCodeStorageError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
