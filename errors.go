// errors.go: structured error taxonomy for octomap operations
//
// Every condition in the public contract gets an ErrorCode, a constructor,
// and (where the condition is config/context dependent) attached
// structured fields via go-errors.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package octomap

import (
	goerrors "errors"
	"fmt"
	"strconv"

	"github.com/agilira/go-errors"
)

// Error codes for octomap operations.
const (
	// Configuration errors (1xxx)
	ErrCodeInvalidKeySize     errors.ErrorCode = "OCTOMAP_INVALID_KEY_SIZE"
	ErrCodeInvalidValueSize   errors.ErrorCode = "OCTOMAP_INVALID_VALUE_SIZE"
	ErrCodeInvalidElementsMin errors.ErrorCode = "OCTOMAP_INVALID_ELEMENTS_MIN"
	ErrCodeInvalidElementsMax errors.ErrorCode = "OCTOMAP_INVALID_ELEMENTS_MAX"
	ErrCodeCapacityExceeded   errors.ErrorCode = "OCTOMAP_CAPACITY_EXCEEDED"

	// Operation errors (2xxx)
	ErrCodeModeConflict  errors.ErrorCode = "OCTOMAP_MODE_CONFLICT"
	ErrCodeSetExhausted  errors.ErrorCode = "OCTOMAP_SET_EXHAUSTED"
	ErrCodeKeyOutOfRange errors.ErrorCode = "OCTOMAP_KEY_OUT_OF_RANGE"
	ErrCodeValOutOfRange errors.ErrorCode = "OCTOMAP_VALUE_OUT_OF_RANGE"

	// Loader errors (3xxx) - see loading.go
	ErrCodeInvalidLoader   errors.ErrorCode = "OCTOMAP_INVALID_LOADER"
	ErrCodeLoaderCancelled errors.ErrorCode = "OCTOMAP_LOADER_CANCELLED"
	ErrCodePanicRecovered  errors.ErrorCode = "OCTOMAP_PANIC_RECOVERED"

	// Hot-reload errors (4xxx) - see hot-reload.go
	ErrCodeHotReloadConfig errors.ErrorCode = "OCTOMAP_HOT_RELOAD_CONFIG"
)

const (
	msgInvalidKeySize     = "key size out of range: must be a multiple of 4 in [4,64]"
	msgInvalidValueSize   = "value size out of range: must be in [0,1048576]"
	msgInvalidElementsMin = "elementsMin out of range: must be non-negative"
	msgInvalidElementsMax = "elementsMax out of range: must be >= elementsMin"
	msgCapacityExceeded   = "maximum capacity exceeded"
	msgModeConflict       = "cache() and set() methods are mutually exclusive"
	msgSetExhausted       = "set() failed despite multiple resize attempts"
	msgKeyOutOfRange      = "key buffer too small for configured keySize at the given offset"
	msgValOutOfRange      = "value buffer too small for configured valueSize at the given offset"
	msgInvalidLoader      = "loader function cannot be nil"
	msgLoaderCancelled    = "loader context was cancelled"
	msgPanicRecovered     = "panic recovered in loader"
	msgHotReloadConfig    = "hot-reload configuration error"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidKeySize reports a keySize that is not a multiple of 4 in [4,64].
func NewErrInvalidKeySize(keySize int) error {
	return errors.NewWithContext(ErrCodeInvalidKeySize, msgInvalidKeySize, map[string]interface{}{
		"provided_key_size": keySize,
		"valid_range":       "[4,64], multiple of 4",
	})
}

// NewErrInvalidValueSize reports a valueSize outside [0,1048576].
func NewErrInvalidValueSize(valueSize int) error {
	return errors.NewWithContext(ErrCodeInvalidValueSize, msgInvalidValueSize, map[string]interface{}{
		"provided_value_size": valueSize,
		"valid_range":         "[0,1048576]",
	})
}

// NewErrInvalidElementsMin reports a negative elementsMin.
func NewErrInvalidElementsMin(elementsMin int) error {
	return errors.NewWithContext(ErrCodeInvalidElementsMin, msgInvalidElementsMin, map[string]interface{}{
		"provided_elements_min": elementsMin,
	})
}

// NewErrInvalidElementsMax reports an elementsMax smaller than elementsMin
// or exceeding 2^32.
func NewErrInvalidElementsMax(elementsMin, elementsMax int64) error {
	return errors.NewWithContext(ErrCodeInvalidElementsMax, msgInvalidElementsMax, map[string]interface{}{
		"provided_elements_min": elementsMin,
		"provided_elements_max": elementsMax,
	})
}

// NewErrCapacityExceeded reports a configuration or growth attempt that
// would exceed BUFFER_MAX or BUCKETS_MAX.
func NewErrCapacityExceeded(reason string) error {
	return errors.NewWithField(ErrCodeCapacityExceeded, msgCapacityExceeded, "reason", reason)
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

// NewErrModeConflict reports a call to set() after cache() locked the mode
// (or vice versa).
func NewErrModeConflict(attempted, locked string) error {
	return errors.NewWithContext(ErrCodeModeConflict, msgModeConflict, map[string]interface{}{
		"attempted_mode": attempted,
		"locked_mode":    locked,
	})
}

// NewErrSetExhausted reports that set() failed even after the two resize
// retries the coordinator allows.
func NewErrSetExhausted(shardIdx int) error {
	return errors.NewWithField(ErrCodeSetExhausted, msgSetExhausted, "shard", strconv.Itoa(shardIdx)).
		AsRetryable()
}

// NewErrKeyOutOfRange reports a caller-supplied key buffer too small for
// keySize at the given offset.
func NewErrKeyOutOfRange(keyOff, keySize, bufLen int) error {
	return errors.NewWithContext(ErrCodeKeyOutOfRange, msgKeyOutOfRange, map[string]interface{}{
		"key_offset": keyOff,
		"key_size":   keySize,
		"buf_len":    bufLen,
	})
}

// NewErrValueOutOfRange reports a caller-supplied value buffer too small
// for valueSize at the given offset.
func NewErrValueOutOfRange(valueOff, valueSize, bufLen int) error {
	return errors.NewWithContext(ErrCodeValOutOfRange, msgValOutOfRange, map[string]interface{}{
		"value_offset": valueOff,
		"value_size":   valueSize,
		"buf_len":      bufLen,
	})
}

// =============================================================================
// LOADER ERRORS
// =============================================================================

// NewErrInvalidLoader reports a nil loader passed to GetOrLoad.
func NewErrInvalidLoader() error {
	return errors.NewWithField(ErrCodeInvalidLoader, msgInvalidLoader, "operation", "GetOrLoad")
}

// NewErrLoaderCancelled reports a loader context cancellation.
func NewErrLoaderCancelled(cause error) error {
	return errors.NewWithField(ErrCodeLoaderCancelled, msgLoaderCancelled, "cause", cause.Error()).
		AsRetryable()
}

// NewErrPanicRecovered reports a recovered panic from a loader callback.
func NewErrPanicRecovered(recovered interface{}) error {
	return errors.NewWithField(ErrCodePanicRecovered, msgPanicRecovered, "recovered", fmt.Sprintf("%v", recovered))
}

// =============================================================================
// HOT-RELOAD ERRORS
// =============================================================================

// NewErrHotReloadConfig wraps a configuration problem discovered while
// applying a hot-reloaded operational config.
func NewErrHotReloadConfig(field string, reason string) error {
	return errors.NewWithContext(ErrCodeHotReloadConfig, msgHotReloadConfig, map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsModeConflict reports whether err is a cache()/set() mode conflict.
func IsModeConflict(err error) bool {
	return errors.HasCode(err, ErrCodeModeConflict)
}

// IsSetExhausted reports whether err is a set-exhausted error.
func IsSetExhausted(err error) bool {
	return errors.HasCode(err, ErrCodeSetExhausted)
}

// IsConfigError reports whether err originates from construction-time
// argument validation.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidKeySize || code == ErrCodeInvalidValueSize ||
			code == ErrCodeInvalidElementsMin || code == ErrCodeInvalidElementsMax
	}
	return false
}

// IsRetryable reports whether err can plausibly succeed if retried (e.g.
// after an Unset frees capacity).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the ErrorCode from err, or "" if err does not carry
// one.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context map attached to err, if
// any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var octomapErr *errors.Error
	if goerrors.As(err, &octomapErr) {
		return octomapErr.Context
	}
	return nil
}
