// Package validate implements the field-validation and caller-privilege
// checks shared by every action handler.
package validate

import (
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
)

// Uint validates that value lies within [min,max], returning a typed
// ikerr.Error otherwise. T is any of the unsigned integer widths the
// actions accept (u8/u16/u32/u64 in the spec).
func Uint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](field string, value, min, max T) *ikerr.Error {
	if value < min {
		return ikerr.Validation(ikerr.ReasonFieldTooSmall, field+" is below the minimum")
	}
	if value > max {
		return ikerr.Validation(ikerr.ReasonFieldTooLarge, field+" exceeds the maximum")
	}
	return nil
}

// Str validates a string's byte length against [minLen,maxLen]. An empty
// string with minLen>0 is reported as RequiredField rather than
// FieldTooSmall, matching the existing contract.
func Str(field, value string, minLen, maxLen int) *ikerr.Error {
	if value == "" && minLen > 0 {
		return ikerr.Validation(ikerr.ReasonRequiredField, field+" is required")
	}
	n := len(value) // byte length, not grapheme count
	if n < minLen {
		return ikerr.Validation(ikerr.ReasonFieldTooSmall, field+" is shorter than the minimum length")
	}
	if n > maxLen {
		return ikerr.Validation(ikerr.ReasonFieldTooLarge, field+" is longer than the maximum length")
	}
	return nil
}

// Identity is an opaque 32-byte sender identity.
type Identity [32]byte

// InternalChecker reports whether an Identity holds internal privilege,
// i.e. is allowed to invoke scheduled-callback reducers.
type InternalChecker interface {
	IsInternal(sender Identity) bool
}

// RequireInternalAccess gates a reducer to internal-only senders (used for
// scheduled intention/deferred-event callbacks, which must never be
// reachable by a forged client call).
func RequireInternalAccess(checker InternalChecker, sender Identity) *ikerr.Error {
	if !checker.IsInternal(sender) {
		return ikerr.Unauthorized("sender lacks internal privilege")
	}
	return nil
}
