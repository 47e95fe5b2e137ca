// Package ikerr defines the error-kind taxonomy the world core surfaces to
// its reducer callers. Every fallible action returns either nil or an
// *ikerr.Error carrying one of the closed set of Kinds below, so callers can
// map to a transport-level status without string matching.
package ikerr

import "fmt"

// Kind classifies why an action failed.
type Kind string

const (
	KindBadRequest  Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindValidation  Kind = "validation"
	KindRateLimited Kind = "rate_limited"
	KindInternal    Kind = "internal"
)

// Reason is a closed, kind-scoped sub-code. It is optional: some kinds (e.g.
// KindInternal) carry no further reason.
type Reason string

const (
	ReasonOwnershipMismatch      Reason = "ownership_mismatch"
	ReasonCharacterNotSelected   Reason = "character_not_selected"
	ReasonCharacterNotFound      Reason = "character_not_found"
	ReasonCharacterPositionNotFound Reason = "character_position_not_found"
	ReasonNameTaken              Reason = "name_taken"
	ReasonStatsConflict          Reason = "stats_conflict"
	ReasonNameInvalidCharacters  Reason = "name_invalid_characters"
	ReasonNameConsecutiveSeparators Reason = "name_consecutive_separators"
	ReasonNameWithoutLetters     Reason = "name_without_letters"
	ReasonRequiredField          Reason = "required_field"
	ReasonFieldTooSmall          Reason = "field_too_small"
	ReasonFieldTooLarge          Reason = "field_too_large"
	ReasonMovementOnCooldown     Reason = "movement_on_cooldown"
	ReasonMovementOutOfBounds    Reason = "movement_out_of_bounds"
	ReasonTileOccupied           Reason = "tile_occupied"
	ReasonTileNotWalkable        Reason = "tile_not_walkable"
)

// Error is the concrete error type every service function returns.
type Error struct {
	Kind   Kind
	Reason Reason
	Field  string // populated for validation errors tied to a named field
	msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on Kind+Reason without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return true
}

// New builds an *Error with the given kind/reason.
func New(kind Kind, reason Reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, msg: msg}
}

// Wrap builds an *Error carrying cause as its Unwrap target, for errors
// bubbling up from a repository.
func Wrap(kind Kind, reason Reason, msg string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, msg: fmt.Sprintf("%s: %v", msg, cause), cause: cause}
}

func NotFound(reason Reason, msg string) *Error     { return New(KindNotFound, reason, msg) }
func Forbidden(reason Reason, msg string) *Error    { return New(KindForbidden, reason, msg) }
func Conflict(reason Reason, msg string) *Error     { return New(KindConflict, reason, msg) }
func Validation(reason Reason, msg string) *Error   { return New(KindValidation, reason, msg) }
func Unauthorized(msg string) *Error                { return New(KindUnauthorized, "", msg) }
func BadRequest(msg string) *Error                  { return New(KindBadRequest, "", msg) }
func Internal(msg string, cause error) *Error       { return Wrap(KindInternal, "", msg, cause) }
