package domain

import "errors"

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrAggregateNotFound      = errors.New("group order not found")
	ErrInvalidState           = errors.New("invalid group order state")
	ErrNotAParticipant        = errors.New("vendor is not a participant")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrForbidden              = errors.New("forbidden")
)

// Kind is the caller-facing classification of a failed operation.
type Kind string

const (
	KindNone                   Kind = ""
	KindNotFound               Kind = "not_found"
	KindInvalidState           Kind = "invalid_state"
	KindNotAParticipant        Kind = "not_a_participant"
	KindInvalidQuantity        Kind = "invalid_quantity"
	KindConcurrentModification Kind = "concurrent_modification"
	KindForbidden              Kind = "forbidden"
	KindInternal               Kind = "internal"
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrAggregateNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrNotAParticipant):
		return KindNotAParticipant
	case errors.Is(err, ErrInvalidQuantity):
		return KindInvalidQuantity
	case errors.Is(err, ErrConcurrentModification):
		return KindConcurrentModification
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return KindOf(err) == KindConcurrentModification
}
