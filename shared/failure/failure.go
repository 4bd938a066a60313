package failure

import (
	"errors"
	"net/http"
)

// Failure kinds discriminate failures that share an HTTP code.
const (
	KindConflict             = "conflict"
	KindNotAvailable         = "not_available"
	KindInsufficientCapacity = "insufficient_capacity"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
type Failure struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Code:    http.StatusNotFound,
		Message: entityName + " not found",
	}
}

// Conflict returns a new Failure with code for conflict situations.
func Conflict(message string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		}
	}

	return nil
}

// NotAvailable returns a new Failure for a resource that cannot be booked.
func NotAvailable(msg string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindNotAvailable,
		Message: msg,
	}
}

// InsufficientCapacity returns a new Failure for a reservation that exceeds the remaining capacity.
func InsufficientCapacity(msg string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindInsufficientCapacity,
		Message: msg,
	}
}

// ReservationExpired returns a new Failure for a hold that no longer exists at confirm time.
func ReservationExpired(msg string) error {
	return &Failure{
		Code:    http.StatusGone,
		Message: msg,
	}
}

// PaymentNotCompleted returns a new Failure for a confirmation attempted before payment settled.
func PaymentNotCompleted(msg string) error {
	return &Failure{
		Code:    http.StatusPaymentRequired,
		Message: msg,
	}
}

// CancellationPolicy returns a new Failure for a cancellation rejected by policy.
func CancellationPolicy(msg string) error {
	return &Failure{
		Code:    http.StatusUnprocessableEntity,
		Message: msg,
	}
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// HasCode reports whether the error carries the given failure code.
func HasCode(err error, code int) bool {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code == code
	}

	return false
}

// IsValidation reports whether the error is a caller-fault validation failure.
func IsValidation(err error) bool {
	return HasCode(err, http.StatusBadRequest)
}

// IsNotFound reports whether the error is an entity-not-found failure.
func IsNotFound(err error) bool {
	return HasCode(err, http.StatusNotFound)
}

// HasKind reports whether the error carries the given failure kind.
func HasKind(err error, kind string) bool {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind == kind
	}

	return false
}

// IsInsufficientCapacity reports whether the error is an insufficient-capacity conflict.
// Other conflict failures share the 409 code but not the kind.
func IsInsufficientCapacity(err error) bool {
	return HasKind(err, KindInsufficientCapacity)
}

// IsReservationExpired reports whether the error is an expired-hold failure.
func IsReservationExpired(err error) bool {
	return HasCode(err, http.StatusGone)
}

// IsPaymentNotCompleted reports whether the error is an unsettled-payment failure.
func IsPaymentNotCompleted(err error) bool {
	return HasCode(err, http.StatusPaymentRequired)
}

// IsCancellationPolicy reports whether the error is a cancellation-policy rejection.
func IsCancellationPolicy(err error) bool {
	return HasCode(err, http.StatusUnprocessableEntity)
}
