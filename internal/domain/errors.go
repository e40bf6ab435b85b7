package domain

import (
	"errors"
	"fmt"
)

// ValidationError means the client must fix the cart or address. Its
// message is safe to show verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GatewayError means the payment gateway was unreachable or rejected the
// request. The whole checkout attempt may be retried.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ErrSignatureMismatch is returned when a payment confirmation does not carry
// the gateway's signature. Never retried with the same inputs.
var ErrSignatureMismatch = errors.New("payment signature verification failed")

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsGateway(err error) bool {
	var g *GatewayError
	return errors.As(err, &g)
}
