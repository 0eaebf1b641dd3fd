package model

import "fmt"

// DeliveryError is returned by chat transports when an outbound send is rejected or fails.
// It is the only error that makes delivery fall back to a plain link message.
type DeliveryError struct {
	Operation string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
