package domain

import "fmt"

// NotFoundError represents a missing ticket, comment or record.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// CapacityExceededError is returned when a collection is already at its limit.
type CapacityExceededError struct {
	RecordType string
	Limit      int
}

func (e CapacityExceededError) Error() string {
	if e.RecordType == "" {
		return "capacity exceeded"
	}
	return fmt.Sprintf("%s: capacity of %d records exceeded", e.RecordType, e.Limit)
}

func (e CapacityExceededError) Is(target error) bool {
	_, ok := target.(CapacityExceededError)
	if ok {
		return true
	}
	_, ok = target.(*CapacityExceededError)
	return ok
}

// ValidationError reports malformed caller input. It is always raised before
// any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		if e.Reason == "" {
			return "validation failed"
		}
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// TransportError wraps a failed call to the ticketing platform.
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport: %s failed", e.Op)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

func (e TransportError) Is(target error) bool {
	_, ok := target.(TransportError)
	if ok {
		return true
	}
	_, ok = target.(*TransportError)
	return ok
}

// DecodeError reports a ticket or comment body that could not be parsed.
// Stores recover from it locally and never hand it to callers.
type DecodeError struct {
	What string
	Err  error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

func (e DecodeError) Is(target error) bool {
	_, ok := target.(DecodeError)
	if ok {
		return true
	}
	_, ok = target.(*DecodeError)
	return ok
}

// Sentinels for errors.Is matching.
var (
	ErrNotFound         = NotFoundError{}
	ErrCapacityExceeded = CapacityExceededError{}
	ErrValidation       = ValidationError{}
	ErrTransport        = TransportError{}
	ErrDecode           = DecodeError{}
)
