package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrContentDecode       = errors.New("content could not be decoded")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrPartialWrite        = errors.New("update was only partially applied")
	ErrValidation          = errors.New("invalid request")
	ErrConflict            = errors.New("conflict")
)

// OpError records the operation and artifact identity an error belongs to
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WrapOp annotates err with op and id, leaving nil untouched
func WrapOp(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, ID: id, Err: err}
}

// Validationf returns an ErrValidation carrying a formatted message
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PartialWriteError reports which stores were written before a later write failed
type PartialWriteError struct {
	ID      string
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%v for %s: applied %v, %s failed: %v", ErrPartialWrite, e.ID, e.Applied, e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}
