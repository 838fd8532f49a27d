package app

import (
	"errors"
	"fmt"

	"github.com/dshills/quire/internal/event"
)

// Application errors.
var (
	// ErrClosed is returned by operations on a closed Application.
	ErrClosed = errors.New("application closed")

	// ErrInitialization matches every InitError.
	ErrInitialization = errors.New("initialization failed")

	// ErrNoInput is returned for an input file with no text in it.
	ErrNoInput = errors.New("no input text")
)

// OperationError reports a failed operation on a settings store or an
// input file.
type OperationError struct {
	Op   string // "update-settings", "read", "paginate"
	Path string
	Err  error
}

// NewOperationError creates an OperationError.
func NewOperationError(op, path string, err error) *OperationError {
	return &OperationError{Op: op, Path: path, Err: err}
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ComponentError attributes a failure to one part of the application:
// "config", "engine" or "bus".
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError creates a ComponentError. Action may be empty.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// HandlerPanicError describes a notification handler that panicked. The
// bus recovers the panic; the engine state is unaffected.
type HandlerPanicError struct {
	Topic string
	Value any
	Stack string
}

// newHandlerPanicError builds the error from what the bus passes to its
// panic handler.
func newHandlerPanicError(evt, value any, stack []byte) *HandlerPanicError {
	e := &HandlerPanicError{Value: value, Stack: string(stack)}
	if p, ok := evt.(event.TopicProvider); ok {
		e.Topic = p.EventTopic().String()
	}
	return e
}

func (e *HandlerPanicError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("handler panic: %v", e.Value)
	}
	return fmt.Sprintf("%s handler panic: %v", e.Topic, e.Value)
}
