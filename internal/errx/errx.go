package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers and transports can react to it
// without parsing messages.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindProductNotFound   Kind = "product_not_found"
	KindInvalidSize       Kind = "invalid_size"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "concurrent_modification_conflict"
	KindPartialCommit     Kind = "partial_commit"
)

// Error is the typed result for business outcomes. Field names the offending
// request field, Available carries the stock left for InsufficientStock.
type Error struct {
	Kind      Kind
	Field     string
	Available int
	Message   string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}

	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}

	if e.Err == nil {
		return msg
	}

	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidInput(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func ProductNotFound() *Error {
	return &Error{Kind: KindProductNotFound, Field: "product_id", Message: "product not found"}
}

func InvalidSize(size string) *Error {
	return &Error{Kind: KindInvalidSize, Field: "size", Message: fmt.Sprintf("size %q is not in the configured range", size)}
}

func InsufficientStock(available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Field:     "quantity",
		Available: available,
		Message:   fmt.Sprintf("not enough stock, only %d available", available),
	}
}

func Conflict(err error) *Error {
	return &Error{Kind: KindConflict, Message: "stock changed concurrently", Err: err}
}

func PartialCommit(err error) *Error {
	return &Error{Kind: KindPartialCommit, Message: "stock written but sale not recorded", Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Status maps an error to the HTTP status a transport should answer with.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindInvalidSize:
		return http.StatusBadRequest
	case KindNotFound, KindProductNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
