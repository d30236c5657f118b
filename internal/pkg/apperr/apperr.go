// Package apperr classifies the failures of the intake pipeline so the transport layer can map
// them to HTTP codes without knowing where they came from.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

//Kind of the failure
type Kind int

const (
	//KindUnknown is any error not created by this package, handled as upstream
	KindUnknown Kind = iota
	//KindValidation - caller input is wrong, message is shown to the caller
	KindValidation
	//KindUpstream - remote datastore, object store or speech service failed
	KindUpstream
	//KindConfiguration - required credentials or settings are missing
	KindConfiguration
	//KindNotFound - requested entity does not exist in the datastore
	KindNotFound
	//KindConflict - work is already done or is being done by someone else
	KindConflict
)

//Error is a classified error
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

//Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

//Cause returns the cause for pkg/errors
func (e *Error) Cause() error {
	return e.Err
}

//Validation creates caller visible error
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

//Configuration creates configuration error
func Configuration(msg string) error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

//Upstream wraps remote failure
func Upstream(err error, msg string) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

//NotFound creates not found error
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

//Conflict creates conflict error
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

//KindOf returns the kind of the first classified error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

//Is checks the error kind
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

//HTTPStatus maps error to the http response code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

//PublicMessage returns the text that is safe to show to the caller.
//Only validation, not found and conflict messages go out verbatim.
func PublicMessage(err error, generic string) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation, KindNotFound, KindConflict:
			return e.Msg
		case KindConfiguration:
			return "Server configuration error"
		}
	}
	return generic
}
