// momo-gateway/pkg/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kode error yang dipakai façade untuk memilih HTTP status.
const (
	CodeTransport     = "GATEWAY_TRANSPORT"
	CodeDecode        = "GATEWAY_DECODE"
	CodeStatus        = "GATEWAY_STATUS"
	CodeRejected      = "GATEWAY_REJECTED"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeOrderNotFound = "ORDER_NOT_FOUND"
)

type E struct {
	Code    string
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error { return e.Err }

// Is matches another E by code only, so errors.Is(err, errors.E{Code: CodeTransport}) works.
func (e E) Is(target error) bool {
	t, ok := target.(E)
	return ok && t.Code == e.Code
}

func Wrap(code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

func New(code, msg string) error {
	return E{Code: code, Message: msg}
}

// CodeOf returns the code of the outermost E in the chain, or "" if there is none.
func CodeOf(err error) string {
	var e E
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the human part of an E without the code prefix.
func MessageOf(err error) string {
	var e E
	if !stderrors.As(err, &e) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
